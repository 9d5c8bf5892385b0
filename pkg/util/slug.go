package util

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedDash  = regexp.MustCompile(`-+`)
	combiningMark = regexp.MustCompile(`\p{Mn}`)
)

// Slugify lowercases s, strips accents ("Pão de Açúcar" -> "pao-de-acucar") and
// joins words with single dashes.
func Slugify(s string) string {
	slug := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	slug = combiningMark.ReplaceAllString(slug, "")
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = repeatedDash.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// UniqueSlug returns base, or base-2, base-3, ... for the first value taken reports as free.
func UniqueSlug(base string, taken func(candidate string) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}
	candidate := base
	for counter := 2; ; counter++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
