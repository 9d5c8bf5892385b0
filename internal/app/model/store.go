package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// StringArray stores a string slice as a JSON document
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringArray) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// scanJSON accepts both []byte (postgres) and string (sqlite) column values.
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ColorPalette is the 9-slot branding palette used by the public menu page.
type ColorPalette struct {
	Primary    string `json:"primary"`    // header, buttons
	Secondary  string `json:"secondary"`  // section titles
	Accent     string `json:"accent"`     // badges, promotional tags
	Background string `json:"background"` // page background
	Surface    string `json:"surface"`    // dish cards
	Text       string `json:"text"`
	TextMuted  string `json:"text_muted"` // descriptions
	Price      string `json:"price"`
	Border     string `json:"border"`
}

// DefaultPalette fills any slot a store leaves empty.
var DefaultPalette = ColorPalette{
	Primary:    "#E63946",
	Secondary:  "#1D3557",
	Accent:     "#F4A261",
	Background: "#FFFFFF",
	Surface:    "#F8F9FA",
	Text:       "#212529",
	TextMuted:  "#6C757D",
	Price:      "#2A9D8F",
	Border:     "#DEE2E6",
}

func (p ColorPalette) slots() []*string {
	return []*string{&p.Primary, &p.Secondary, &p.Accent, &p.Background, &p.Surface, &p.Text, &p.TextMuted, &p.Price, &p.Border}
}

// WithDefaults returns the palette with empty slots padded from DefaultPalette.
func (p ColorPalette) WithDefaults() ColorPalette {
	out := p
	outSlots := []*string{&out.Primary, &out.Secondary, &out.Accent, &out.Background, &out.Surface, &out.Text, &out.TextMuted, &out.Price, &out.Border}
	def := DefaultPalette
	defSlots := []*string{&def.Primary, &def.Secondary, &def.Accent, &def.Background, &def.Surface, &def.Text, &def.TextMuted, &def.Price, &def.Border}
	for i, slot := range outSlots {
		if *slot == "" {
			*slot = *defSlots[i]
		}
	}
	return out
}

// Validate checks every non-empty slot is a hex color.
func (p ColorPalette) Validate() error {
	for _, slot := range p.slots() {
		if *slot != "" && !hexColor.MatchString(*slot) {
			return fmt.Errorf("invalid color %q", *slot)
		}
	}
	return nil
}

func (p ColorPalette) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *ColorPalette) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// DayHours is one weekday of a store's schedule. Times are "HH:MM".
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	IsOpen bool   `json:"is_open"`
}

type OperatingHours struct {
	Monday    DayHours `json:"monday"`
	Tuesday   DayHours `json:"tuesday"`
	Wednesday DayHours `json:"wednesday"`
	Thursday  DayHours `json:"thursday"`
	Friday    DayHours `json:"friday"`
	Saturday  DayHours `json:"saturday"`
	Sunday    DayHours `json:"sunday"`
}

var ErrInvalidHours = errors.New("invalid operating hours")

// Validate requires open < close on every day flagged as open.
func (h OperatingHours) Validate() error {
	days := map[string]DayHours{
		"monday": h.Monday, "tuesday": h.Tuesday, "wednesday": h.Wednesday,
		"thursday": h.Thursday, "friday": h.Friday, "saturday": h.Saturday, "sunday": h.Sunday,
	}
	for name, d := range days {
		if !d.IsOpen {
			continue
		}
		open, err := time.Parse("15:04", d.Open)
		if err != nil {
			return fmt.Errorf("%w: %s open time %q", ErrInvalidHours, name, d.Open)
		}
		closing, err := time.Parse("15:04", d.Close)
		if err != nil {
			return fmt.Errorf("%w: %s close time %q", ErrInvalidHours, name, d.Close)
		}
		if !open.Before(closing) {
			return fmt.Errorf("%w: %s opens after it closes", ErrInvalidHours, name)
		}
	}
	return nil
}

// Day returns the schedule for a weekday.
func (h OperatingHours) Day(d time.Weekday) DayHours {
	switch d {
	case time.Monday:
		return h.Monday
	case time.Tuesday:
		return h.Tuesday
	case time.Wednesday:
		return h.Wednesday
	case time.Thursday:
		return h.Thursday
	case time.Friday:
		return h.Friday
	case time.Saturday:
		return h.Saturday
	default:
		return h.Sunday
	}
}

func (h OperatingHours) Value() (driver.Value, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *OperatingHours) Scan(value interface{}) error {
	return scanJSON(value, h)
}

type Store struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	UserID         uint           `gorm:"uniqueIndex;not null" json:"user_id"` // one store per user
	Name           string         `gorm:"not null" json:"name"`
	Slug           string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description    string         `gorm:"type:text" json:"description"`
	Address        string         `gorm:"type:text" json:"address"`
	Phones         StringArray    `gorm:"type:text" json:"phones"`
	Whatsapp       string         `gorm:"type:varchar(30)" json:"whatsapp"`
	Instagram      string         `gorm:"type:varchar(100)" json:"instagram"`
	Colors         ColorPalette   `gorm:"type:text" json:"colors"`
	LogoPath       string         `json:"logo_path"`
	BackgroundPath string         `json:"background_path"`
	LegalName      string         `json:"legal_name"`
	Document       string         `gorm:"type:varchar(20)" json:"document"` // CNPJ or CPF
	OperatingHours OperatingHours `gorm:"type:text" json:"operating_hours"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Menus []Menu `gorm:"foreignKey:StoreID" json:"menus,omitempty"`
}

func (Store) TableName() string {
	return "stores"
}
