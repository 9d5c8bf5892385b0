package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// ImportResult summarizes a spreadsheet import.
type ImportResult struct {
	Menu     *model.Menu
	Sections int
	Dishes   int
	Skipped  int
}

// MenuImporter builds a menu from an XLSX sheet with the columns
// section | dish | description | price | promotional_price.
type MenuImporter interface {
	Import(ctx context.Context, userID uint, menuName string, r io.Reader) (*ImportResult, error)
}

type menuImporter struct {
	menus    MenuService
	sections SectionService
	dishes   DishService
}

func NewMenuImporter(menus MenuService, sections SectionService, dishes DishService) MenuImporter {
	return &menuImporter{menus: menus, sections: sections, dishes: dishes}
}

type importRow struct {
	section     string
	dish        string
	description string
	price       float64
	promotional *float64
}

func (i *menuImporter) Import(ctx context.Context, userID uint, menuName string, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	result := &ImportResult{}
	var parsed []importRow
	// first row is the header
	for n, row := range rows[1:] {
		item, ok := parseImportRow(row)
		if !ok {
			logger.Warn("Skipping invalid import row", map[string]interface{}{
				"row": n + 2,
			})
			result.Skipped++
			continue
		}
		parsed = append(parsed, item)
	}

	menu, err := i.menus.CreateMenu(userID, MenuMutation{Name: &menuName})
	if err != nil {
		return nil, err
	}
	result.Menu = menu

	sectionIDs := make(map[string]uint)
	for _, item := range parsed {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		sectionID, ok := sectionIDs[item.section]
		if !ok {
			name := item.section
			section, err := i.sections.CreateSection(userID, SectionMutation{MenuID: menu.ID, Name: &name})
			if err != nil {
				return result, err
			}
			sectionID = section.ID
			sectionIDs[item.section] = sectionID
			result.Sections++
		}

		name, description, price := item.dish, item.description, item.price
		if _, err := i.dishes.CreateDish(ctx, userID, DishMutation{
			SectionID:        &sectionID,
			Name:             &name,
			Description:      &description,
			Price:            &price,
			PromotionalPrice: item.promotional,
		}, nil); err != nil {
			return result, err
		}
		result.Dishes++
	}

	logger.Info("Menu imported from spreadsheet", map[string]interface{}{
		"user_id":  userID,
		"menu_id":  menu.ID,
		"sections": result.Sections,
		"dishes":   result.Dishes,
		"skipped":  result.Skipped,
	})
	return result, nil
}

func parseImportRow(row []string) (importRow, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	item := importRow{section: cell(0), dish: cell(1), description: cell(2)}
	if item.section == "" || item.dish == "" {
		return item, false
	}

	price, ok := parsePrice(cell(3))
	if !ok {
		return item, false
	}
	item.price = price

	if raw := cell(4); raw != "" {
		promo, ok := parsePrice(raw)
		if !ok {
			return item, false
		}
		item.promotional = &promo
	}
	return item, true
}

// parsePrice accepts "12.50", "12,50" and "R$ 12,50".
func parsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	if raw == "" {
		return 0, false
	}
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
