package handler

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	entriesSheet    = "Entries"
	summarySheet    = "Daily Summary"
)

var entryHeaders = []string{
	"Date", "Meal", "Food", "Brand", "Servings", "Unit",
	"Calories", "Protein (g)", "Carbs (g)", "Fat (g)", "Fiber (g)", "Sugar (g)", "Sodium (mg)",
}

var summaryHeaders = []string{"Date", "Entries", "Calories", "Protein (g)", "Carbs (g)", "Fat (g)", "Fiber (g)"}

// buildDiaryWorkbook writes one row per entry, with nutrient values already
// multiplied by the serving count, and a per-day totals sheet.
func buildDiaryWorkbook(from, to string, entries []domain.FoodLog) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, entriesSheet, 1, toAny(entryHeaders)); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRow(f, summarySheet, 1, toAny(summaryHeaders)); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(entriesSheet, "A1", lastCell(len(entryHeaders), 1), headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("style %s header: %w", entriesSheet, err)
	}
	if err := f.SetCellStyle(summarySheet, "A1", lastCell(len(summaryHeaders), 1), headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("style %s header: %w", summarySheet, err)
	}

	type dayTotals struct {
		count  int
		totals domain.DiaryTotals
	}
	var days []string
	byDay := map[string]*dayTotals{}

	for i, e := range entries {
		s := e.ServingSize
		row := []any{
			e.Date, string(e.MealType), e.FoodName, e.Brand, e.ServingSize, e.ServingUnit,
			round1(e.Calories * s), round1(e.Protein * s), round1(e.Carbs * s), round1(e.Fat * s),
			round1(e.Fiber * s), round1(e.Sugar * s), round1(e.Sodium * s),
		}
		if err := writeRow(f, entriesSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}

		d, ok := byDay[e.Date]
		if !ok {
			d = &dayTotals{}
			byDay[e.Date] = d
			days = append(days, e.Date)
		}
		d.count++
		d.totals.Add(e)
	}

	for i, date := range days {
		d := byDay[date]
		row := []any{
			date, d.count, round1(d.totals.Calories), round1(d.totals.Protein),
			round1(d.totals.Carbs), round1(d.totals.Fat), round1(d.totals.Fiber),
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	widths := []struct {
		sheet, from, to string
		width           float64
	}{
		{entriesSheet, "A", "A", 12},
		{entriesSheet, "C", "D", 30},
		{summarySheet, "A", "A", 12},
	}
	for _, cw := range widths {
		if err := f.SetColWidth(cw.sheet, cw.from, cw.to, cw.width); err != nil {
			f.Close()
			return nil, fmt.Errorf("set %s column width: %w", cw.sheet, err)
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Food diary %s to %s", from, to),
		Creator: "MacroTrack",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("set doc props: %w", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func lastCell(cols, row int) string {
	cell, _ := excelize.CoordinatesToCellName(cols, row)
	return cell
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
