// Package report exports a training block to an .xlsx workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/miles/internal/mileage"
	"github.com/mesh-intelligence/miles/internal/race"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// Sheet names in the exported workbook.
const (
	WeeksSheet = "Weeks"
	RacesSheet = "Races"
)

var (
	weekHeader = []any{"Week", "Start", "1", "2", "3", "4", "5", "6", "7", "Total", "Goal"}
	raceHeader = []any{"Date", "Name", "Miles", "URL"}
)

// Write renders a block's weeks and races as a workbook to w.
func Write(w io.Writer, blk *types.Block, rows []mileage.Row, races []race.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(WeeksSheet)
	if err != nil {
		return fmt.Errorf("creating %s sheet: %w", WeeksSheet, err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(RacesSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", RacesSheet, err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := writeWeeks(f, header, rows); err != nil {
		return err
	}
	if err := writeRaces(f, header, races); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: blk.Name, Creator: "miles"}); err != nil {
		return fmt.Errorf("setting document properties: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeWeeks(f *excelize.File, header int, rows []mileage.Row) error {
	if err := writeRow(f, WeeksSheet, 1, weekHeader); err != nil {
		return err
	}
	last := colName(len(weekHeader))
	if err := f.SetCellStyle(WeeksSheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("styling week header: %w", err)
	}
	if err := f.SetColWidth(WeeksSheet, "B", "B", 12); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	for i, r := range rows {
		values := []any{r.WeekNumber, r.Start.String()}
		for _, m := range r.Miles {
			values = append(values, m)
		}
		values = append(values, r.Total, r.Goal)
		if err := writeRow(f, WeeksSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeRaces(f *excelize.File, header int, races []race.Entry) error {
	if err := writeRow(f, RacesSheet, 1, raceHeader); err != nil {
		return err
	}
	last := colName(len(raceHeader))
	if err := f.SetCellStyle(RacesSheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("styling race header: %w", err)
	}
	if err := f.SetColWidth(RacesSheet, "A", "A", 12); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(RacesSheet, "B", "B", 24); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	for i, e := range races {
		values := []any{e.Date.String(), e.Name, e.Miles, e.URL}
		if err := writeRow(f, RacesSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
