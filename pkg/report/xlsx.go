package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/encodingman/encodingman/pkg/errors"
	"github.com/encodingman/encodingman/pkg/pipeline"
)

const (
	filesSheet  = "Files"
	totalsSheet = "Totals"
)

var fileHeaders = []string{"#", "Path", "Outcome", "Encoding", "Confidence", "Output", "Lossy", "Code", "Error"}

// WriteXLSX saves sum as a workbook with a per-file sheet and a totals sheet.
func WriteXLSX(path string, sum *pipeline.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", filesSheet); err != nil {
		return xlsxErr(path, err)
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return xlsxErr(path, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return xlsxErr(path, err)
	}

	for i, h := range fileHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(filesSheet, cell, h); err != nil {
			return xlsxErr(path, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(fileHeaders), 1)
	if err := f.SetCellStyle(filesSheet, "A1", last, bold); err != nil {
		return xlsxErr(path, err)
	}

	for r, row := range Rows(sum) {
		values := []interface{}{
			row.Index + 1, row.Path, row.Outcome, row.Encoding,
			row.Confidence, row.Output, row.Lossy, row.Code, row.Error,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(filesSheet, cell, &values); err != nil {
			return xlsxErr(path, err)
		}
	}

	totals := [][]interface{}{
		{"Total", sum.Counts.Total},
		{"Converted", sum.Counts.Converted},
		{"Already target", sum.Counts.AlreadyTarget},
		{"Binary", sum.Counts.Binary},
		{"Errors", sum.Counts.Errors},
		{"Canceled", sum.Canceled},
		{"Pending", len(sum.Pending)},
	}
	for r, values := range totals {
		cell, _ := excelize.CoordinatesToCellName(1, r+1)
		if err := f.SetSheetRow(totalsSheet, cell, &values); err != nil {
			return xlsxErr(path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return xlsxErr(path, err)
	}
	return nil
}

func xlsxErr(path string, err error) error {
	return errors.UnwritableOutput(path, fmt.Errorf("xlsx report: %w", err))
}
