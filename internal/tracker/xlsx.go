package tracker

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "job_tracker"

func loadXLSX(path string) (Rows, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening tracker %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	table, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading tracker %s: %w", path, err)
	}
	if len(table) == 0 {
		return Rows{}, nil
	}
	return rowsFromTable(table[0], table[1:]), nil
}

// writeXLSX renders the rows into a fresh workbook: frozen header row,
// auto-filter over the full table, and a dropdown on erledigt restricting
// it to the two checkbox glyphs.
func writeXLSX(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Headers))
	for i, col := range Headers {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		line := make([]interface{}, len(Headers))
		for j, col := range Headers {
			line[j] = row[col]
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &line); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(Headers))
	if err != nil {
		return err
	}
	lastRow := len(rows) + 1
	if err := f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
		return err
	}

	if len(rows) > 0 {
		erledigtIdx := 0
		for i, col := range Headers {
			if col == "erledigt" {
				erledigtIdx = i + 1
				break
			}
		}
		colName, err := excelize.ColumnNumberToName(erledigtIdx)
		if err != nil {
			return err
		}
		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s%d", colName, colName, lastRow)
		if err := dv.SetDropList([]string{CheckboxEmpty, CheckboxDone}); err != nil {
			return err
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, "Ungueltiger Wert",
			fmt.Sprintf("Bitte nur %s oder %s waehlen.", CheckboxEmpty, CheckboxDone))
		if err := f.AddDataValidation(sheetName, dv); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
