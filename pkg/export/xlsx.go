package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Card"

// XLSXExporter renders a single-sheet workbook.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Extension() string { return "xlsx" }

func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := validate(data, "xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6ECF5"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(xlsxSheet, "A1", data.Title); err != nil {
			return nil, err
		}
		row++
	}
	for _, line := range data.Preamble {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(xlsxSheet, cell, line); err != nil {
			return nil, err
		}
		row++
	}
	if row > 1 {
		row++
	}

	for col, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(xlsxSheet, cell, header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(xlsxSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(xlsxSheet, name, name, 20); err != nil {
			return nil, err
		}
	}

	for _, values := range data.Rows {
		row++
		for col, value := range record(data, values) {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
