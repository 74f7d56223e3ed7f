package services

import (
	"bytes"
	"fmt"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Analise"

// ExportGroups writes the grouped rows (NCM, CFOP, formatted cClasstrib) to an xlsx file
func ExportGroups(groups []models.NCMGroup) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"NCM", "CFOP", "cClasstrib"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	row := 2
	for _, g := range groups {
		for _, entry := range g.CFOPs {
			values := []string{g.NCM, entry.CFOP, FormatCClasstrib(entry.CClasstribSugerido)}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			// Written as strings so leading zeros survive
			if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
