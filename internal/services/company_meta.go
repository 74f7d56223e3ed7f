package services

import (
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/models"
)

const companySheetName = "empresa"

// ExtractCompanyMeta reads the optional "empresa" sheet: name in A1, tax id split across A2 and B2.
// Blank rows are skipped before positions are taken. Returns nil when the sheet is absent
// or yields neither a name nor a tax id.
func ExtractCompanyMeta(wb *Workbook) *models.CompanyMeta {
	sheet, ok := wb.SheetByName(companySheetName)
	if !ok {
		return nil
	}

	var rows [][]string
	for _, row := range sheet.Rows {
		if !isEmptyRow(row) {
			rows = append(rows, row)
		}
	}

	nome := cellAt(rows, 0, 0)

	var parts []string
	for _, p := range []string{cellAt(rows, 1, 0), cellAt(rows, 1, 1)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	cnpj := strings.Join(parts, " ")

	if nome == "" && cnpj == "" {
		return nil
	}
	return &models.CompanyMeta{Nome: nome, CNPJ: cnpj}
}

func cellAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return strings.TrimSpace(rows[r][c])
}

// isEmptyRow checks if all fields in a row are empty
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
