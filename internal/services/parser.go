package services

import (
	"fmt"
	"io"

	"github.com/ashmitsharp/classtrib-api/internal/models"
)

// ParseResult is the outcome of ingesting one spreadsheet
type ParseResult struct {
	Report   *models.Report
	Accepted int
	Dropped  int
}

// Parser turns uploaded spreadsheets into consolidated reports
type Parser struct{}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads the whole upload and runs normalization, row parsing, the summary pass and
// company metadata extraction. Any read failure aborts the file; unusable rows are only counted.
func (p *Parser) ParseFile(file io.Reader, filename string) (*ParseResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	wb, err := ReadWorkbook(data, filename)
	if err != nil {
		return nil, err
	}

	return p.ParseWorkbook(wb)
}

// ParseWorkbook runs the pipeline over an already loaded workbook
func (p *Parser) ParseWorkbook(wb *Workbook) (*ParseResult, error) {
	sheet, err := wb.First()
	if err != nil {
		return nil, err
	}

	items, dropped := ParseSheet(sheet.Rows)

	return &ParseResult{
		Report:   BuildReport(items, ExtractCompanyMeta(wb)),
		Accepted: len(items),
		Dropped:  dropped,
	}, nil
}

// ParseSheet treats the first non-blank row as the header and parses every following row.
// Fully blank rows are skipped silently and are not counted as dropped.
func ParseSheet(rows [][]string) ([]models.ConsolidatedItem, int) {
	items := make([]models.ConsolidatedItem, 0)

	// Sheets may start below row 1; GetRows reports the rows above as empty
	for len(rows) > 0 && isEmptyRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return items, 0
	}

	keys := NormalizeHeaders(rows[0])
	dropped := 0

	for _, cells := range rows[1:] {
		if isEmptyRow(cells) {
			continue
		}

		item, ok := ParseRow(BuildRow(keys, cells))
		if !ok {
			dropped++
			continue
		}
		items = append(items, item)
	}

	return items, dropped
}
