package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	ErrNoSheets          = errors.New("spreadsheet has no sheets")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// Sheet is a raw grid of cell values
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook holds every sheet of an uploaded file, in file order
type Workbook struct {
	Sheets []Sheet
}

// First returns the first sheet
func (w *Workbook) First() (*Sheet, error) {
	if w == nil || len(w.Sheets) == 0 {
		return nil, ErrNoSheets
	}
	return &w.Sheets[0], nil
}

// SheetByName finds a sheet case-insensitively
func (w *Workbook) SheetByName(name string) (*Sheet, bool) {
	if w == nil {
		return nil, false
	}
	for i := range w.Sheets {
		if strings.EqualFold(strings.TrimSpace(w.Sheets[i].Name), name) {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// ReadWorkbook loads an xlsx, xls or csv file into memory. The format is chosen by extension.
func ReadWorkbook(data []byte, filename string) (*Workbook, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readXLSX(data)
	case ".xls":
		return readXLS(data)
	case ".csv":
		return readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func readXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}

	wb := &Workbook{Sheets: make([]Sheet, 0, len(names))}
	for _, name := range names {
		// Raw values keep numeric codes free of display formatting (e.g. "1.001")
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read rows from sheet %s: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}

func readXLS(data []byte) (*Workbook, error) {
	// xlsReader works with file paths
	tmpFile, err := os.CreateTemp("", "upload-*.xls")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmpFile.Close()

	book, err := xls.OpenFile(tmpFile.Name())
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	count := book.GetNumberSheets()
	if count == 0 {
		return nil, ErrNoSheets
	}

	wb := &Workbook{Sheets: make([]Sheet, 0, count)}
	for i := 0; i < count; i++ {
		sheet, err := book.GetSheet(i)
		if err != nil || sheet == nil {
			return nil, fmt.Errorf("read xls sheet %d: %w", i, err)
		}

		var rows [][]string
		for _, xlsRow := range sheet.GetRows() {
			cols := xlsRow.GetCols()
			row := make([]string, len(cols))
			for j, col := range cols {
				row[j] = col.GetString()
			}
			rows = append(rows, trimTrailingEmpty(row))
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: sheet.GetName(), Rows: rows})
	}
	return wb, nil
}

func readCSV(data []byte) (*Workbook, error) {
	var reader io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		// Spreadsheets exported by Brazilian ERPs are usually Windows-1252
		reader = transform.NewReader(reader, charmap.Windows1252.NewDecoder())
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	decoded = bytes.TrimPrefix(decoded, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(decoded))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = detectDelimiter(decoded)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return &Workbook{Sheets: []Sheet{{Name: "csv", Rows: rows}}}, nil
}

// detectDelimiter picks ';' when the header line uses it more than ','
func detectDelimiter(data []byte) rune {
	header := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		header = data[:idx]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
