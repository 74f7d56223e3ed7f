package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/models"
)

// NBS sheet column positions
const (
	nbsColItemLC116 = iota
	nbsColDescricaoItem
	nbsColNBSCode
	nbsColDescricaoNBS
	nbsColPSOnerosa
	nbsColAdqExterior
	nbsColIndop
	nbsColLocalIncidencia
	nbsColCClassTrib
	nbsColNomeCClassTrib
)

// nbsCarry holds the last non-empty value of each column while folding the sheet.
// Merged cells in the source workbook arrive as one value followed by blanks.
type nbsCarry struct {
	itemLC116       string
	descricaoItem   string
	nbsCode         string
	descricaoNBS    string
	psOnerosa       string
	adqExterior     string
	indop           string
	localIncidencia string
	cClassTrib      string
	nomeCClassTrib  string
}

func fill(last *string, v string) string {
	if v != "" {
		*last = v
	}
	return *last
}

// next folds one row into the carry and returns the filled entry
func (c *nbsCarry) next(row []string) models.NBSEntry {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	fill(&c.itemLC116, get(nbsColItemLC116))
	fill(&c.descricaoItem, get(nbsColDescricaoItem))

	// The description belongs to the code; it only moves when the code does
	if code := get(nbsColNBSCode); code != "" {
		c.nbsCode = code
		c.descricaoNBS = get(nbsColDescricaoNBS)
	}

	fill(&c.psOnerosa, get(nbsColPSOnerosa))
	fill(&c.adqExterior, get(nbsColAdqExterior))
	fill(&c.indop, get(nbsColIndop))
	fill(&c.localIncidencia, get(nbsColLocalIncidencia))

	if class := get(nbsColCClassTrib); class != "" {
		c.cClassTrib = class
		c.nomeCClassTrib = get(nbsColNomeCClassTrib)
	}

	return models.NBSEntry{
		NBSCode:         c.nbsCode,
		DescricaoNBS:    nullable(c.descricaoNBS),
		ItemLC116:       nullable(c.itemLC116),
		DescricaoItem:   nullable(c.descricaoItem),
		PSOnerosa:       nullable(c.psOnerosa),
		AdqExterior:     nullable(c.adqExterior),
		Indop:           nullable(c.indop),
		LocalIncidencia: nullable(c.localIncidencia),
		CClassTrib:      nullable(c.cClassTrib),
		NomeCClassTrib:  nullable(c.nomeCClassTrib),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FoldNBSRows turns the NBS sheet into entries. The first row is the header.
// Blank rows are skipped and rows still lacking a code after fill-down are dropped.
func FoldNBSRows(rows [][]string) []models.NBSEntry {
	entries := []models.NBSEntry{}
	if len(rows) < 2 {
		return entries
	}

	var carry nbsCarry
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		entry := carry.next(row)
		if entry.NBSCode == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// ReadNBSWorkbook reads the NBS workbook and folds the sheet at sheetIndex (0-based)
func ReadNBSWorkbook(r io.Reader, filename string, sheetIndex int) ([]models.NBSEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read nbs file: %w", err)
	}

	wb, err := ReadWorkbook(data, filename)
	if err != nil {
		return nil, err
	}
	if sheetIndex < 0 || sheetIndex >= len(wb.Sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", sheetIndex, len(wb.Sheets))
	}

	return FoldNBSRows(wb.Sheets[sheetIndex].Rows), nil
}
