package services

import (
	"regexp"
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/shopspring/decimal"
)

const defaultStatus = "OK"

// ptBRThousands matches integers grouped with dots, e.g. "1.234" or "12.345.678"
var ptBRThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// ParseRow converts one normalized row into a ConsolidatedItem.
// Rows without both NCM and CFOP are rejected (ok == false).
func ParseRow(row RawRow) (models.ConsolidatedItem, bool) {
	ncm := strings.TrimSpace(field(row, ncmAliases))
	cfop := strings.TrimSpace(field(row, cfopAliases))
	if ncm == "" || cfop == "" {
		return models.ConsolidatedItem{}, false
	}

	var cClasstrib *string
	if raw, ok := row.lookup(cClasstribAliases); ok {
		if v := strings.TrimSpace(raw); v != "" {
			cClasstrib = &v
		}
	}

	status := strings.ToUpper(strings.TrimSpace(field(row, statusAliases)))
	if status == "" {
		status = defaultStatus
	}

	descricao := strings.TrimSpace(field(row, descricaoAliases))
	nomeProduto := strings.TrimSpace(field(row, nomeProdutoAliases))
	if nomeProduto == "" {
		nomeProduto = descricao
	}

	return models.ConsolidatedItem{
		NCM:                ncm,
		CFOP:               cfop,
		CClasstribSugerido: cClasstrib,
		QtdRegistros:       ParseRecordCount(field(row, qtdRegistrosAliases)),
		Status:             status,
		Descricao:          descricao,
		NomeProduto:        nomeProduto,
	}, true
}

// ParseRecordCount coerces a raw cell into a record count. Absent or non-numeric values
// count as 1, fractional values are truncated and anything below 1 is raised to 1.
func ParseRecordCount(raw string) int {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 1
	}
	if ptBRThousands.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		// pt-BR formatted numbers, e.g. "1.234,00"
		d, err = decimal.NewFromString(strings.ReplaceAll(strings.ReplaceAll(cleaned, ".", ""), ",", "."))
		if err != nil {
			return 1
		}
	}

	n := d.IntPart()
	if n < 1 || n > int64(^uint32(0)>>1) {
		return 1
	}
	return int(n)
}

func field(row RawRow, aliases []string) string {
	v, _ := row.lookup(aliases)
	return v
}
