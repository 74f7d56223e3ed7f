package services

import (
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/models"
)

const absentStatus = "AUSENTE"

// IsMissingTaxClass reports whether the item has no usable cClasstrib suggestion
// (nil, blank or "N/A").
func IsMissingTaxClass(item models.ConsolidatedItem) bool {
	if item.CClasstribSugerido == nil {
		return true
	}
	v := strings.ToUpper(strings.TrimSpace(*item.CClasstribSugerido))
	return v == "" || v == "N/A"
}

// IsAbsentStatus reports whether the source row was flagged AUSENTE.
// This is unrelated to IsMissingTaxClass; an item can be either, both or neither.
func IsAbsentStatus(item models.ConsolidatedItem) bool {
	return item.Status == absentStatus
}

// BuildReport runs the summary pass over the flat item list. The items are kept as given,
// one per accepted row; nothing is merged here.
func BuildReport(items []models.ConsolidatedItem, empresa *models.CompanyMeta) *models.Report {
	if items == nil {
		items = []models.ConsolidatedItem{}
	}

	casos := make([]models.MissingCase, 0)
	cfopsNA := make([]string, 0)
	seenCFOP := make(map[string]bool)
	totalAusente := 0

	for _, item := range items {
		if IsAbsentStatus(item) {
			casos = append(casos, models.MissingCase{
				NCM:          item.NCM,
				CFOP:         item.CFOP,
				QtdRegistros: item.QtdRegistros,
				Descricao:    item.Descricao,
			})
		}

		if IsMissingTaxClass(item) {
			totalAusente++
			// Grouped by CFOP alone, regardless of NCM
			if !seenCFOP[item.CFOP] {
				seenCFOP[item.CFOP] = true
				cfopsNA = append(cfopsNA, item.CFOP)
			}
		}
	}

	total := len(items)
	return &models.Report{
		TabelaConsolidada: items,
		CasosAusentes:     casos,
		Resumo: models.Summary{
			TotalCombinacoes: total,
			TotalOK:          total - totalAusente,
			TotalAusente:     totalAusente,
			TotalMultiplo:    0,
			TotalCFOPNA:      len(cfopsNA),
		},
		Empresa: empresa,
		CFOPsNA: cfopsNA,
	}
}
