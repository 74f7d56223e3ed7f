package services

import (
	"sort"
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/models"
)

const (
	// NotFoundLabel is shown in place of a missing cClasstrib
	NotFoundLabel = "Não Encontrado"

	// GroupsPerPage is the number of NCM groups on one report page
	GroupsPerPage = 10

	cClasstribWidth = 6
)

// FormatCClasstrib renders a suggested class for display: missing values become
// NotFoundLabel, everything else is left-padded with zeros to six characters.
func FormatCClasstrib(value *string) string {
	if value == nil {
		return NotFoundLabel
	}
	v := strings.TrimSpace(*value)
	if v == "" || v == "N/A" || v == NotFoundLabel {
		return NotFoundLabel
	}
	if n := len([]rune(v)); n < cClasstribWidth {
		v = strings.Repeat("0", cClasstribWidth-n) + v
	}
	return v
}

// ParseStatusFilter maps a query value onto a StatusFilter, defaulting to ALL
func ParseStatusFilter(raw string) (models.StatusFilter, bool) {
	switch f := models.StatusFilter(strings.ToUpper(strings.TrimSpace(raw))); f {
	case "", models.StatusFilterAll:
		return models.StatusFilterAll, true
	case models.StatusFilterOK, models.StatusFilterMissing, models.StatusFilterUnresolvedSecondary:
		return f, true
	default:
		return models.StatusFilterAll, false
	}
}

// ReportFilter is the display filter applied before grouping. Both parts apply together.
type ReportFilter struct {
	Status models.StatusFilter
	Query  string
}

// FilterItems returns the items matching the status bucket and the free-text query.
// unresolvedCFOPs is the cfops_na set computed by the summary pass.
func FilterItems(items []models.ConsolidatedItem, filter ReportFilter, unresolvedCFOPs []string) []models.ConsolidatedItem {
	unresolved := make(map[string]bool, len(unresolvedCFOPs))
	for _, c := range unresolvedCFOPs {
		unresolved[c] = true
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]models.ConsolidatedItem, 0, len(items))
	for _, item := range items {
		if !matchesStatus(item, filter.Status, unresolved) {
			continue
		}
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesStatus(item models.ConsolidatedItem, status models.StatusFilter, unresolved map[string]bool) bool {
	switch status {
	case models.StatusFilterOK:
		return FormatCClasstrib(item.CClasstribSugerido) != NotFoundLabel
	case models.StatusFilterMissing:
		return FormatCClasstrib(item.CClasstribSugerido) == NotFoundLabel
	case models.StatusFilterUnresolvedSecondary:
		return unresolved[item.CFOP]
	default:
		return true
	}
}

func matchesQuery(item models.ConsolidatedItem, query string) bool {
	for _, candidate := range []string{item.NCM, item.CFOP, item.Descricao, item.NomeProduto} {
		if strings.Contains(strings.ToLower(candidate), query) {
			return true
		}
	}
	return false
}

// GroupByNCM groups items by NCM and, inside each group, merges entries sharing
// CFOP and formatted cClasstrib. Merged entries sum qtd_registros and keep the first
// non-empty suggestion. Groups and their entries are sorted by code.
func GroupByNCM(items []models.ConsolidatedItem) []models.NCMGroup {
	type bucket struct {
		group *models.NCMGroup
		index map[string]int
	}

	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, item := range items {
		b, ok := buckets[item.NCM]
		if !ok {
			b = &bucket{
				group: &models.NCMGroup{NCM: item.NCM, Descricao: item.Descricao},
				index: make(map[string]int),
			}
			buckets[item.NCM] = b
			order = append(order, item.NCM)
		}

		key := item.CFOP + "||" + FormatCClasstrib(item.CClasstribSugerido)
		pos, exists := b.index[key]
		if !exists {
			b.index[key] = len(b.group.CFOPs)
			b.group.CFOPs = append(b.group.CFOPs, copyItem(item))
			continue
		}

		merged := &b.group.CFOPs[pos]
		merged.QtdRegistros += item.QtdRegistros
		if isBlank(merged.CClasstribSugerido) && !isBlank(item.CClasstribSugerido) {
			v := *item.CClasstribSugerido
			merged.CClasstribSugerido = &v
		}
	}

	groups := make([]models.NCMGroup, 0, len(order))
	for _, ncm := range order {
		g := *buckets[ncm].group
		sort.SliceStable(g.CFOPs, func(i, j int) bool {
			return g.CFOPs[i].CFOP < g.CFOPs[j].CFOP
		})
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].NCM < groups[j].NCM
	})
	return groups
}

// Paginate slices groups into fixed pages. page is 1-based and clamped into range.
func Paginate(groups []models.NCMGroup, page int) ([]models.NCMGroup, int, int) {
	totalPages := (len(groups) + GroupsPerPage - 1) / GroupsPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * GroupsPerPage
	end := start + GroupsPerPage
	if start > len(groups) {
		start = len(groups)
	}
	if end > len(groups) {
		end = len(groups)
	}
	return groups[start:end], page, totalPages
}

// BuildGroupedPage filters, groups and paginates a stored report
func BuildGroupedPage(report *models.Report, filter ReportFilter, page int) *models.GroupedPage {
	filtered := FilterItems(report.TabelaConsolidada, filter, report.CFOPsNA)
	groups := GroupByNCM(filtered)
	pageGroups, current, totalPages := Paginate(groups, page)

	return &models.GroupedPage{
		Groups:      pageGroups,
		Page:        current,
		PageSize:    GroupsPerPage,
		TotalGroups: len(groups),
		TotalPages:  totalPages,
		Resumo:      report.Resumo,
	}
}

func copyItem(item models.ConsolidatedItem) models.ConsolidatedItem {
	if item.CClasstribSugerido != nil {
		v := *item.CClasstribSugerido
		item.CClasstribSugerido = &v
	}
	return item
}

func isBlank(v *string) bool {
	return v == nil || *v == ""
}
