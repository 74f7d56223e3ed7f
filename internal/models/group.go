package models

// StatusFilter selects which items take part in the grouped report
type StatusFilter string

const (
	StatusFilterAll                 StatusFilter = "ALL"
	StatusFilterOK                  StatusFilter = "OK"
	StatusFilterMissing             StatusFilter = "MISSING"
	StatusFilterUnresolvedSecondary StatusFilter = "UNRESOLVED_SECONDARY"
)

// NCMGroup is one primary-code group of the drill-down report
type NCMGroup struct {
	NCM       string             `json:"ncm"`
	Descricao string             `json:"descricao"`
	CFOPs     []ConsolidatedItem `json:"cfops"`
}

// GroupedPage is one page of grouped results
type GroupedPage struct {
	Groups      []NCMGroup `json:"groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalGroups int        `json:"total_groups"`
	TotalPages  int        `json:"total_pages"`
	Resumo      Summary    `json:"resumo"`
}
