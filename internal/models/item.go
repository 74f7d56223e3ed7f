package models

// ConsolidatedItem is one normalized NCM/CFOP row taken from an uploaded spreadsheet
type ConsolidatedItem struct {
	NCM                string  `json:"ncm"`
	CFOP               string  `json:"cfop"`
	CClasstribSugerido *string `json:"cClasstrib_sugerido"` // nil when the sheet had no suggestion
	QtdRegistros       int     `json:"qtd_registros"`
	Status             string  `json:"status"`
	Descricao          string  `json:"descricao"`
	NomeProduto        string  `json:"nome_produto"`
}

// MissingCase is an item whose source status was AUSENTE
type MissingCase struct {
	NCM          string `json:"ncm"`
	CFOP         string `json:"cfop"`
	QtdRegistros int    `json:"qtd_registros"`
	Descricao    string `json:"descricao"`
}

// Summary holds the counters derived from a consolidated table
type Summary struct {
	TotalCombinacoes int `json:"total_combinacoes"`
	TotalOK          int `json:"total_ok"`
	TotalAusente     int `json:"total_ausente"`
	TotalMultiplo    int `json:"total_multiplo"`
	TotalCFOPNA      int `json:"total_cfop_na"`
}

// CompanyMeta is the optional header block read from the "empresa" sheet
type CompanyMeta struct {
	Nome string `json:"nome"`
	CNPJ string `json:"cnpj"`
}

// Report is the payload returned by the ingestion and retrieval endpoints
type Report struct {
	TabelaConsolidada []ConsolidatedItem `json:"tabela_consolidada"`
	CasosAusentes     []MissingCase      `json:"casos_ausentes"`
	Resumo            Summary            `json:"resumo"`
	Empresa           *CompanyMeta       `json:"empresa,omitempty"`
	CFOPsNA           []string           `json:"cfops_na"`
}
