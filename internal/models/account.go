package models

import "time"

// User is an application account
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Company owns upload batches
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	CNPJ      string    `json:"cnpj"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is what the auth layer attaches to a request
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// NBSEntry is one row of the NBS reference table
type NBSEntry struct {
	ID              int64   `json:"id"`
	NBSCode         string  `json:"nbs_code"`
	DescricaoNBS    *string `json:"descricao_nbs"`
	ItemLC116       *string `json:"item_lc_116"`
	DescricaoItem   *string `json:"descricao_item"`
	PSOnerosa       *string `json:"ps_onerosa"`
	AdqExterior     *string `json:"adq_exterior"`
	Indop           *string `json:"indop"`
	LocalIncidencia *string `json:"local_incidencia"`
	CClassTrib      *string `json:"c_class_trib"`
	NomeCClassTrib  *string `json:"nome_c_class_trib"`
}
