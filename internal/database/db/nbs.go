package db

import (
	"context"
	"fmt"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/jackc/pgx/v5"
)

const nbsSearchClause = `
WHERE $1 = ''
   OR nbs_code ILIKE '%' || $1 || '%'
   OR descricao_nbs ILIKE '%' || $1 || '%'
   OR item_lc_116 ILIKE '%' || $1 || '%'
   OR descricao_item ILIKE '%' || $1 || '%'
`

const countNBS = `SELECT COUNT(*) FROM nbs` + nbsSearchClause

func (q *Queries) CountNBS(ctx context.Context, search string) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countNBS, search).Scan(&total)
	return total, err
}

const searchNBS = `
SELECT id, nbs_code, descricao_nbs, item_lc_116, descricao_item, ps_onerosa,
       adq_exterior, indop, local_incidencia, c_class_trib, nome_c_class_trib
FROM nbs` + nbsSearchClause + `
ORDER BY item_lc_116 ASC, nbs_code ASC
LIMIT $2 OFFSET $3
`

type SearchNBSParams struct {
	Query  string
	Limit  int32
	Offset int32
}

func (q *Queries) SearchNBS(ctx context.Context, arg SearchNBSParams) ([]models.NBSEntry, error) {
	rows, err := q.db.Query(ctx, searchNBS, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.NBSEntry{}
	for rows.Next() {
		var e models.NBSEntry
		if err := rows.Scan(
			&e.ID,
			&e.NBSCode,
			&e.DescricaoNBS,
			&e.ItemLC116,
			&e.DescricaoItem,
			&e.PSOnerosa,
			&e.AdqExterior,
			&e.Indop,
			&e.LocalIncidencia,
			&e.CClassTrib,
			&e.NomeCClassTrib,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

var nbsColumns = []string{
	"nbs_code", "descricao_nbs", "item_lc_116", "descricao_item", "ps_onerosa",
	"adq_exterior", "indop", "local_incidencia", "c_class_trib", "nome_c_class_trib",
}

// ReplaceNBS truncates the reference table and loads entries in one transaction
func (q *Queries) ReplaceNBS(ctx context.Context, entries []models.NBSEntry) (int64, error) {
	var inserted int64
	err := pgx.BeginFunc(ctx, q.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE TABLE nbs RESTART IDENTITY`); err != nil {
			return fmt.Errorf("truncate nbs: %w", err)
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{"nbs"}, nbsColumns,
			pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
				e := entries[i]
				return []any{
					e.NBSCode, e.DescricaoNBS, e.ItemLC116, e.DescricaoItem, e.PSOnerosa,
					e.AdqExterior, e.Indop, e.LocalIncidencia, e.CClassTrib, e.NomeCClassTrib,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy nbs: %w", err)
		}
		inserted = n
		return nil
	})
	return inserted, err
}
