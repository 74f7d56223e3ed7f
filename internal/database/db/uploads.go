package db

import (
	"context"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/jackc/pgx/v5"
)

var uploadItemColumns = []string{
	"company_id", "ncm", "cfop", "cclasstrib_sugerido", "qtd_registros",
	"status", "descricao", "nome_produto", "created_at",
}

// InsertUploadItems copies one upload batch. All rows share createdAt, which
// is what identifies the batch later.
func (q *Queries) InsertUploadItems(ctx context.Context, companyID int64, items []models.ConsolidatedItem, createdAt time.Time) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	// Postgres stores microseconds
	createdAt = createdAt.UTC().Truncate(time.Microsecond)

	n, err := q.db.CopyFrom(ctx,
		pgx.Identifier{"upload_items"},
		uploadItemColumns,
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			it := items[i]
			return []any{
				companyID, it.NCM, it.CFOP, it.CClasstribSugerido, it.QtdRegistros,
				it.Status, it.Descricao, it.NomeProduto, createdAt,
			}, nil
		}),
	)
	return n, mapError(err)
}

const getLatestBatchTime = `
SELECT MAX(created_at) FROM upload_items WHERE company_id = $1
`

// GetLatestBatchTime returns the created_at that identifies the company's newest batch.
// ok is false when the company has never uploaded.
func (q *Queries) GetLatestBatchTime(ctx context.Context, companyID int64) (time.Time, bool, error) {
	var latest *time.Time
	if err := q.db.QueryRow(ctx, getLatestBatchTime, companyID).Scan(&latest); err != nil {
		return time.Time{}, false, mapError(err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return latest.UTC(), true, nil
}

const getUploadItemsAt = `
SELECT ncm, cfop, cclasstrib_sugerido, qtd_registros, status, descricao, nome_produto
FROM upload_items
WHERE company_id = $1 AND created_at = $2
ORDER BY id
`

// GetUploadItemsAt returns the rows of one batch in insertion order
func (q *Queries) GetUploadItemsAt(ctx context.Context, companyID int64, createdAt time.Time) ([]models.ConsolidatedItem, error) {
	rows, err := q.db.Query(ctx, getUploadItemsAt, companyID, createdAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.ConsolidatedItem{}
	for rows.Next() {
		var it models.ConsolidatedItem
		if err := rows.Scan(
			&it.NCM,
			&it.CFOP,
			&it.CClasstribSugerido,
			&it.QtdRegistros,
			&it.Status,
			&it.Descricao,
			&it.NomeProduto,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
