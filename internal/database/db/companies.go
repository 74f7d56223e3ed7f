package db

import (
	"context"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/jackc/pgx/v5"
)

const createCompany = `
INSERT INTO companies (name, address, cnpj)
VALUES ($1, $2, $3)
RETURNING id, name, address, cnpj, created_at
`

type CreateCompanyParams struct {
	Name    string
	Address *string
	CNPJ    string
}

func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) (models.Company, error) {
	c, err := scanCompany(q.db.QueryRow(ctx, createCompany, arg.Name, arg.Address, arg.CNPJ))
	return c, mapError(err)
}

const getCompany = `
SELECT id, name, address, cnpj, created_at
FROM companies
WHERE id = $1
`

func (q *Queries) GetCompany(ctx context.Context, id int64) (models.Company, error) {
	c, err := scanCompany(q.db.QueryRow(ctx, getCompany, id))
	return c, mapError(err)
}

const listCompanies = `
SELECT id, name, address, cnpj, created_at
FROM companies
ORDER BY name
`

func (q *Queries) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return q.collectCompanies(ctx, listCompanies)
}

const listCompaniesForUser = `
SELECT c.id, c.name, c.address, c.cnpj, c.created_at
FROM companies c
JOIN user_companies uc ON uc.company_id = c.id
WHERE uc.user_id = $1
ORDER BY c.name
`

func (q *Queries) ListCompaniesForUser(ctx context.Context, userID int64) ([]models.Company, error) {
	return q.collectCompanies(ctx, listCompaniesForUser, userID)
}

// Upload batches go with the company through ON DELETE CASCADE
const deleteCompany = `DELETE FROM companies WHERE id = $1`

func (q *Queries) DeleteCompany(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, deleteCompany, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const addUserToCompany = `
INSERT INTO user_companies (user_id, company_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (q *Queries) AddUserToCompany(ctx context.Context, userID, companyID int64) error {
	_, err := q.db.Exec(ctx, addUserToCompany, userID, companyID)
	return mapError(err)
}

const removeUserFromCompany = `DELETE FROM user_companies WHERE user_id = $1 AND company_id = $2`

func (q *Queries) RemoveUserFromCompany(ctx context.Context, userID, companyID int64) error {
	tag, err := q.db.Exec(ctx, removeUserFromCompany, userID, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const listCompanyUsers = `
SELECT u.id, u.username, u.password_hash, u.is_admin, u.created_at
FROM users u
JOIN user_companies uc ON uc.user_id = u.id
WHERE uc.company_id = $1
ORDER BY u.username
`

func (q *Queries) ListCompanyUsers(ctx context.Context, companyID int64) ([]models.User, error) {
	rows, err := q.db.Query(ctx, listCompanyUsers, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const userHasCompany = `
SELECT EXISTS (
    SELECT 1 FROM user_companies WHERE user_id = $1 AND company_id = $2
)
`

func (q *Queries) UserHasCompany(ctx context.Context, userID, companyID int64) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, userHasCompany, userID, companyID).Scan(&ok)
	return ok, err
}

func (q *Queries) collectCompanies(ctx context.Context, sql string, args ...interface{}) ([]models.Company, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func scanCompany(row pgx.Row) (models.Company, error) {
	var c models.Company
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.CNPJ, &c.CreatedAt)
	return c, err
}
