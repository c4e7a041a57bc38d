package db

import (
	"context"
	"errors"

	"finlink-server/src/errs"
	"finlink-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, first_name, last_name, address, city, state, postal_code,
	date_of_birth, identity_last4, password_hash, dwolla_customer_id, dwolla_customer_url, created_at::text`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Address,
		&user.City,
		&user.State,
		&user.PostalCode,
		&user.DateOfBirth,
		&user.IdentityLast4,
		&user.PasswordHash,
		&user.DwollaCustomerID,
		&user.DwollaCustomerURL,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.E(errs.KindNotFound, "db.scanUser", err)
		}
		return nil, errs.E(errs.KindPersistence, "db.scanUser", err)
	}
	return &user, nil
}

func CreateUser(ctx context.Context, pool *pgxpool.Pool, req models.SignUpRequest, hashedPassword, customerID, customerURL string) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, address, city, state,
			postal_code, date_of_birth, identity_last4, dwolla_customer_id, dwolla_customer_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + userColumns

	last4 := req.SSN
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}

	row := pool.QueryRow(ctx, query,
		req.Email,
		hashedPassword,
		req.FirstName,
		req.LastName,
		req.Address,
		req.City,
		req.State,
		req.PostalCode,
		req.DateOfBirth,
		last4,
		customerID,
		customerURL,
	)
	return scanUser(row)
}

func GetUserByEmail(ctx context.Context, pool *pgxpool.Pool, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(pool.QueryRow(ctx, query, email))
}

func GetUserByID(ctx context.Context, pool *pgxpool.Pool, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(pool.QueryRow(ctx, query, id))
}

func DeleteUser(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errs.E(errs.KindPersistence, "db.DeleteUser", err)
	}
	return nil
}
