package db

import (
	"context"
	"errors"

	"finlink-server/src/errs"
	"finlink-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bankLinkColumns = `id, user_id, item_id, account_id, access_token, funding_source_url,
	shareable_id, account_name, COALESCE(sync_cursor, ''), created_at::text`

func scanBankLink(row pgx.Row) (*models.BankLink, error) {
	var link models.BankLink
	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.ItemID,
		&link.AccountID,
		&link.AccessToken,
		&link.FundingSourceURL,
		&link.ShareableID,
		&link.AccountName,
		&link.SyncCursor,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.E(errs.KindNotFound, "db.scanBankLink", err)
		}
		return nil, errs.E(errs.KindPersistence, "db.scanBankLink", err)
	}
	return &link, nil
}

// SaveBankLink writes the record produced by a completed linking run.
// Unique on account_id: linking the same account twice is a conflict, not
// an upsert, because a link is never mutated after creation.
func SaveBankLink(ctx context.Context, pool *pgxpool.Pool, link *models.BankLink) (int64, error) {
	query := `
		INSERT INTO bank_links (user_id, item_id, account_id, access_token, funding_source_url,
			shareable_id, account_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := pool.QueryRow(ctx, query,
		link.UserID,
		link.ItemID,
		link.AccountID,
		link.AccessToken,
		link.FundingSourceURL,
		link.ShareableID,
		link.AccountName,
	).Scan(&id)
	if err != nil {
		return 0, errs.E(errs.KindPersistence, "db.SaveBankLink", err)
	}
	return id, nil
}

func GetBankLinksForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.BankLink, error) {
	query := `SELECT ` + bankLinkColumns + ` FROM bank_links WHERE user_id = $1 ORDER BY id`

	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, errs.E(errs.KindPersistence, "db.GetBankLinksForUser", err)
	}
	defer rows.Close()

	var links []models.BankLink
	for rows.Next() {
		link, err := scanBankLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.E(errs.KindPersistence, "db.GetBankLinksForUser", err)
	}
	return links, nil
}

func GetBankLinkByShareableID(ctx context.Context, pool *pgxpool.Pool, userID int64, shareableID string) (*models.BankLink, error) {
	query := `SELECT ` + bankLinkColumns + ` FROM bank_links WHERE user_id = $1 AND shareable_id = $2`
	return scanBankLink(pool.QueryRow(ctx, query, userID, shareableID))
}

// GetAllBankLinks feeds the background transaction refresh.
func GetAllBankLinks(ctx context.Context, pool *pgxpool.Pool) ([]models.BankLink, error) {
	query := `SELECT ` + bankLinkColumns + ` FROM bank_links ORDER BY id`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, errs.E(errs.KindPersistence, "db.GetAllBankLinks", err)
	}
	defer rows.Close()

	var links []models.BankLink
	for rows.Next() {
		link, err := scanBankLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.E(errs.KindPersistence, "db.GetAllBankLinks", err)
	}
	return links, nil
}

func UpdateSyncCursor(ctx context.Context, pool *pgxpool.Pool, linkID int64, cursor string) error {
	_, err := pool.Exec(ctx, `UPDATE bank_links SET sync_cursor = $1 WHERE id = $2`, cursor, linkID)
	if err != nil {
		return errs.E(errs.KindPersistence, "db.UpdateSyncCursor", err)
	}
	return nil
}
