package db

import (
	"context"

	"finlink-server/src/errs"
	"finlink-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"
)

func SaveTransactions(ctx context.Context, pool *pgxpool.Pool, linkID int64, transactions []plaid.Transaction) error {
	for _, txn := range transactions {
		query := `
			INSERT INTO transactions (link_id, transaction_id, amount, name, date, category, pending)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (transaction_id) DO NOTHING
		`

		pfc := txn.GetPersonalFinanceCategory()
		_, err := pool.Exec(ctx, query,
			linkID,
			txn.GetTransactionId(),
			txn.GetAmount(),
			txn.GetName(),
			txn.GetDate(),
			pfc.GetPrimary(),
			txn.GetPending(),
		)
		if err != nil {
			return errs.E(errs.KindPersistence, "db.SaveTransactions", err)
		}
	}

	return nil
}

func GetTransactionsForLink(ctx context.Context, pool *pgxpool.Pool, userID int64, shareableID string) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.link_id, t.transaction_id, t.name, t.amount, t.date::text, t.category, t.pending, t.created_at::text
		FROM transactions t
		JOIN bank_links b ON t.link_id = b.id
		WHERE b.user_id = $1 AND b.shareable_id = $2
		ORDER BY t.date DESC, t.id DESC
	`

	rows, err := pool.Query(ctx, query, userID, shareableID)
	if err != nil {
		return nil, errs.E(errs.KindPersistence, "db.GetTransactionsForLink", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var transaction models.Transaction
		err := rows.Scan(
			&transaction.ID,
			&transaction.LinkID,
			&transaction.TransactionID,
			&transaction.Name,
			&transaction.Amount,
			&transaction.Date,
			&transaction.Category,
			&transaction.Pending,
			&transaction.CreatedAt,
		)
		if err != nil {
			return nil, errs.E(errs.KindPersistence, "db.GetTransactionsForLink", err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.E(errs.KindPersistence, "db.GetTransactionsForLink", err)
	}
	return transactions, nil
}
