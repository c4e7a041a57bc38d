package db

import (
	"context"

	"finlink-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LinkStore adapts the pool to the linking workflow's persistence seam so
// the workflow can be exercised against a fake in tests.
type LinkStore struct {
	Pool *pgxpool.Pool
}

func (s LinkStore) SaveBankLink(ctx context.Context, link *models.BankLink) (int64, error) {
	return SaveBankLink(ctx, s.Pool, link)
}
