package models

import "github.com/shopspring/decimal"

type Transaction struct {
	ID            int64           `json:"id"`
	LinkID        int64           `json:"-"`
	TransactionID string          `json:"transaction_id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Category      string          `json:"category"`
	Pending       bool            `json:"pending"`
	CreatedAt     string          `json:"created_at"`
}
