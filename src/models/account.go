package models

import "github.com/shopspring/decimal"

// Account is the read-side view of a linked account, served from the
// aggregation service and cached per user.
type Account struct {
	ShareableID      string          `json:"shareable_id"`
	Name             string          `json:"name"`
	OfficialName     string          `json:"official_name"`
	Mask             string          `json:"mask"`
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype"`
	CurrencyCode     string          `json:"currency_code"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}
