package models

// BankLink ties one linked bank account to its aggregation credential and
// payment-rail funding source. Written once per successful linking run;
// only the sync cursor changes afterwards. The raw account id and access
// token never leave the server, callers see the shareable id instead.
type BankLink struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id"`
	ItemID           string `json:"item_id"`
	AccountID        string `json:"-"`
	AccessToken      string `json:"-"`
	FundingSourceURL string `json:"-"`
	ShareableID      string `json:"shareable_id"`
	AccountName      string `json:"account_name"`
	SyncCursor       string `json:"-"`
	CreatedAt        string `json:"created_at"`
}
