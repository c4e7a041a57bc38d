// Package link implements the bank-account linking sequence: public-token
// exchange, account selection, processor token, funding source, persist.
// Strictly sequential, no retries; the first failure aborts the run and
// nothing is persisted until the funding source exists.
package link

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"finlink-server/src/errs"
	"finlink-server/src/logger"
	"finlink-server/src/models"

	"github.com/plaid/plaid-go/v41/plaid"
)

type Aggregator interface {
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
	GetAccounts(ctx context.Context, accessToken string) ([]plaid.AccountBase, error)
	CreateProcessorToken(ctx context.Context, accessToken, accountID string) (string, error)
}

type PaymentRail interface {
	CreateFundingSource(ctx context.Context, customerURL, processorToken, name string) (string, error)
	RemoveFundingSource(ctx context.Context, fundingSourceURL string) error
}

type Store interface {
	SaveBankLink(ctx context.Context, link *models.BankLink) (int64, error)
}

// Invalidator drops a user's cached account views after a new link lands.
type Invalidator func(userID int64)

type Workflow struct {
	agg        Aggregator
	rail       PaymentRail
	store      Store
	invalidate Invalidator
}

func NewWorkflow(agg Aggregator, rail PaymentRail, store Store, invalidate Invalidator) *Workflow {
	return &Workflow{agg: agg, rail: rail, store: store, invalidate: invalidate}
}

type Result struct {
	Status      string `json:"status"`
	ShareableID string `json:"shareable_id"`
}

// LinkBankAccount runs the full linking sequence for one user. accountID
// narrows the selection when the caller knows which account to link;
// otherwise the first account is used.
func (w *Workflow) LinkBankAccount(ctx context.Context, user *models.User, publicToken, accountID string) (*Result, error) {
	accessToken, itemID, err := w.agg.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		logger.S.Errorf("Public token exchange failed for user %d: %v", user.ID, err)
		return nil, err
	}

	accounts, err := w.agg.GetAccounts(ctx, accessToken)
	if err != nil {
		logger.S.Errorf("Account fetch failed for user %d, item %s: %v", user.ID, itemID, err)
		return nil, err
	}
	account, err := selectAccount(accounts, accountID)
	if err != nil {
		logger.S.Errorf("No linkable account for user %d, item %s: %v", user.ID, itemID, err)
		return nil, err
	}

	processorToken, err := w.agg.CreateProcessorToken(ctx, accessToken, account.GetAccountId())
	if err != nil {
		logger.S.Errorf("Processor token creation failed for user %d, item %s: %v", user.ID, itemID, err)
		return nil, err
	}

	fundingSourceURL, err := w.rail.CreateFundingSource(ctx, user.DwollaCustomerURL, processorToken, account.GetName())
	if err != nil {
		logger.S.Errorf("Funding source creation failed for user %d, item %s: %v", user.ID, itemID, err)
		return nil, err
	}

	bankLink := &models.BankLink{
		UserID:           user.ID,
		ItemID:           itemID,
		AccountID:        account.GetAccountId(),
		AccessToken:      accessToken,
		FundingSourceURL: fundingSourceURL,
		ShareableID:      ShareableAccountID(account.GetAccountId()),
		AccountName:      account.GetName(),
	}
	if _, err := w.store.SaveBankLink(ctx, bankLink); err != nil {
		logger.S.Errorf("Bank link persistence failed for user %d, item %s: %v", user.ID, itemID, err)
		// Compensate: the funding source exists but nothing references it.
		if removeErr := w.rail.RemoveFundingSource(ctx, fundingSourceURL); removeErr != nil {
			logger.S.Errorf("Compensating funding source removal failed for user %d: %v", user.ID, removeErr)
		}
		return nil, err
	}

	if w.invalidate != nil {
		w.invalidate(user.ID)
	}

	logger.S.Infof("Linked bank account for user %d, item %s", user.ID, itemID)
	return &Result{Status: "complete", ShareableID: bankLink.ShareableID}, nil
}

// selectAccount picks the requested account when present, falling back to
// the first one. The first-account fallback matches what the Link widget
// hands back for single-account institutions.
func selectAccount(accounts []plaid.AccountBase, accountID string) (*plaid.AccountBase, error) {
	if len(accounts) == 0 {
		return nil, errs.Errorf(errs.KindNoAccount, "link.selectAccount", "account list is empty")
	}
	if accountID != "" {
		for i := range accounts {
			if accounts[i].GetAccountId() == accountID {
				return &accounts[i], nil
			}
		}
		return nil, errs.Errorf(errs.KindNoAccount, "link.selectAccount", "account %s not present on item", accountID)
	}
	return &accounts[0], nil
}

// ShareableAccountID derives the external-safe identifier for an account:
// same input always yields the same id, and the original account id is
// not recoverable from it.
func ShareableAccountID(accountID string) string {
	sum := sha256.Sum256([]byte(accountID))
	return hex.EncodeToString(sum[:])[:16]
}
