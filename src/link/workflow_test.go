package link

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finlink-server/src/errs"
	"finlink-server/src/logger"
	"finlink-server/src/models"

	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init("dev")
	m.Run()
}

type fakeAggregator struct {
	exchangeFunc  func(ctx context.Context, publicToken string) (string, string, error)
	accountsFunc  func(ctx context.Context, accessToken string) ([]plaid.AccountBase, error)
	processorFunc func(ctx context.Context, accessToken, accountID string) (string, error)

	accountsCalls  int
	processorCalls int
}

func (f *fakeAggregator) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	return f.exchangeFunc(ctx, publicToken)
}

func (f *fakeAggregator) GetAccounts(ctx context.Context, accessToken string) ([]plaid.AccountBase, error) {
	f.accountsCalls++
	return f.accountsFunc(ctx, accessToken)
}

func (f *fakeAggregator) CreateProcessorToken(ctx context.Context, accessToken, accountID string) (string, error) {
	f.processorCalls++
	return f.processorFunc(ctx, accessToken, accountID)
}

type fakeRail struct {
	createFunc func(ctx context.Context, customerURL, processorToken, name string) (string, error)

	createCalls  int
	removedURLs  []string
	removeResult error
}

func (f *fakeRail) CreateFundingSource(ctx context.Context, customerURL, processorToken, name string) (string, error) {
	f.createCalls++
	return f.createFunc(ctx, customerURL, processorToken, name)
}

func (f *fakeRail) RemoveFundingSource(ctx context.Context, fundingSourceURL string) error {
	f.removedURLs = append(f.removedURLs, fundingSourceURL)
	return f.removeResult
}

type fakeStore struct {
	saveFunc func(ctx context.Context, link *models.BankLink) (int64, error)

	saved []*models.BankLink
}

func (f *fakeStore) SaveBankLink(ctx context.Context, link *models.BankLink) (int64, error) {
	f.saved = append(f.saved, link)
	if f.saveFunc != nil {
		return f.saveFunc(ctx, link)
	}
	return 1, nil
}

func testUser() *models.User {
	return &models.User{
		ID:                7,
		Email:             "jane@example.com",
		DwollaCustomerURL: "https://rail/customers/cust-1",
	}
}

func happyAggregator() *fakeAggregator {
	return &fakeAggregator{
		exchangeFunc: func(ctx context.Context, publicToken string) (string, string, error) {
			if publicToken != "public-sandbox-123" {
				return "", "", errs.Errorf(errs.KindExchange, "plaid.ExchangePublicToken", "unknown token")
			}
			return "access-abc", "item-1", nil
		},
		accountsFunc: func(ctx context.Context, accessToken string) ([]plaid.AccountBase, error) {
			return []plaid.AccountBase{{AccountId: "acc-1", Name: "Checking"}}, nil
		},
		processorFunc: func(ctx context.Context, accessToken, accountID string) (string, error) {
			return "proc-xyz", nil
		},
	}
}

func TestLinkBankAccountSuccess(t *testing.T) {
	agg := happyAggregator()
	rail := &fakeRail{
		createFunc: func(ctx context.Context, customerURL, processorToken, name string) (string, error) {
			assert.Equal(t, "https://rail/customers/cust-1", customerURL)
			assert.Equal(t, "proc-xyz", processorToken)
			assert.Equal(t, "Checking", name)
			return "https://rail/funding/1", nil
		},
	}
	store := &fakeStore{}
	var invalidated []int64
	workflow := NewWorkflow(agg, rail, store, func(userID int64) {
		invalidated = append(invalidated, userID)
	})

	result, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-sandbox-123", "")
	require.NoError(t, err)

	assert.Equal(t, "complete", result.Status)
	assert.Equal(t, ShareableAccountID("acc-1"), result.ShareableID)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, int64(7), saved.UserID)
	assert.Equal(t, "item-1", saved.ItemID)
	assert.Equal(t, "acc-1", saved.AccountID)
	assert.Equal(t, "access-abc", saved.AccessToken)
	assert.Equal(t, "https://rail/funding/1", saved.FundingSourceURL)
	assert.Equal(t, "Checking", saved.AccountName)

	assert.Equal(t, []int64{7}, invalidated)
	assert.Empty(t, rail.removedURLs)
}

func TestLinkBankAccountExchangeFailureAbortsEarly(t *testing.T) {
	agg := happyAggregator()
	rail := &fakeRail{}
	store := &fakeStore{}
	workflow := NewWorkflow(agg, rail, store, nil)

	_, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-expired", "")
	require.Error(t, err)

	assert.Equal(t, errs.KindExchange, errs.KindOf(err))
	assert.Zero(t, agg.accountsCalls)
	assert.Zero(t, rail.createCalls)
	assert.Empty(t, store.saved)
}

func TestLinkBankAccountEmptyAccountListSkipsPaymentRail(t *testing.T) {
	agg := happyAggregator()
	agg.accountsFunc = func(ctx context.Context, accessToken string) ([]plaid.AccountBase, error) {
		return nil, nil
	}
	rail := &fakeRail{}
	store := &fakeStore{}
	workflow := NewWorkflow(agg, rail, store, nil)

	_, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-sandbox-123", "")
	require.Error(t, err)

	assert.Equal(t, errs.KindNoAccount, errs.KindOf(err))
	assert.Zero(t, agg.processorCalls)
	assert.Zero(t, rail.createCalls)
	assert.Empty(t, store.saved)
}

func TestLinkBankAccountSelectsRequestedAccount(t *testing.T) {
	agg := happyAggregator()
	agg.accountsFunc = func(ctx context.Context, accessToken string) ([]plaid.AccountBase, error) {
		return []plaid.AccountBase{
			{AccountId: "acc-1", Name: "Checking"},
			{AccountId: "acc-2", Name: "Savings"},
		}, nil
	}
	rail := &fakeRail{
		createFunc: func(ctx context.Context, customerURL, processorToken, name string) (string, error) {
			assert.Equal(t, "Savings", name)
			return "https://rail/funding/2", nil
		},
	}
	store := &fakeStore{}
	workflow := NewWorkflow(agg, rail, store, nil)

	result, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-sandbox-123", "acc-2")
	require.NoError(t, err)

	assert.Equal(t, ShareableAccountID("acc-2"), result.ShareableID)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "acc-2", store.saved[0].AccountID)
}

func TestLinkBankAccountRequestedAccountNotOnItem(t *testing.T) {
	agg := happyAggregator()
	rail := &fakeRail{}
	workflow := NewWorkflow(agg, rail, &fakeStore{}, nil)

	_, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-sandbox-123", "acc-missing")
	require.Error(t, err)

	assert.Equal(t, errs.KindNoAccount, errs.KindOf(err))
	assert.Zero(t, rail.createCalls)
}

func TestLinkBankAccountProcessorTokenFailureSkipsPaymentRail(t *testing.T) {
	agg := happyAggregator()
	agg.processorFunc = func(ctx context.Context, accessToken, accountID string) (string, error) {
		return "", errs.Errorf(errs.KindProcessorToken, "plaid.CreateProcessorToken", "rejected")
	}
	rail := &fakeRail{}
	store := &fakeStore{}
	workflow := NewWorkflow(agg, rail, store, nil)

	_, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-sandbox-123", "")
	require.Error(t, err)

	assert.Equal(t, errs.KindProcessorToken, errs.KindOf(err))
	assert.Zero(t, rail.createCalls)
	assert.Empty(t, store.saved)
}

func TestLinkBankAccountFundingSourceFailurePersistsNothing(t *testing.T) {
	agg := happyAggregator()
	rail := &fakeRail{
		createFunc: func(ctx context.Context, customerURL, processorToken, name string) (string, error) {
			return "", errs.Errorf(errs.KindFundingSource, "dwolla.CreateFundingSource", "no funding source location returned")
		},
	}
	store := &fakeStore{}
	workflow := NewWorkflow(agg, rail, store, nil)

	_, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-sandbox-123", "")
	require.Error(t, err)

	assert.Equal(t, errs.KindFundingSource, errs.KindOf(err))
	assert.Empty(t, store.saved)
	assert.Empty(t, rail.removedURLs)
}

func TestLinkBankAccountPersistenceFailureCompensates(t *testing.T) {
	agg := happyAggregator()
	rail := &fakeRail{
		createFunc: func(ctx context.Context, customerURL, processorToken, name string) (string, error) {
			return "https://rail/funding/1", nil
		},
	}
	store := &fakeStore{
		saveFunc: func(ctx context.Context, link *models.BankLink) (int64, error) {
			return 0, errs.E(errs.KindPersistence, "db.SaveBankLink", errors.New("write failed"))
		},
	}
	invalidated := false
	workflow := NewWorkflow(agg, rail, store, func(int64) { invalidated = true })

	_, err := workflow.LinkBankAccount(context.Background(), testUser(), "public-sandbox-123", "")
	require.Error(t, err)

	assert.Equal(t, errs.KindPersistence, errs.KindOf(err))
	assert.Equal(t, []string{"https://rail/funding/1"}, rail.removedURLs)
	assert.False(t, invalidated)
}

func TestShareableAccountID(t *testing.T) {
	first := ShareableAccountID("acc-1")
	second := ShareableAccountID("acc-1")
	other := ShareableAccountID("acc-2")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 16)
	assert.False(t, strings.Contains(first, "acc-1"))
}
