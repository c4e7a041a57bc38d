package plaid

import (
	"context"
	"log"
	"strconv"

	"finlink-server/src/errs"

	"github.com/plaid/plaid-go/v41/plaid"
)

func NewPlaidClient(clientID, secret, env string) *plaid.APIClient {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		log.Fatalf("Invalid Plaid environment: %s", env)
	}

	return plaid.NewAPIClient(configuration)
}

// Aggregator wraps the vendor client behind the handful of calls the rest
// of the server makes. Each call is one best-effort request; failures come
// back kinded and are never retried here.
type Aggregator struct {
	client  *plaid.APIClient
	appName string
}

func NewAggregator(client *plaid.APIClient, appName string) *Aggregator {
	return &Aggregator{client: client, appName: appName}
}

func (a *Aggregator) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: strconv.FormatInt(userID, 10),
	}
	request := plaid.NewLinkTokenCreateRequest(
		a.appName,
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
	)
	request.SetUser(user)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_AUTH})

	resp, _, err := a.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", errs.E(errs.KindExchange, "plaid.CreateLinkToken", err)
	}
	return resp.GetLinkToken(), nil
}

func (a *Aggregator) ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := a.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", "", errs.E(errs.KindExchange, "plaid.ExchangePublicToken", err)
	}
	return resp.GetAccessToken(), resp.GetItemId(), nil
}

func (a *Aggregator) GetAccounts(ctx context.Context, accessToken string) ([]plaid.AccountBase, error) {
	request := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := a.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, errs.E(errs.KindExchange, "plaid.GetAccounts", err)
	}
	return resp.GetAccounts(), nil
}

func (a *Aggregator) CreateProcessorToken(ctx context.Context, accessToken, accountID string) (string, error) {
	request := plaid.NewProcessorTokenCreateRequest(accessToken, accountID, "dwolla")
	resp, _, err := a.client.PlaidApi.ProcessorTokenCreate(ctx).ProcessorTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", errs.E(errs.KindProcessorToken, "plaid.CreateProcessorToken", err)
	}
	return resp.GetProcessorToken(), nil
}

func (a *Aggregator) SyncTransactions(ctx context.Context, accessToken, cursor string) (*plaid.TransactionsSyncResponse, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}
	resp, _, err := a.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return nil, errs.E(errs.KindExchange, "plaid.SyncTransactions", err)
	}
	return &resp, nil
}
