package handlers

import (
	"encoding/json"
	"net/http"

	cache "finlink-server/src/db"
	db "finlink-server/src/db/sql"
	"finlink-server/src/errs"
	"finlink-server/src/link"
	"finlink-server/src/logger"
	"finlink-server/src/models"
	plaidsvc "finlink-server/src/plaid"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func CreateLinkToken(agg *plaidsvc.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		linkToken, err := agg.CreateLinkToken(r.Context(), userID)
		if err != nil {
			logger.S.Errorf("Link token creation failed for user %d: %v", userID, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"link_token": linkToken,
		})
	}
}

// ExchangePublicToken runs the full linking workflow: token exchange,
// account selection, processor token, funding source, persisted link.
func ExchangePublicToken(workflow *link.Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value("user").(*models.User)

		var req models.ExchangeTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.S.Errorf("Failed to decode exchange public token request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "public_token is required", http.StatusBadRequest)
			return
		}

		result, err := workflow.LinkBankAccount(r.Context(), user, req.PublicToken, req.AccountID)
		if err != nil {
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(result)
	}
}

func GetBanks(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		links, err := db.GetBankLinksForUser(r.Context(), pool, userID)
		if err != nil {
			logger.S.Errorf("Failed to get bank links for user %d: %v", userID, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(links)
	}
}

// GetAccounts serves the balance view for every linked account, cached per
// user until the next linking run or sync invalidates it.
func GetAccounts(agg *plaidsvc.Aggregator, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		cacheKey := cache.AccountViewKey(userID)
		if cached, found := cache.GetUserView(cacheKey); found {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached)
			return
		}

		links, err := db.GetBankLinksForUser(r.Context(), pool, userID)
		if err != nil {
			logger.S.Errorf("Failed to get bank links for user %d: %v", userID, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		accounts := []models.Account{}
		for _, bankLink := range links {
			fetched, err := agg.GetAccounts(r.Context(), bankLink.AccessToken)
			if err != nil {
				logger.S.Errorf("Failed to fetch accounts for user %d, item %s: %v", userID, bankLink.ItemID, err)
				http.Error(w, errs.Message(err), errs.HTTPStatus(err))
				return
			}
			for _, acc := range fetched {
				if acc.GetAccountId() != bankLink.AccountID {
					continue
				}
				balances := acc.GetBalances()
				accounts = append(accounts, models.Account{
					ShareableID:      bankLink.ShareableID,
					Name:             acc.GetName(),
					OfficialName:     acc.GetOfficialName(),
					Mask:             acc.GetMask(),
					Type:             string(acc.GetType()),
					Subtype:          string(acc.GetSubtype()),
					CurrencyCode:     balances.GetIsoCurrencyCode(),
					CurrentBalance:   decimal.NewFromFloat(balances.GetCurrent()),
					AvailableBalance: decimal.NewFromFloat(balances.GetAvailable()),
				})
			}
		}

		cache.SetUserView(userID, cacheKey, accounts)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(accounts)
	}
}

func GetTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		shareableID := chi.URLParam(r, "shareable_id")

		cacheKey := cache.TransactionViewKey(userID, shareableID)
		if cached, found := cache.GetUserView(cacheKey); found {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached)
			return
		}

		if _, err := db.GetBankLinkByShareableID(r.Context(), pool, userID, shareableID); err != nil {
			logger.S.Errorf("Unknown bank link %s for user %d: %v", shareableID, userID, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		transactions, err := db.GetTransactionsForLink(r.Context(), pool, userID, shareableID)
		if err != nil {
			logger.S.Errorf("Failed to get transactions for user %d, account %s: %v", userID, shareableID, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}
		if transactions == nil {
			transactions = []models.Transaction{}
		}

		cache.SetUserView(userID, cacheKey, transactions)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(transactions)
	}
}

// SyncTransactions pulls new transactions for every one of the user's
// bank links using the stored cursor, then drops the cached views.
func SyncTransactions(agg *plaidsvc.Aggregator, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		links, err := db.GetBankLinksForUser(r.Context(), pool, userID)
		if err != nil {
			logger.S.Errorf("Failed to get bank links for user %d: %v", userID, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		synced := 0
		for _, bankLink := range links {
			resp, err := agg.SyncTransactions(r.Context(), bankLink.AccessToken, bankLink.SyncCursor)
			if err != nil {
				logger.S.Errorf("Failed to sync transactions for user %d, item %s: %v", userID, bankLink.ItemID, err)
				http.Error(w, errs.Message(err), errs.HTTPStatus(err))
				return
			}
			if err := db.SaveTransactions(r.Context(), pool, bankLink.ID, resp.GetAdded()); err != nil {
				logger.S.Errorf("Failed to save transactions for user %d, item %s: %v", userID, bankLink.ItemID, err)
				http.Error(w, errs.Message(err), errs.HTTPStatus(err))
				return
			}
			if err := db.UpdateSyncCursor(r.Context(), pool, bankLink.ID, resp.GetNextCursor()); err != nil {
				logger.S.Errorf("Failed to update sync cursor for item %s: %v", bankLink.ItemID, err)
				http.Error(w, errs.Message(err), errs.HTTPStatus(err))
				return
			}
			synced += len(resp.GetAdded())
		}

		cache.InvalidateUserViews(userID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"added": synced,
		})
	}
}
