package api

import (
	"context"
	"net/http"

	"finlink-server/src/config"
	db "finlink-server/src/db/sql"
	"finlink-server/src/dwolla"
	"finlink-server/src/handlers"
	"finlink-server/src/link"
	"finlink-server/src/middleware"
	"finlink-server/src/models"
	plaidsvc "finlink-server/src/plaid"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config, pool *pgxpool.Pool, agg *plaidsvc.Aggregator, rail *dwolla.Client, workflow *link.Workflow) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.MetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	resolveSession := func(ctx context.Context, secretDigest string) (*models.User, error) {
		return db.GetSessionUser(ctx, pool, secretDigest)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/sign-up", handlers.SignUp(cfg, rail, pool))
		r.Post("/sign-in", handlers.SignIn(cfg, pool))
		r.Post("/sign-out", handlers.SignOut(cfg, pool))

		// Protected routes
		r.With(middleware.SessionAuthMiddleware(resolveSession)).Group(func(r chi.Router) {
			// User
			r.Get("/me", handlers.GetCurrentUser())
			r.Delete("/user", handlers.DeleteUser(cfg, pool))

			// Bank linking
			r.Post("/plaid/create-link-token", handlers.CreateLinkToken(agg))
			r.Post("/plaid/exchange-public-token", handlers.ExchangePublicToken(workflow))
			r.Get("/banks", handlers.GetBanks(pool))

			// Balances and transactions
			r.Get("/accounts", handlers.GetAccounts(agg, pool))
			r.Get("/transactions/{shareable_id}", handlers.GetTransactions(pool))
			r.Post("/transactions/sync", handlers.SyncTransactions(agg, pool))
		})
	})

	return r
}
