package main

import (
	"log"
	"net/http"

	"finlink-server/src/api"
	"finlink-server/src/config"
	"finlink-server/src/db"
	sql "finlink-server/src/db/sql"
	"finlink-server/src/dwolla"
	"finlink-server/src/link"
	"finlink-server/src/logger"
	plaidsvc "finlink-server/src/plaid"
	"finlink-server/src/scheduler"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.Env)
	defer logger.L.Sync()

	// Connect to database
	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	db.InitCache()

	// Vendor clients
	plaidClient := plaidsvc.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	agg := plaidsvc.NewAggregator(plaidClient, cfg.AppName)
	rail := dwolla.NewClient(cfg.DwollaKey, cfg.DwollaSecret, cfg.DwollaEnv)

	workflow := link.NewWorkflow(agg, rail, sql.LinkStore{Pool: pool}, db.InvalidateUserViews)

	// Background jobs
	cronRunner, err := scheduler.Start(cfg, agg, pool)
	if err != nil {
		log.Fatalf("Scheduler failed to start: %v", err)
	}
	defer cronRunner.Stop()

	// Router
	router := api.NewRouter(cfg, pool, agg, rail, workflow)

	logger.S.Infof("API server running on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
