package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/remedesfr/remedes-api/allergy"
	"github.com/remedesfr/remedes-api/config"
	"github.com/remedesfr/remedes-api/data"
	"github.com/remedesfr/remedes-api/health"
	"github.com/remedesfr/remedes-api/history"
	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/remediesparser"
	"github.com/remedesfr/remedes-api/scheduler"
	"github.com/remedesfr/remedes-api/server"
	"github.com/remedesfr/remedes-api/storage"
)

// openStorage selects the persistence backend from configuration.
func openStorage(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.StorageSQLite {
		return storage.NewSQLiteStore(cfg.StateDir + "/state.db")
	}
	return storage.NewFileStore(cfg.StateDir)
}

func main() {
	// A missing .env is fine; plain environment variables still apply
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogDir, cfg.LogLevelValue(), cfg.LogRetentionWeeks)

	store, err := openStorage(cfg)
	if err != nil {
		logging.Error("Failed to open state storage", "error", err)
		os.Exit(1)
	}

	codec := storage.NewCodec(cfg.SigningKey)
	dataContainer := data.NewDataContainer()
	engine := matching.NewEngine(cfg.MatchCacheSize)
	filter := allergy.NewFilterService(store, codec)
	searches := history.NewStore(store, codec)

	parser := remediesparser.NewParser(cfg.DataDir)
	sched := scheduler.NewScheduler(dataContainer, parser, cfg.DataDir)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start dataset scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, server.Dependencies{
		DataStore: dataContainer,
		Engine:    engine,
		Filter:    filter,
		Searches:  searches,
		Health:    health.NewHealthChecker(dataContainer),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logging.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
