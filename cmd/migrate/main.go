// Command migrate applies or rolls back the embedded schema migrations using
// the same DB_* environment as the API.
package main

import (
	"flag"
	"os"

	"github.com/logiflow/dispatch-backend/config"
	"github.com/logiflow/dispatch-backend/db"
	"github.com/logiflow/dispatch-backend/logger"
)

func main() {
	down := flag.Int("down", 0, "Roll back this many migrations instead of applying")
	flag.Parse()

	logger.InitLogger()
	log := logger.GetLogger()
	defer func() { _ = logger.Close() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Errorw("Failed to load config", "error", err)
		os.Exit(1)
	}

	if *down > 0 {
		if err := db.RollbackMigrations(cfg.Database.URL(), *down); err != nil {
			log.Errorw("Rollback failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		log.Errorw("Migration failed", "error", err)
		os.Exit(1)
	}
}
