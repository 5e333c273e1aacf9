package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/inventory-service/internal/app/api"
	inventorymysql "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/persistence/mysql"
	"github.com/Apurer/inventory-service/internal/platform/migrations"
	platformmysql "github.com/Apurer/inventory-service/internal/platform/mysql"
	platformpostgres "github.com/Apurer/inventory-service/internal/platform/postgres"
)

// migrate creates the inventory schema on the configured database.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	switch cfg.Backend() {
	case "postgres":
		db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer platformpostgres.Close(db)
		if err := migrations.Run(db); err != nil {
			log.Fatalf("postgres migration failed: %v", err)
		}
	case "mysql":
		db, err := platformmysql.Connect(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("failed to connect to mysql: %v", err)
		}
		defer db.Close()
		if err := inventorymysql.NewBackend(db).EnsureSchema(ctx); err != nil {
			log.Fatalf("mysql migration failed: %v", err)
		}
	default:
		log.Fatal("POSTGRES_DSN or MYSQL_DSN must be set to migrate")
	}
	logger.Info("inventory schema migrated", slog.String("backend", cfg.Backend()))
}
