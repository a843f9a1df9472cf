package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/careloop/clinic-booking/internal/config"
	"github.com/careloop/clinic-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	migrator, err := db.NewMigrator(pool, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("migrator init: %v", err)
	}
	defer migrator.Close()

	switch cmd {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Println("migrations applied")
	case "status":
		if err := migrator.Status(ctx); err != nil {
			log.Fatalf("migrate status: %v", err)
		}
	case "version":
		v, err := migrator.Version(ctx)
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		log.Printf("current version: %d", v)
	default:
		log.Fatalf("unknown command %q (want up, status or version)", cmd)
	}
}
