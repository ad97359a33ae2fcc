// Package main applies the embedded schema migrations.
//
// Usage:
//
//	migrate up
//	migrate down
//	migrate steps -n -1
//	migrate version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"smartsupply/internal/config"
	"smartsupply/internal/infrastructure/migration"
	"smartsupply/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage()
		return
	}

	cfg, err := config.Load(os.Getenv("SMARTSUPPLY_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		fmt.Println("database.dsn is required (SMARTSUPPLY_DATABASE_DSN)")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Development: cfg.App.IsDevelopment()})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	ctx := logger.WithLogger(context.Background(), log)

	m, err := migration.New(cfg.Database.DSN)
	if err != nil {
		log.Fatalw("failed to open migrations", "error", err)
	}
	defer func() { _ = m.Close() }()

	switch cmd {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	case "steps":
		fs := flag.NewFlagSet("steps", flag.ExitOnError)
		n := fs.Int("n", 1, "number of steps; negative rolls back")
		_ = fs.Parse(os.Args[2:])
		err = m.Steps(ctx, *n)
	case "version":
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalw("migration failed", "command", cmd, "error", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalw("failed to read schema version", "error", err)
	}
	log.Infow("schema version", "version", version, "dirty", dirty)
}

func printUsage() {
	fmt.Println(`smartsupply schema migrations

Usage:
  migrate <command> [options]

Commands:
  up        Apply all pending migrations
  down      Roll back every migration
  steps     Apply (-n 2) or roll back (-n -1) a number of migrations
  version   Print the current schema version
  help      Show this help

Environment:
  SMARTSUPPLY_DATABASE_DSN   PostgreSQL connection string
  SMARTSUPPLY_CONFIG         Optional config file`)
}
