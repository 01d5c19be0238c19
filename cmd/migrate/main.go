package main

import (
	"flag"
	"fmt"
	"os"

	"lens-catalog/internal/config"
	"lens-catalog/internal/database"
	"lens-catalog/internal/logger"

	"go.uber.org/zap"
)

const usage = `usage: migrate <command>

commands:
  up      apply all pending migrations
  down    roll back the most recent migration
  status  print applied and pending migrations
  reset   roll back every migration`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	store, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	command := flag.Arg(0)
	switch command {
	case "up":
		err = database.RunMigrations(store.SQL, store.Dialect(), log)
	case "down":
		err = database.RollbackMigration(store.SQL, store.Dialect())
	case "status":
		err = database.GetMigrationStatus(store.SQL, store.Dialect())
	case "reset":
		err = database.ResetMigrations(store.SQL, store.Dialect())
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}

	version, err := database.MigrationVersion(store.SQL, store.Dialect())
	if err != nil {
		log.Fatal("Failed to read schema version", zap.Error(err))
	}
	log.Info("Migration command finished", zap.String("command", command), zap.Int64("version", version))
}
