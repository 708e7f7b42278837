// Package main applies the embedded goose migrations.
//
// Usage: migrate up|down|status|version|redo|reset|to <version>
package main

import (
	"context"
	"fmt"
	"os"

	"inventra/internal/app/bootstrap"
	"inventra/internal/config"
	"inventra/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: migrate up|down|status|version|redo|reset|to <version>")
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()
	pool, err := bootstrap.OpenPool(ctx, cfg.DB)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	migrator := bootstrap.Migrator()
	if command == "to" {
		if len(args) != 1 {
			log.Fatal("usage: migrate to <version>")
		}
		err = migrator.MigrateTo(ctx, pool, args[0])
	} else {
		err = migrator.Run(ctx, pool, command, args...)
	}
	if err != nil {
		log.Fatalw("migration failed", "command", command, "error", err)
	}
	log.Infow("migration finished", "command", command)
}
