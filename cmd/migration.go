package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"watchlist-sync/config"
	"watchlist-sync/internal/repository"
)

func runMigrations(direction string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := repository.OpenLocalStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(direction); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if direction == repository.MigrateUp {
		fmt.Println("Applied migrations successfully.")
	} else {
		fmt.Println("Reverted last migration successfully.")
	}
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all available local store migrations",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations(repository.MigrateUp)
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the last local store migration",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations(repository.MigrateDown)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the local store schema",
}

func init() {
	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
}
