package cmd

import (
	"encoding/json"
	"log"
	"os"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"watchlist-sync/internal/service"
	"watchlist-sync/internal/view"
	"watchlist-sync/pkg/cache"
)

var (
	snapshotPage     int
	snapshotPageSize int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Bootstrap once and print the current page as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, l, repo := openRepository()
		defer repo.Close()

		services := service.NewService(cfg, l, repo, cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval), goValidator.New())
		engine := services.Engine
		if err := engine.Bootstrap(cmd.Context()); err != nil {
			log.Fatalf("Bootstrap failed: %v", err)
		}

		q := engine.Preferences.Query()
		if snapshotPage > 0 {
			q.Page = snapshotPage
		}
		if view.ValidPageSize(snapshotPageSize) {
			q.PageSize = snapshotPageSize
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(engine.Page(q)); err != nil {
			log.Fatalf("Failed to encode page: %v", err)
		}
	},
}

func init() {
	snapshotCmd.Flags().IntVar(&snapshotPage, "page", 1, "page to print")
	snapshotCmd.Flags().IntVar(&snapshotPageSize, "page-size", view.DefaultPageSize, "rows per page (10, 20, 50 or 100)")
}
