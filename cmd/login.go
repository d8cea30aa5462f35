package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"watchlist-sync/config"
	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
)

var (
	loginToken    string
	loginUsername string
	loginEmail    string
	loginUserID   int64
	loginVerify   bool
)

// openRepository is the light setup used by one-shot commands.
func openRepository() (*config.Config, *logger.Logger, *repository.Repository) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	l, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	repo, err := repository.NewRepository(cfg, l)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	return cfg, l, repo
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a bearer token issued by the backend",
	Run: func(cmd *cobra.Command, args []string) {
		if loginToken == "" {
			loginToken = os.Getenv("WATCHLIST_TOKEN")
		}
		if loginToken == "" {
			log.Fatal("A token is required: pass --token or set WATCHLIST_TOKEN")
		}

		_, _, repo := openRepository()
		defer repo.Close()
		ctx := cmd.Context()

		var profile *dto.UserProfile
		if loginUsername != "" {
			profile = &dto.UserProfile{ID: loginUserID, Username: loginUsername, Email: loginEmail}
		}
		if err := repo.CredentialRepo.SaveSession(ctx, loginToken, profile); err != nil {
			log.Fatalf("Failed to save session: %v", err)
		}

		if loginVerify {
			if _, err := repo.Gateway.GetSettings(ctx); err != nil {
				_ = repo.CredentialRepo.Clear(context.WithoutCancel(ctx))
				log.Fatalf("Token rejected: %s", repository.UserMessage(err))
			}
		}
		fmt.Println("Logged in.")
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token and profile",
	Run: func(cmd *cobra.Command, args []string) {
		_, _, repo := openRepository()
		defer repo.Close()
		if err := repo.CredentialRepo.Clear(cmd.Context()); err != nil {
			log.Fatalf("Failed to clear session: %v", err)
		}
		fmt.Println("Logged out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored user profile",
	Run: func(cmd *cobra.Command, args []string) {
		_, _, repo := openRepository()
		defer repo.Close()
		ctx := cmd.Context()

		token, err := repo.CredentialRepo.Token(ctx)
		if err != nil {
			log.Fatalf("Failed to read session: %v", err)
		}
		if token == "" {
			fmt.Println("Not logged in.")
			return
		}
		profile, err := repo.CredentialRepo.Profile(ctx)
		if err != nil {
			log.Fatalf("Failed to read profile: %v", err)
		}
		if profile == nil {
			fmt.Println("Logged in, no profile stored.")
			return
		}
		out, _ := json.MarshalIndent(profile, "", "  ")
		fmt.Println(string(out))
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "bearer token")
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "username to cache with the token")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email to cache with the token")
	loginCmd.Flags().Int64Var(&loginUserID, "user-id", 0, "user id to cache with the token")
	loginCmd.Flags().BoolVar(&loginVerify, "verify", true, "check the token against the backend")
}
