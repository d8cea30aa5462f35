package repository

import (
	"fmt"

	"watchlist-sync/config"
	"watchlist-sync/pkg/logger"
)

type Repository struct {
	Store          *LocalStore
	CredentialRepo CredentialRepository
	PreferenceRepo PreferenceRepository
	Gateway        RemoteGateway
}

// NewRepository opens and migrates the local store and builds the gateway on top of the
// stored credential.
func NewRepository(cfg *config.Config, log *logger.Logger) (*Repository, error) {
	store, err := OpenLocalStore(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(MigrateUp); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	credentialRepo := NewCredentialRepository(store)
	return &Repository{
		Store:          store,
		CredentialRepo: credentialRepo,
		PreferenceRepo: NewPreferenceRepository(store),
		Gateway:        NewRemoteGateway(cfg, credentialRepo, log),
	}, nil
}

func (r *Repository) Close() error {
	return r.Store.Close()
}
