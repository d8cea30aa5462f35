package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"watchlist-sync/internal/dto"
	"watchlist-sync/pkg/common"
)

const namespaceCredential = "credential"

// CredentialRepository is the CredentialAccessor: token and cached profile in durable storage.
type CredentialRepository interface {
	TokenSource
	Profile(ctx context.Context) (*dto.UserProfile, error)
	SaveSession(ctx context.Context, token string, profile *dto.UserProfile) error
	Clear(ctx context.Context) error
}

type credentialRepository struct {
	store *LocalStore
}

func NewCredentialRepository(store *LocalStore) CredentialRepository {
	return &credentialRepository{store: store}
}

// Token reads the stored bearer token. Missing token returns "" and no error.
func (r *credentialRepository) Token(ctx context.Context) (string, error) {
	token, _, err := r.store.get(ctx, namespaceCredential, common.KEY_CREDENTIAL_TOKEN)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

func (r *credentialRepository) Profile(ctx context.Context) (*dto.UserProfile, error) {
	raw, ok, err := r.store.get(ctx, namespaceCredential, common.KEY_CREDENTIAL_PROFILE)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var profile dto.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

func (r *credentialRepository) SaveSession(ctx context.Context, token string, profile *dto.UserProfile) error {
	if err := r.store.put(ctx, namespaceCredential, common.KEY_CREDENTIAL_TOKEN, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if profile == nil {
		return r.store.delete(ctx, namespaceCredential, common.KEY_CREDENTIAL_PROFILE)
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := r.store.put(ctx, namespaceCredential, common.KEY_CREDENTIAL_PROFILE, string(raw)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *credentialRepository) Clear(ctx context.Context) error {
	return r.store.delete(ctx, namespaceCredential, common.KEY_CREDENTIAL_TOKEN, common.KEY_CREDENTIAL_PROFILE)
}
