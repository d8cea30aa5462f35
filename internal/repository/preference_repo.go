package repository

import (
	"context"
	"fmt"
)

const namespacePreference = "ui_preference"

// PreferenceRepository persists UI preferences independently per key.
type PreferenceRepository interface {
	Load(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type preferenceRepository struct {
	store *LocalStore
}

func NewPreferenceRepository(store *LocalStore) PreferenceRepository {
	return &preferenceRepository{store: store}
}

func (r *preferenceRepository) Load(ctx context.Context) (map[string]string, error) {
	prefs, err := r.store.list(ctx, namespacePreference)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return prefs, nil
}

func (r *preferenceRepository) Set(ctx context.Context, key, value string) error {
	return r.store.put(ctx, namespacePreference, key, value)
}

func (r *preferenceRepository) Delete(ctx context.Context, key string) error {
	return r.store.delete(ctx, namespacePreference, key)
}
