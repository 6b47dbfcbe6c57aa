package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Settings persists the small settings record.
type Settings struct {
	store types.Store
}

// NewSettings returns a settings repository over store.
func NewSettings(store types.Store) *Settings {
	return &Settings{store: store}
}

// Get returns the persisted settings; an absent key yields the zero record.
func (r *Settings) Get(ctx context.Context) (types.Settings, error) {
	return readSettings(ctx, r.store)
}

// Set overwrites the settings record.
func (r *Settings) Set(ctx context.Context, s types.Settings) error {
	return writeSettings(ctx, r.store, s)
}

func readSettings(ctx context.Context, s types.Store) (types.Settings, error) {
	var settings types.Settings
	raw, err := s.Get(ctx, types.KeySettings)
	if errors.Is(err, types.ErrKeyNotFound) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return settings, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

func writeSettings(ctx context.Context, s types.Store, settings types.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if _, err := s.Set(ctx, types.KeySettings, raw); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
