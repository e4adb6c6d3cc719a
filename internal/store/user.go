package store

import (
	"encoding/json"
	"fmt"

	"mragenda.app/server/internal/kv"
)

const (
	userKey     = "mragenda_user"
	settingsKey = "mragenda_settings"
)

// persistedUser carries the PIN hash, which User itself never serializes
// into API responses.
type persistedUser struct {
	Name    string `json:"name"`
	PINHash string `json:"pin"`
}

// UserStore holds the single local user.
type UserStore struct {
	kv kv.Store
}

func NewUserStore(store kv.Store) *UserStore {
	return &UserStore{kv: store}
}

func (s *UserStore) Get() (*User, error) {
	raw, ok, err := s.kv.Get(userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var p persistedUser
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &User{Name: p.Name, PINHash: p.PINHash}, nil
}

func (s *UserStore) Save(user User) error {
	data, err := json.Marshal(persistedUser{Name: user.Name, PINHash: user.PINHash})
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.kv.Set(userKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// SettingsStore holds application settings.
type SettingsStore struct {
	kv kv.Store
}

func NewSettingsStore(store kv.Store) *SettingsStore {
	return &SettingsStore{kv: store}
}

func (s *SettingsStore) Get() (Settings, error) {
	raw, ok, err := s.kv.Get(settingsKey)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		return Settings{Theme: ThemeSystem}, nil
	}
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsStore) Save(settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.kv.Set(settingsKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}
