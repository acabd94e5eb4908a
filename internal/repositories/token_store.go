package repositories

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Fixed storage keys for the persisted session tokens.
const (
	AccessKey  = "access"
	RefreshKey = "refresh"
)

// TokenStore adapts [LocalStorageRepository] to the session manager's token store port.
type TokenStore struct {
	repo *LocalStorageRepository
}

// NewTokenStore creates a new TokenStore backed by the given repository
func NewTokenStore(repo *LocalStorageRepository) *TokenStore {
	return &TokenStore{repo: repo}
}

// Load returns the persisted token pair, or nil when no access token has been stored.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	access, err := s.repo.Get(AccessKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, nil
	}

	refresh, err := s.repo.Get(RefreshKey)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	return &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}

// Save persists both tokens atomically.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("refusing to persist an empty access token")
	}
	return s.repo.Set(map[string]string{
		AccessKey:  tok.AccessToken,
		RefreshKey: tok.RefreshToken,
	})
}

// Clear removes both tokens.
func (s *TokenStore) Clear() error {
	return s.repo.Delete(AccessKey, RefreshKey)
}
