package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const DatastoreScope = "https://www.googleapis.com/auth/datastore"

// TokenProvider acquires a bearer token for the remote store.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken implements TokenProvider with a pre-issued token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredentials
	}
	return string(s), nil
}

// ServiceAccountTokens exchanges a service-account key file for access
// tokens. The file is read lazily so credentials dropped in after startup are
// picked up on the next call.
type ServiceAccountTokens struct {
	path   string
	scopes []string

	mu  sync.Mutex
	src oauth2.TokenSource
}

func NewServiceAccountTokens(path string, scopes ...string) *ServiceAccountTokens {
	if len(scopes) == 0 {
		scopes = []string{DatastoreScope}
	}
	return &ServiceAccountTokens{path: path, scopes: scopes}
}

func (s *ServiceAccountTokens) Token(ctx context.Context) (string, error) {
	src, err := s.source(ctx)
	if err != nil {
		return "", err
	}
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}
	return tok.AccessToken, nil
}

func (s *ServiceAccountTokens) source(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src != nil {
		return s.src, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	cfg, err := google.JWTConfigFromJSON(data, s.scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	// the token source outlives ctx, so it must not carry its deadline
	s.src = oauth2.ReuseTokenSource(nil, cfg.TokenSource(context.WithoutCancel(ctx)))
	return s.src, nil
}
