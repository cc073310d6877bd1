package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

var errEmptyAccessToken = errors.New("access token is empty")

// TokenVault caches the token pair in memory and mirrors it to durable storage.
type TokenVault struct {
	storage ports.Storage

	mu      sync.RWMutex
	tokens  domain.TokenPair
	onClear []func()
}

var (
	_ ports.TokenSource       = (*TokenVault)(nil)
	_ ports.AccessTokenSource = (*TokenVault)(nil)
)

func NewTokenVault(storage ports.Storage) *TokenVault {
	return &TokenVault{storage: storage}
}

// Load reads the persisted pair. Missing keys leave the corresponding token empty.
func (v *TokenVault) Load(ctx context.Context) error {
	access, err := v.read(ctx, AccessTokenKey)
	if err != nil {
		return err
	}
	refresh, err := v.read(ctx, RefreshTokenKey)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.tokens = domain.TokenPair{AccessToken: access, RefreshToken: refresh}
	v.mu.Unlock()

	return nil
}

func (v *TokenVault) read(ctx context.Context, key string) (string, error) {
	value, err := v.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrStorageKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (v *TokenVault) Tokens() domain.TokenPair {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tokens
}

func (v *TokenVault) AccessToken() string {
	return v.Tokens().AccessToken
}

// ReplaceTokens persists a new pair and then makes it current. An empty
// refresh token keeps the previous one.
func (v *TokenVault) ReplaceTokens(ctx context.Context, pair domain.TokenPair) error {
	if pair.AccessToken == "" {
		return errEmptyAccessToken
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if pair.RefreshToken == "" {
		pair.RefreshToken = v.tokens.RefreshToken
	}

	if err := v.storage.Put(ctx, AccessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if pair.RefreshToken != "" {
		if err := v.storage.Put(ctx, RefreshTokenKey, pair.RefreshToken); err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
	}

	v.tokens = domain.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	return nil
}

// ClearSession forgets the cached pair before deleting it from storage, so
// readers observe the logged-out state even if deletion fails.
func (v *TokenVault) ClearSession(ctx context.Context) error {
	v.mu.Lock()
	v.tokens = domain.TokenPair{}
	hooks := append([]func(){}, v.onClear...)
	v.mu.Unlock()

	var errs error
	for _, key := range []string{AccessTokenKey, RefreshTokenKey} {
		if err := v.storage.Delete(ctx, key); err != nil {
			errs = errors.Join(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}

	for _, hook := range hooks {
		hook()
	}

	return errs
}

// OnClear registers fn to run after every ClearSession.
func (v *TokenVault) OnClear(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onClear = append(v.onClear, fn)
}
