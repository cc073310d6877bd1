package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
)

// SessionStore owns the identity lifecycle: login, current user, logout.
type SessionStore struct {
	vault  *TokenVault
	auth   ports.AuthAPI
	logger *log.Logger

	mu       sync.RWMutex
	user     *domain.User
	teardown []func()
}

func NewSessionStore(vault *TokenVault, auth ports.AuthAPI, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &SessionStore{vault: vault, auth: auth, logger: logger}
	vault.OnClear(s.forgetUser)
	return s
}

// Init restores persisted tokens and, when an access token exists, resolves
// the current user. A failed lookup leaves the session cleared.
func (s *SessionStore) Init(ctx context.Context) error {
	if err := s.vault.Load(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !s.IsAuthenticated() {
		return nil
	}

	if _, err := s.FetchCurrentUser(ctx); err != nil {
		s.logger.Printf("session: restore failed: %v", err)
		return err
	}
	return nil
}

func (s *SessionStore) Login(ctx context.Context, email, password string) (domain.User, error) {
	pair, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}

	if err := s.vault.ReplaceTokens(ctx, pair); err != nil {
		return domain.User{}, fmt.Errorf("persist tokens: %w", err)
	}

	return s.FetchCurrentUser(ctx)
}

func (s *SessionStore) FetchCurrentUser(ctx context.Context) (domain.User, error) {
	if !s.IsAuthenticated() {
		s.clear(ctx)
		return domain.User{}, domain.ErrNotAuthenticated
	}

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.clear(ctx)
		return domain.User{}, fmt.Errorf("fetch current user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.vault.Tokens().Authenticated() {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	s.user = &user

	return user, nil
}

// Logout clears tokens and user and runs the teardown hooks. Calling it
// while logged out is a no-op apart from the hooks.
func (s *SessionStore) Logout(ctx context.Context) error {
	err := s.vault.ClearSession(ctx)
	s.Teardown()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Teardown runs the registered teardown hooks without touching stored tokens.
func (s *SessionStore) Teardown() {
	s.mu.RLock()
	hooks := append([]func(){}, s.teardown...)
	s.mu.RUnlock()

	for _, hook := range hooks {
		hook()
	}
}

// OnTeardown registers fn to run on Logout and Teardown.
func (s *SessionStore) OnTeardown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown = append(s.teardown, fn)
}

func (s *SessionStore) IsAuthenticated() bool {
	return s.vault.AccessToken() != ""
}

// CurrentUser returns nil whenever no access token is present.
func (s *SessionStore) CurrentUser() *domain.User {
	if !s.IsAuthenticated() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

func (s *SessionStore) Snapshot() domain.Session {
	return domain.Session{Tokens: s.vault.Tokens(), CurrentUser: s.CurrentUser()}
}

func (s *SessionStore) clear(ctx context.Context) {
	if err := s.vault.ClearSession(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Printf("session: clear failed: %v", err)
	}
}

func (s *SessionStore) forgetUser() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
