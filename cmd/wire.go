package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/adapters/gateway"
	"github.com/bnema/atlas-crm-cli/internal/adapters/push"
	tomlrepo "github.com/bnema/atlas-crm-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/chain"
	filestore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/file"
	passstore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/pass"
	redisstore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/redis"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
)

const sessionExpiredMessage = "session expired, run `atlas login`"

var errNotLoggedIn = fmt.Errorf("not logged in, run `atlas login`: %w", domain.ErrNotAuthenticated)

// app holds the single instances shared by every command.
type app struct {
	cfg    config
	logger *log.Logger

	storage      ports.Storage
	closeStorage func() error

	vault    *application.TokenVault
	nav      *application.LoginRedirect
	client   *gateway.Client
	api      *gateway.API
	session  *application.SessionStore
	hub      *push.Hub
	push     *push.Manager
	prefs    *application.PreferencesService
	prefRepo *tomlrepo.Repository
	now      func() time.Time
}

func wireApp(ctx context.Context, cfg config, stderr io.Writer) (*app, error) {
	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.New(stderr, "atlas: ", log.LstdFlags|log.Lmsgprefix)
	}

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("wire session storage: %w", err)
	}

	vault := application.NewTokenVault(storage)
	if err := vault.Load(ctx); err != nil {
		_ = closeStorage()
		return nil, fmt.Errorf("load session: %w", err)
	}

	nav := application.NewLoginRedirect()
	client, err := gateway.New(gateway.Config{
		BaseURL:        cfg.ServerURL,
		HTTPClient:     http.DefaultClient,
		RequestTimeout: cfg.HTTPTimeout,
		Logger:         logger,
	}, vault, nav)
	if err != nil {
		_ = closeStorage()
		return nil, fmt.Errorf("wire api client: %w", err)
	}
	api := gateway.NewAPI(client)

	hub := push.NewHub()
	manager, err := push.NewManager(push.Config{
		BaseURL:   cfg.ServerURL,
		Reconnect: cfg.reconnectPolicy(),
		Logger:    logger,
	}, vault, hub)
	if err != nil {
		_ = closeStorage()
		return nil, fmt.Errorf("wire push connection: %w", err)
	}

	prefRepo, err := tomlrepo.NewRepository(cfg.PreferencesPath)
	if err != nil {
		_ = closeStorage()
		return nil, fmt.Errorf("wire preferences repository: %w", err)
	}

	session := application.NewSessionStore(vault, api, logger)
	session.OnTeardown(manager.Disconnect)
	nav.OnRedirect(func(error) {
		manager.Disconnect()
		_, _ = fmt.Fprintln(stderr, sessionExpiredMessage)
	})

	return &app{
		cfg:          cfg,
		logger:       logger,
		storage:      storage,
		closeStorage: closeStorage,
		vault:        vault,
		nav:          nav,
		client:       client,
		api:          api,
		session:      session,
		hub:          hub,
		push:         manager,
		prefs:        application.NewPreferencesService(prefRepo),
		prefRepo:     prefRepo,
		now:          time.Now,
	}, nil
}

func openStorage(ctx context.Context, cfg config) (ports.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageBackend {
	case backendPass:
		return passstore.NewStore(cfg.PassPrefix), noop, nil
	case backendChain:
		store, err := chainstore.NewPassFirstWithFileFallback(cfg.PassPrefix, cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case backendRedis:
		store, err := redisstore.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return filestore.NewStore(cfg.StorageDir), noop, nil
	}
}

func (a *app) close() {
	a.push.Disconnect()
	if err := a.closeStorage(); err != nil {
		a.logger.Printf("close storage: %v", err)
	}
}

// requireSession fails fast when no access token is stored.
func (a *app) requireSession() error {
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}
