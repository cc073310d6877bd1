package e2e

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/adapters/gateway"
	"github.com/bnema/atlas-crm-cli/internal/adapters/push"
	filestore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/file"
	"github.com/bnema/atlas-crm-cli/internal/application"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atlasServer serves the REST routes the smoke flows touch plus /ws.
type atlasServer struct {
	*httptest.Server

	revoked   atomic.Bool
	callLoads atomic.Int32
	sockets   chan *websocket.Conn
}

func newAtlasServer(t *testing.T) *atlasServer {
	t.Helper()

	s := &atlasServer{sockets: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"acc","refresh_token":"ref","token_type":"bearer"}`)
	})
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Refresh token revoked"}`)
	})
	mux.HandleFunc("GET /api/v1/auth/me", s.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":1,"email":"admin@atlas.tld","name":"Admin","role":"admin","is_active":true,"created_at":"2026-01-05T09:00:00"}`)
	}))
	mux.HandleFunc("GET /api/v1/leads", s.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":42,"name":"Aigerim","phone":"+7701","source":"instagram","created_at":"2026-02-01T10:00:00"}]`)
	}))
	mux.HandleFunc("GET /api/v1/calls", s.authed(func(w http.ResponseWriter, _ *http.Request) {
		s.callLoads.Add(1)
		writeJSON(w, http.StatusOK, `[{"id":1,"lead_id":42,"direction":"in","duration":30,"created_at":"2026-02-01T10:00:00"}]`)
	}))
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "acc" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.sockets <- conn
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *atlasServer) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.revoked.Load() || r.Header.Get("Authorization") != "Bearer acc" {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
			return
		}
		next(w, r)
	}
}

func (s *atlasServer) socket(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-s.sockets:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(3 * time.Second):
		t.Fatal("push socket was not opened")
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type stack struct {
	vault   *application.TokenVault
	nav     *application.LoginRedirect
	api     *gateway.API
	session *application.SessionStore
	manager *push.Manager
	hub     *push.Hub
}

func newStack(t *testing.T, serverURL string) *stack {
	t.Helper()

	vault := application.NewTokenVault(filestore.NewStore(filepath.Join(t.TempDir(), "session")))
	nav := application.NewLoginRedirect()
	client, err := gateway.New(gateway.Config{BaseURL: serverURL, RequestTimeout: 5 * time.Second}, vault, nav)
	require.NoError(t, err)
	api := gateway.NewAPI(client)

	hub := push.NewHub()
	manager, err := push.NewManager(push.Config{BaseURL: serverURL, Reconnect: push.FixedReconnect(50 * time.Millisecond)}, vault, hub)
	require.NoError(t, err)
	t.Cleanup(manager.Disconnect)

	session := application.NewSessionStore(vault, api, nil)
	session.OnTeardown(manager.Disconnect)
	nav.OnRedirect(func(error) { manager.Disconnect() })

	return &stack{vault: vault, nav: nav, api: api, session: session, manager: manager, hub: hub}
}

func TestSyncFlowRefetchesOnPushAndLogsOutOnRevokedSession(t *testing.T) {
	server := newAtlasServer(t)
	s := newStack(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	user, err := s.session.Login(ctx, "admin@atlas.tld", "Admin123!")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	require.NoError(t, s.manager.Connect(ctx))
	socket := server.socket(t)
	assert.Equal(t, domain.Connected, s.manager.State())

	binding := application.NewCallsBinding(s.api, domain.CallFilter{})
	var (
		mu     sync.Mutex
		states []application.BindingState[[]domain.Call]
	)
	binding.OnChange(func(state application.BindingState[[]domain.Call]) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = binding.Run(ctx, s.hub)
	}()

	require.Eventually(t, func() bool { return server.callLoads.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, socket.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, socket.WriteMessage(websocket.TextMessage, []byte(`{"event":"call:new","data":{"lead_id":42}}`)))

	require.Eventually(t, func() bool { return server.callLoads.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	latest, ok := s.hub.Latest()
	require.True(t, ok)
	assert.Equal(t, domain.EventCallNew, latest.Name)

	server.revoked.Store(true)
	_, err = s.api.ListLeads(ctx, domain.LeadFilter{})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, 1, s.nav.Redirects())
	assert.False(t, s.session.IsAuthenticated())
	assert.Nil(t, s.session.CurrentUser())
	require.Eventually(t, func() bool { return s.manager.State() == domain.Disconnected }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.Equal(t, 2, states[len(states)-1].Loads)
}

func TestSmokeFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the atlas binary")
	}

	home := t.TempDir()
	binaryPath := buildBinary(t)
	server := newAtlasServer(t)

	stdout, stderr, err := runAtlas(t, binaryPath, home, server.URL,
		"login", "--email", "admin@atlas.tld", "--password", "Admin123!",
	)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "logged in as Admin")

	stdout, stderr, err = runAtlas(t, binaryPath, home, server.URL, "leads", "list", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Aigerim")

	server.revoked.Store(true)
	_, stderr, err = runAtlas(t, binaryPath, home, server.URL, "leads", "list", "--json")
	require.Error(t, err)
	assert.Contains(t, stderr, "session expired, run `atlas login`")

	_, err = os.Stat(filepath.Join(home, ".atlas", "session", "access_token"))
	assert.True(t, os.IsNotExist(err))
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "atlas-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/atlas")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build atlas binary: %s", string(output))
	return binaryPath
}

func runAtlas(t *testing.T, binaryPath, home, serverURL string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "HOME="+home, "ATLAS_SERVER_URL="+serverURL, "ATLAS_STORAGE_BACKEND=file")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
