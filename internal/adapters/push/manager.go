package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
	"github.com/gorilla/websocket"
)

const (
	DefaultPath             = "/ws"
	defaultHandshakeTimeout = 10 * time.Second
	maxFrameBytes           = 1 << 20
)

type Config struct {
	// BaseURL is the server origin. http and https map to ws and wss.
	BaseURL   string
	Path      string
	Reconnect ReconnectPolicy
	Dialer    *websocket.Dialer
	Logger    *log.Logger
}

// Manager owns the single push socket. It reconnects after every close
// for as long as an access token is available, and stops only on Disconnect.
type Manager struct {
	endpoint *url.URL
	policy   ReconnectPolicy
	dialer   *websocket.Dialer
	logger   *log.Logger
	tokens   ports.AccessTokenSource
	hub      *Hub

	mu         sync.Mutex
	state      domain.ConnectionState
	conn       *websocket.Conn
	generation uint64
	cancelDial context.CancelFunc
	timer      *time.Timer
	attempts   int
	listeners  []func(domain.ConnectionState)
}

func NewManager(cfg Config, tokens ports.AccessTokenSource, hub *Hub) (*Manager, error) {
	endpoint, err := socketURL(cfg.BaseURL, cfg.Path)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, errors.New("access token source is required")
	}
	if hub == nil {
		hub = NewHub()
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			HandshakeTimeout:  defaultHandshakeTimeout,
			EnableCompression: false,
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	policy := cfg.Reconnect
	if policy.Initial <= 0 {
		policy.Initial = DefaultReconnectDelay
	}

	return &Manager{
		endpoint: endpoint,
		policy:   policy,
		dialer:   dialer,
		logger:   logger,
		tokens:   tokens,
		hub:      hub,
	}, nil
}

func (m *Manager) Hub() *Hub {
	return m.hub
}

func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers fn to receive every connection state transition.
func (m *Manager) OnStateChange(fn func(domain.ConnectionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Connect opens the socket unless there is no access token, a socket is
// already open, or a dial is in flight. A failed dial schedules a reconnect.
func (m *Manager) Connect(ctx context.Context) error {
	token := m.tokens.AccessToken()
	if token == "" {
		return nil
	}

	m.mu.Lock()
	if m.conn != nil || m.state == domain.Connecting {
		m.mu.Unlock()
		return nil
	}
	m.stopTimerLocked()
	dialCtx, cancel := context.WithCancel(ctx)
	m.cancelDial = cancel
	generation := m.generation
	notify := m.setStateLocked(domain.Connecting)
	m.mu.Unlock()
	notify()

	conn, _, err := m.dialer.DialContext(dialCtx, m.urlFor(token), nil)
	cancel()

	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	m.cancelDial = nil
	if err != nil {
		notify := m.setStateLocked(domain.Disconnected)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		notify()
		m.logger.Printf("push: dial failed: %v", err)
		return fmt.Errorf("dial push channel: %w", err)
	}

	conn.SetReadLimit(maxFrameBytes)
	m.conn = conn
	m.attempts = 0
	notify = m.setStateLocked(domain.Connected)
	m.mu.Unlock()
	notify()

	m.logger.Printf("push: connected to %s", m.endpoint.Redacted())
	go m.readLoop(conn)
	return nil
}

// Disconnect closes the socket and cancels any pending reconnect. It is safe
// to call when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.generation++
	m.stopTimerLocked()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	conn := m.conn
	m.conn = nil
	m.attempts = 0
	notify := m.setStateLocked(domain.Disconnected)
	m.mu.Unlock()
	notify()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
}

func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(conn, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		event, err := domain.DecodePushEvent(frame)
		if err != nil {
			m.logger.Printf("push: dropping malformed frame: %v", err)
			continue
		}
		m.hub.Publish(event)
	}
}

func (m *Manager) handleClose(conn *websocket.Conn, cause error) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	notify := m.setStateLocked(domain.Disconnected)
	m.scheduleReconnectLocked()
	m.mu.Unlock()
	notify()

	_ = conn.Close()
	m.logger.Printf("push: connection closed: %v", cause)
}

func (m *Manager) scheduleReconnectLocked() {
	delay := m.policy.Delay(m.attempts)
	m.attempts++
	generation := m.generation

	m.stopTimerLocked()
	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if generation != m.generation {
			m.mu.Unlock()
			return
		}
		m.timer = nil
		m.mu.Unlock()

		if m.tokens.AccessToken() == "" {
			m.logger.Printf("push: no access token, not reconnecting")
			return
		}
		_ = m.Connect(context.Background())
	})
	m.logger.Printf("push: reconnecting in %s", delay)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// setStateLocked records the new state and returns a func that notifies
// listeners. Callers run it after releasing the lock.
func (m *Manager) setStateLocked(state domain.ConnectionState) func() {
	if m.state == state {
		return func() {}
	}
	m.state = state
	listeners := append([]func(domain.ConnectionState){}, m.listeners...)
	return func() {
		for _, fn := range listeners {
			fn(state)
		}
	}
}

func (m *Manager) urlFor(token string) string {
	endpoint := *m.endpoint
	query := endpoint.Query()
	query.Set("token", token)
	endpoint.RawQuery = query.Encode()
	return endpoint.String()
}

func socketURL(baseURL, path string) (*url.URL, error) {
	if baseURL == "" {
		return nil, errors.New("push base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse push base url: %w", err)
	}
	switch parsed.Scheme {
	case "http", "ws":
		parsed.Scheme = "ws"
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported push url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("push base url host is required")
	}

	if path == "" {
		path = DefaultPath
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/" + strings.TrimLeft(path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}
