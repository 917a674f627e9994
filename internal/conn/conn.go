// Package conn owns the transport connection lifecycle: connect,
// pairing, reconnect backoff, and logout. It is the only place that
// holds a live transport; everyone else borrows it through Transport()
// and gets ErrNotConnected while the link is down.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vorte-labs/vorte/internal/bus"
	"github.com/vorte-labs/vorte/pkg/credential"
	"github.com/vorte-labs/vorte/pkg/transport"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingPairing
	StateOpen
	StateReconnecting
	StateLoggedOut
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingPairing:
		return "awaiting_pairing"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateLoggedOut:
		return "logged_out"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

var ErrNotConnected = errors.New("not connected")

const (
	// ReconnectDelay is the pause before redialing after a network drop.
	ReconnectDelay = 5 * time.Second

	// FatalRetryDelay is the pause before retrying after a connect error.
	FatalRetryDelay = 10 * time.Second
)

// Handler receives traffic from an open connection.
type Handler interface {
	HandleMessage(ctx context.Context, msg transport.Message)
	HandleParticipants(ctx context.Context, update transport.ParticipantUpdate)
}

// Manager drives a single transport through its lifecycle. One attempt
// is in flight at a time; a logout cancels any pending reconnect.
type Manager struct {
	factory transport.Factory
	dir     string
	bus     *bus.Bus
	handler Handler

	reconnectDelay time.Duration
	fatalDelay     time.Duration

	mu       sync.Mutex
	state    State
	tr       transport.Transport
	latestQR string
	timer    *time.Timer
	gen      int // invalidates scheduled redials from older attempts
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a manager over a session directory. handler may be nil.
func New(factory transport.Factory, dir string, b *bus.Bus, handler Handler) *Manager {
	return &Manager{
		factory:        factory,
		dir:            dir,
		bus:            b,
		handler:        handler,
		reconnectDelay: ReconnectDelay,
		fatalDelay:     FatalRetryDelay,
		state:          StateDisconnected,
	}
}

// Start dials the transport and begins consuming its events. The
// manager keeps redialing until Stop or a remote logout.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return fmt.Errorf("connection manager is closed")
	}
	if m.ctx != nil {
		return fmt.Errorf("already started")
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.connectLocked()
	return nil
}

// connectLocked launches one connect attempt. Caller holds m.mu.
func (m *Manager) connectLocked() {
	m.gen++
	gen := m.gen
	m.setStateLocked(StateConnecting)
	go m.attempt(gen)
}

func (m *Manager) attempt(gen int) {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	tr, err := m.factory(m.dir)
	if err == nil {
		err = tr.Connect(ctx)
		if err != nil {
			_ = tr.Close()
		}
	}

	m.mu.Lock()
	if gen != m.gen || m.state == StateClosed || m.state == StateLoggedOut {
		m.mu.Unlock()
		if err == nil {
			_ = tr.Close()
		}
		return
	}
	if err != nil {
		slog.Error("connect failed", "error", err, "retry_in", m.fatalDelay)
		m.scheduleLocked(m.fatalDelay, gen)
		m.setStateLocked(StateReconnecting)
		m.mu.Unlock()
		return
	}
	m.tr = tr
	if !tr.LoggedIn() {
		m.setStateLocked(StateAwaitingPairing)
	}
	m.mu.Unlock()

	go m.consume(tr, gen)
}

// consume drains one transport's event stream until it closes.
func (m *Manager) consume(tr transport.Transport, gen int) {
	for ev := range tr.Events() {
		m.mu.Lock()
		stale := gen != m.gen
		ctx := m.ctx
		m.mu.Unlock()
		if stale || ctx == nil {
			return
		}

		switch ev.Kind {
		case transport.EventConnected:
			m.mu.Lock()
			m.latestQR = ""
			m.setStateLocked(StateOpen)
			m.mu.Unlock()
			slog.Info("connection open", "self", tr.SelfID())

		case transport.EventQR:
			m.mu.Lock()
			m.latestQR = ev.QR
			m.setStateLocked(StateAwaitingPairing)
			m.mu.Unlock()

		case transport.EventCredential:
			if err := credential.Save(m.dir, ev.Credential); err != nil {
				slog.Error("persist credential", "error", err)
			}

		case transport.EventMessage:
			if m.handler != nil && ev.Message != nil {
				m.handler.HandleMessage(ctx, *ev.Message)
			}

		case transport.EventParticipants:
			if m.handler != nil && ev.Participants != nil {
				m.handler.HandleParticipants(ctx, *ev.Participants)
			}

		case transport.EventDisconnected:
			m.disconnected(tr, gen, ev.Reason)
			if ev.Reason == transport.ReasonLoggedOut {
				return
			}
		}
	}
}

func (m *Manager) disconnected(tr transport.Transport, gen int, reason transport.CloseReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state == StateClosed {
		return
	}
	if m.tr == tr {
		m.tr = nil
	}

	switch reason {
	case transport.ReasonLoggedOut:
		slog.Info("logged out remotely, clearing credentials")
		if err := credential.Remove(m.dir); err != nil {
			slog.Error("remove credential", "error", err)
		}
		m.stopTimerLocked()
		m.setStateLocked(StateLoggedOut)

	case transport.ReasonShutdown:
		m.setStateLocked(StateDisconnected)

	default:
		slog.Warn("connection dropped", "reason", reason, "redial_in", m.reconnectDelay)
		m.scheduleLocked(m.reconnectDelay, gen)
		m.setStateLocked(StateReconnecting)
	}
}

// scheduleLocked arms the redial timer. Caller holds m.mu.
func (m *Manager) scheduleLocked(d time.Duration, gen int) {
	m.stopTimerLocked()
	m.timer = time.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.gen || m.state != StateReconnecting {
			return
		}
		if m.ctx == nil || m.ctx.Err() != nil {
			return
		}
		m.connectLocked()
	})
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.bus != nil {
		m.bus.Publish(bus.Event{Type: bus.EventConnection, State: s.String()})
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transport hands out the live transport, or ErrNotConnected while the
// link is anything other than open.
func (m *Manager) Transport() (transport.Transport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateOpen || m.tr == nil {
		return nil, ErrNotConnected
	}
	return m.tr, nil
}

// LatestQR returns the most recent login QR payload, if pairing is
// pending, or an empty string.
func (m *Manager) LatestQR() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestQR
}

// RequestPairingCode asks the transport for a pairing code for phone.
// Valid while connecting or awaiting pairing.
func (m *Manager) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	m.mu.Lock()
	tr := m.tr
	m.mu.Unlock()
	if tr == nil {
		return "", ErrNotConnected
	}
	return tr.RequestPairingCode(ctx, phone)
}

// Logout ends the session on purpose: credentials are removed, any
// pending redial is cancelled, and the manager stays down until a new
// Start.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	tr := m.tr
	m.gen++ // orphan any in-flight attempt
	m.stopTimerLocked()
	m.setStateLocked(StateLoggedOut)
	m.tr = nil
	m.mu.Unlock()

	if tr != nil {
		if err := tr.Logout(ctx); err != nil {
			slog.Error("transport logout", "error", err)
		}
		_ = tr.Close()
	}
	if err := credential.Remove(m.dir); err != nil {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

// Stop tears the manager down for process shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	tr := m.tr
	m.gen++
	m.stopTimerLocked()
	m.setStateLocked(StateClosed)
	m.tr = nil
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		_ = tr.Close()
	}
}
