// Package pairing runs phone-number pairing attempts for the session
// server. Each attempt gets its own throwaway session directory and
// transport; once the device links, the credentials are folded into a
// portable session token the caller copies into their bot config.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vorte-labs/vorte/pkg/credential"
	"github.com/vorte-labs/vorte/pkg/transport"
)

const (
	// AttemptTTL removes attempts that never finish pairing.
	AttemptTTL = 10 * time.Minute

	// GracePeriod keeps a finished attempt around after its first
	// successful status poll, so flaky clients can re-read the token.
	GracePeriod = 5 * time.Minute

	// ReapInterval is how often expired attempts are collected.
	ReapInterval = time.Minute
)

var (
	ErrUnknownToken         = errors.New("unknown or expired token")
	ErrBadPhone             = errors.New("phone must be 7 to 15 digits")
	ErrDuplicatePhone       = errors.New("a pairing attempt for this phone is already in flight")
	ErrTransportUnavailable = errors.New("transport is not ready")
)

// Status is the lifecycle of one pairing attempt. An attempt starts
// waiting, turns paired once the transport reports an open connection,
// and turns ready once the credential is captured and encoded.
type Status string

const (
	StatusWaiting Status = "waiting_pairing"
	StatusPaired  Status = "paired"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// live reports whether the attempt is still working toward a credential.
func (s Status) live() bool {
	return s == StatusWaiting || s == StatusPaired
}

// Snapshot is the externally visible view of an attempt.
type Snapshot struct {
	Token     string
	Phone     string
	Code      string
	Status    Status
	SessionID string
	Error     string
}

type attempt struct {
	token     string
	phone     string
	code      string
	status    Status
	sessionID string
	errText   string
	created   time.Time
	deleteAt  time.Time // zero until the first ready poll
	dir       string
	tr        transport.Transport
}

// Orchestrator owns all in-flight pairing attempts.
type Orchestrator struct {
	factory transport.Factory
	baseDir string

	mu      sync.Mutex
	byToken map[string]*attempt
	byPhone map[string]string

	now func() time.Time
}

// New creates an orchestrator writing throwaway sessions under baseDir.
func New(factory transport.Factory, baseDir string) *Orchestrator {
	return &Orchestrator{
		factory: factory,
		baseDir: baseDir,
		byToken: make(map[string]*attempt),
		byPhone: make(map[string]string),
		now:     time.Now,
	}
}

// NormalizePhone strips formatting and validates the digit count.
func NormalizePhone(raw string) (string, error) {
	var digits []byte
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == '+' || c == ' ' || c == '-' || c == '(' || c == ')':
			// formatting, ignore
		default:
			return "", ErrBadPhone
		}
	}
	if len(digits) < 7 || len(digits) > 15 {
		return "", ErrBadPhone
	}
	return string(digits), nil
}

// RequestCode starts a pairing attempt for a phone number and returns
// its pairing code. A phone with an attempt already in flight is
// rejected with ErrDuplicatePhone.
func (o *Orchestrator) RequestCode(ctx context.Context, rawPhone string) (Snapshot, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return Snapshot{}, err
	}

	o.mu.Lock()
	if token, ok := o.byPhone[phone]; ok {
		if a, ok := o.byToken[token]; ok && a.status.live() {
			o.mu.Unlock()
			return Snapshot{}, ErrDuplicatePhone
		}
	}
	token := uuid.NewString()
	dir := filepath.Join(o.baseDir, token)
	a := &attempt{
		token:   token,
		phone:   phone,
		status:  StatusWaiting,
		created: o.now(),
		dir:     dir,
	}
	o.byToken[token] = a
	o.byPhone[phone] = token
	o.mu.Unlock()

	if err := o.dial(ctx, a); err != nil {
		o.mu.Lock()
		a.status = StatusError
		a.errText = err.Error()
		o.mu.Unlock()
		return Snapshot{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	slog.Info("pairing attempt started", "token", token, "phone", phone)
	return a.snapshot(), nil
}

func (o *Orchestrator) dial(ctx context.Context, a *attempt) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tr, err := o.factory(a.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	if err := tr.Connect(ctx); err != nil {
		_ = tr.Close()
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	code, err := tr.RequestPairingCode(ctx, a.phone)
	if err != nil {
		_ = tr.Close()
		return fmt.Errorf("request pairing code: %w", err)
	}

	o.mu.Lock()
	a.tr = tr
	a.code = FormatCode(code)
	o.mu.Unlock()

	go o.watch(a, tr)
	return nil
}

// watch drives the attempt through its states as the device link
// progresses: open connection marks it paired, a captured credential
// marks it ready.
func (o *Orchestrator) watch(a *attempt, tr transport.Transport) {
	for ev := range tr.Events() {
		switch ev.Kind {
		case transport.EventConnected:
			o.mu.Lock()
			if a.status == StatusWaiting {
				a.status = StatusPaired
				slog.Info("device linked", "token", a.token, "phone", a.phone)
			}
			o.mu.Unlock()

		case transport.EventCredential:
			token, err := credential.Encode(ev.Credential)
			o.mu.Lock()
			if err != nil {
				a.status = StatusError
				a.errText = err.Error()
			} else if a.status.live() {
				a.status = StatusReady
				a.sessionID = token
				slog.Info("pairing complete", "token", a.token, "phone", a.phone)
			}
			o.mu.Unlock()
			return

		case transport.EventDisconnected:
			o.mu.Lock()
			if a.status != StatusReady {
				a.status = StatusError
				a.errText = "connection closed before pairing finished"
			}
			o.mu.Unlock()
			return
		}
	}
}

// Poll returns the attempt's current state. The first poll that sees
// StatusReady arms the grace-period deletion.
func (o *Orchestrator) Poll(token string) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.byToken[token]
	if !ok {
		return Snapshot{}, ErrUnknownToken
	}
	if a.status == StatusReady && a.deleteAt.IsZero() {
		a.deleteAt = o.now().Add(GracePeriod)
	}
	return a.snapshot(), nil
}

// Active counts attempts still working toward a credential.
func (o *Orchestrator) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, a := range o.byToken {
		if a.status.live() {
			n++
		}
	}
	return n
}

// Reap removes expired attempts: anything older than AttemptTTL, and
// delivered attempts past their grace period. Returns how many were
// removed.
func (o *Orchestrator) Reap() int {
	now := o.now()
	o.mu.Lock()
	var dead []*attempt
	for token, a := range o.byToken {
		expired := now.Sub(a.created) >= AttemptTTL
		delivered := !a.deleteAt.IsZero() && now.After(a.deleteAt)
		if expired || delivered {
			delete(o.byToken, token)
			if o.byPhone[a.phone] == token {
				delete(o.byPhone, a.phone)
			}
			dead = append(dead, a)
		}
	}
	o.mu.Unlock()

	for _, a := range dead {
		if a.tr != nil {
			_ = a.tr.Close()
		}
		if err := os.RemoveAll(a.dir); err != nil {
			slog.Error("remove session dir", "dir", a.dir, "error", err)
		}
	}
	if len(dead) > 0 {
		slog.Info("reaped pairing attempts", "count", len(dead))
	}
	return len(dead)
}

// Run reaps on a fixed interval until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	slog.Info("pairing reaper started", "interval", ReapInterval, "ttl", AttemptTTL)
	ticker := time.NewTicker(ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("pairing reaper stopping")
			return
		case <-ticker.C:
			o.Reap()
		}
	}
}

// Close tears down every live attempt, for shutdown.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	attempts := make([]*attempt, 0, len(o.byToken))
	for _, a := range o.byToken {
		attempts = append(attempts, a)
	}
	o.byToken = make(map[string]*attempt)
	o.byPhone = make(map[string]string)
	o.mu.Unlock()

	for _, a := range attempts {
		if a.tr != nil {
			_ = a.tr.Close()
		}
		_ = os.RemoveAll(a.dir)
	}
}

func (a *attempt) snapshot() Snapshot {
	return Snapshot{
		Token:     a.token,
		Phone:     a.phone,
		Code:      a.code,
		Status:    a.status,
		SessionID: a.sessionID,
		Error:     a.errText,
	}
}

// FormatCode groups a raw pairing code into hyphen-separated blocks of
// four, the way it is shown on the linking screen.
func FormatCode(code string) string {
	if len(code) <= 4 {
		return code
	}
	var out []byte
	for i := 0; i < len(code); i += 4 {
		if i > 0 {
			out = append(out, '-')
		}
		end := i + 4
		if end > len(code) {
			end = len(code)
		}
		out = append(out, code[i:end]...)
	}
	return string(out)
}
