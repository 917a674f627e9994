package pairing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vorte-labs/vorte/pkg/credential"
	"github.com/vorte-labs/vorte/pkg/transport"
	"github.com/vorte-labs/vorte/pkg/transport/memtransport"
)

func TestNormalizePhone(t *testing.T) {
	good := map[string]string{
		"+1 555 000 1111": "15550001111",
		"555-000-1111":    "5550001111",
		"(234) 5678901":   "2345678901",
		"1234567":         "1234567",
	}
	for in, want := range good {
		got, err := NormalizePhone(in)
		if err != nil {
			t.Errorf("NormalizePhone(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
	bad := []string{"", "123456", "1234567890123456", "555-CALL-ME", "abc"}
	for _, in := range bad {
		if _, err := NormalizePhone(in); !errors.Is(err, ErrBadPhone) {
			t.Errorf("NormalizePhone(%q): err = %v, want ErrBadPhone", in, err)
		}
	}
}

func TestFormatCode(t *testing.T) {
	if got := FormatCode("ABCDEFGH"); got != "ABCD-EFGH" {
		t.Fatalf("FormatCode = %q", got)
	}
	if got := FormatCode("ABCDE"); got != "ABCD-E" {
		t.Fatalf("FormatCode = %q", got)
	}
	if got := FormatCode("ABc"); got != "ABc" {
		t.Fatalf("FormatCode = %q", got)
	}
}

func newOrchestrator(t *testing.T) (*Orchestrator, *memtransport.Transport) {
	t.Helper()
	var current *memtransport.Transport
	factory := func(dir string) (transport.Transport, error) {
		tr, err := memtransport.New(dir)
		current = tr
		return tr, err
	}
	o := New(factory, t.TempDir())
	t.Cleanup(o.Close)

	snap, err := o.RequestCode(context.Background(), "+1 555 000 1111")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	if snap.Status != StatusWaiting || snap.Code == "" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !strings.Contains(snap.Code, "-") {
		t.Fatalf("code %q not hyphen grouped", snap.Code)
	}
	return o, current
}

func TestPairingLifecycle(t *testing.T) {
	o, tr := newOrchestrator(t)
	token := func() string {
		o.mu.Lock()
		defer o.mu.Unlock()
		for tok := range o.byToken {
			return tok
		}
		return ""
	}()

	snap, err := o.Poll(token)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if snap.Status != StatusWaiting {
		t.Fatalf("status = %s", snap.Status)
	}

	if err := tr.CompletePairing(); err != nil {
		t.Fatalf("complete pairing: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err = o.Poll(token)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if snap.Status == StatusReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("status stuck at %s", snap.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !strings.HasPrefix(snap.SessionID, credential.TokenPrefix) {
		t.Fatalf("session id %q missing prefix", snap.SessionID)
	}
	if _, err := credential.Decode(snap.SessionID); err != nil {
		t.Fatalf("session id does not decode: %v", err)
	}

	// Repeat polls inside the grace period still see the token.
	again, err := o.Poll(token)
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if again.SessionID != snap.SessionID {
		t.Fatalf("session id changed between polls")
	}
}

func TestDuplicatePhoneRejected(t *testing.T) {
	o, _ := newOrchestrator(t)
	if _, err := o.RequestCode(context.Background(), "15550001111"); !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("second request: err = %v, want ErrDuplicatePhone", err)
	}
	if o.Active() != 1 {
		t.Fatalf("active = %d, want 1", o.Active())
	}
}

func TestTransportOpenMarksPaired(t *testing.T) {
	o, tr := newOrchestrator(t)
	token := firstToken(o)

	tr.Open()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := o.Poll(token)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if snap.Status == StatusPaired {
			if snap.SessionID != "" {
				t.Fatalf("session id %q before credential", snap.SessionID)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("status stuck at %s", snap.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The credential arrives next and finishes the attempt.
	if err := tr.CompletePairing(); err != nil {
		t.Fatalf("complete pairing: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for {
		snap, err := o.Poll(token)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if snap.Status == StatusReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("status stuck at %s", snap.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func firstToken(o *Orchestrator) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for tok := range o.byToken {
		return tok
	}
	return ""
}

func TestReapExpiredAttempt(t *testing.T) {
	o, _ := newOrchestrator(t)
	token := firstToken(o)

	base := time.Now()
	o.now = func() time.Time { return base.Add(AttemptTTL + time.Second) }
	if n := o.Reap(); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if _, err := o.Poll(token); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("poll after reap: err = %v", err)
	}
	// The throwaway session dir is gone too.
	if _, err := os.Stat(filepath.Join(o.baseDir, token)); !os.IsNotExist(err) {
		t.Fatalf("session dir survived reap: %v", err)
	}
}

func TestGracePeriodDeletion(t *testing.T) {
	o, tr := newOrchestrator(t)
	token := firstToken(o)

	if err := tr.CompletePairing(); err != nil {
		t.Fatalf("complete pairing: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := o.Poll(token)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if snap.Status == StatusReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Inside the grace window the attempt survives reaping.
	base := time.Now()
	o.now = func() time.Time { return base.Add(GracePeriod / 2) }
	if n := o.Reap(); n != 0 {
		t.Fatalf("reaped %d inside grace period", n)
	}

	o.now = func() time.Time { return base.Add(GracePeriod + time.Minute) }
	if n := o.Reap(); n != 1 {
		t.Fatalf("reaped %d after grace period, want 1", n)
	}
	if _, err := o.Poll(token); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("poll after grace deletion: err = %v", err)
	}
}

func TestRequestCodeRejectsBadPhone(t *testing.T) {
	o := New(memtransport.Factory(), t.TempDir())
	defer o.Close()
	if _, err := o.RequestCode(context.Background(), "12"); !errors.Is(err, ErrBadPhone) {
		t.Fatalf("err = %v, want ErrBadPhone", err)
	}
	if o.Active() != 0 {
		t.Fatalf("active = %d", o.Active())
	}
}
