package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vorte-labs/vorte/internal/conn"
	"github.com/vorte-labs/vorte/internal/pairing"
	"github.com/vorte-labs/vorte/pkg/transport"
	"github.com/vorte-labs/vorte/pkg/transport/memtransport"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad JSON %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestSessionServerPairingFlow(t *testing.T) {
	var current *memtransport.Transport
	factory := func(dir string) (transport.Transport, error) {
		tr, err := memtransport.New(dir)
		current = tr
		return tr, err
	}
	orch := pairing.New(factory, t.TempDir())
	t.Cleanup(orch.Close)
	mux := (&SessionServer{Orch: orch}).Mux()

	// Request a code.
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/request-code", strings.NewReader(`{"phone":"+1 555 000 1111"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("request-code status = %d, body %s", rr.Code, rr.Body)
	}
	body := decode(t, rr)
	token, _ := body["token"].(string)
	if token == "" || body["code"] == "" || body["success"] != true {
		t.Fatalf("body = %v", body)
	}
	if body["status"] != "waiting_pairing" {
		t.Fatalf("initial status = %v", body["status"])
	}

	// A second request for the same phone while the first is in flight.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/request-code", strings.NewReader(`{"phone":"+1 555 000 1111"}`)))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("duplicate status = %d, body %s", rr.Code, rr.Body)
	}
	if body = decode(t, rr); body["success"] != false {
		t.Fatalf("duplicate body = %v", body)
	}

	// The waiting status carries the code.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/session-status/"+token, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body = decode(t, rr); body["status"] != "waiting_pairing" || body["code"] == "" || body["success"] != true {
		t.Fatalf("waiting body = %v", body)
	}

	// The connection opening moves the attempt to paired.
	current.Open()
	deadline := time.Now().Add(2 * time.Second)
	for {
		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/session-status/"+token, nil))
		body = decode(t, rr)
		if body["status"] == "paired" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stuck at %v", body)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Link the device and wait for the session token to appear.
	if err := current.CompletePairing(); err != nil {
		t.Fatalf("complete pairing: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for {
		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/session-status/"+token, nil))
		body = decode(t, rr)
		if body["status"] == "ready" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stuck at %v", body)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if body["success"] != true {
		t.Fatalf("ready body = %v", body)
	}
	sid, _ := body["session_id"].(string)
	if !strings.HasPrefix(sid, "VORTE_") {
		t.Fatalf("session_id = %q", sid)
	}
}

func TestSessionServerRejections(t *testing.T) {
	orch := pairing.New(memtransport.Factory(), t.TempDir())
	t.Cleanup(orch.Close)
	mux := (&SessionServer{Orch: orch}).Mux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/request-code", strings.NewReader(`{"phone":"123"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("short phone status = %d", rr.Code)
	}
	if body := decode(t, rr); body["success"] != false {
		t.Fatalf("short phone body = %v", body)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/request-code", strings.NewReader(`{not json`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/session-status/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown token status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d", rr.Code)
	}
	if body := decode(t, rr); body["status"] != "ok" || body["success"] != true {
		t.Fatalf("health body = %v", body)
	}
}

func TestSessionServerTransportDown(t *testing.T) {
	factory := func(dir string) (transport.Transport, error) {
		tr, err := memtransport.New(dir)
		if err != nil {
			return nil, err
		}
		tr.FailConnect = fmt.Errorf("socket down")
		return tr, nil
	}
	orch := pairing.New(factory, t.TempDir())
	t.Cleanup(orch.Close)
	mux := (&SessionServer{Orch: orch}).Mux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/request-code", strings.NewReader(`{"phone":"15550001111"}`)))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if body := decode(t, rr); body["success"] != false {
		t.Fatalf("body = %v", body)
	}
}

func startedManager(t *testing.T) (*conn.Manager, func() *memtransport.Transport) {
	t.Helper()
	var current *memtransport.Transport
	factory := func(dir string) (transport.Transport, error) {
		tr, err := memtransport.New(dir)
		current = tr
		return tr, err
	}
	m := conn.New(factory, t.TempDir(), nil, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(m.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for m.State() != conn.StateAwaitingPairing {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v", m.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	return m, func() *memtransport.Transport { return current }
}

func TestBotStatusAndPair(t *testing.T) {
	m, tr := startedManager(t)
	mux := (&BotServer{Manager: m, BotName: "vorte", Version: "test", StartedAt: time.Now()}).Mux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decode(t, rr); body["state"] != "awaiting_pairing" || body["name"] != "vorte" {
		t.Fatalf("status body = %v", body)
	}

	// The QR endpoint serves a PNG while pairing is pending.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/qr", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("qr status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("qr content type = %q", ct)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/pair", strings.NewReader(`{"phone":"15550001111"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("pair status = %d, body %s", rr.Code, rr.Body)
	}
	code, _ := decode(t, rr)["code"].(string)
	if !strings.Contains(code, "-") {
		t.Fatalf("code = %q", code)
	}

	// Once the link is up the QR endpoint goes away.
	if err := tr().CompletePairing(); err != nil {
		t.Fatalf("complete pairing: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for m.State() != conn.StateOpen {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v", m.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("GET", "/qr", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("qr after open = %d", rr.Code)
	}
}

func TestBotPairRejectsBadPhone(t *testing.T) {
	m, _ := startedManager(t)
	mux := (&BotServer{Manager: m, BotName: "vorte", Version: "test", StartedAt: time.Now()}).Mux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/pair", strings.NewReader(`{"phone":"12"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestBotPairBeforeConnect(t *testing.T) {
	m := conn.New(memtransport.Factory(), t.TempDir(), nil, nil)
	mux := (&BotServer{Manager: m, BotName: "vorte", Version: "test", StartedAt: time.Now()}).Mux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/pair", strings.NewReader(`{"phone":"15550001111"}`)))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if body := decode(t, rr); body["success"] != false {
		t.Fatalf("body = %v", body)
	}
}
