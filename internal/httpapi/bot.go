package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/vorte-labs/vorte/internal/bus"
	"github.com/vorte-labs/vorte/internal/conn"
	"github.com/vorte-labs/vorte/internal/pairing"
	"github.com/vorte-labs/vorte/internal/stats"
)

// BotServer is the status and control API of a running bot daemon.
type BotServer struct {
	Manager   *conn.Manager
	Stats     *stats.Store
	Bus       *bus.Bus
	BotName   string
	Version   string
	StartedAt time.Time
}

// Mux builds the bot API routes.
func (s *BotServer) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/pair", s.handlePair)
	mux.HandleFunc("GET /qr", s.handleQR)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	return mux
}

func (s *BotServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *BotServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"name":    s.BotName,
		"version": s.Version,
		"state":   s.Manager.State().String(),
		"uptime":  time.Since(s.StartedAt).Round(time.Second).String(),
	}
	if s.Stats != nil {
		t := s.Stats.Totals()
		resp["messages"] = t.Messages
		resp["commands"] = t.Commands
		resp["conversations"] = t.Conversations
	}
	writeJSON(w, http.StatusOK, resp)
}

// pairRequest is the JSON body for POST /api/pair.
type pairRequest struct {
	Phone string `json:"phone"`
}

func (s *BotServer) handlePair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	phone, err := pairing.NormalizePhone(req.Phone)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code, err := s.Manager.RequestPairingCode(r.Context(), phone)
	if err != nil {
		if errors.Is(err, conn.ErrNotConnected) {
			writeError(w, http.StatusServiceUnavailable, "bot is not connected yet, try again in a moment")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": pairing.FormatCode(code)})
}

func (s *BotServer) handleQR(w http.ResponseWriter, r *http.Request) {
	payload := s.Manager.LatestQR()
	if payload == "" {
		writeError(w, http.StatusNotFound, "no login QR pending")
		return
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleEvents streams bot events over SSE. Recent events are replayed
// on connect so a fresh client gets context.
func (s *BotServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.Bus == nil {
		writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, done := s.Bus.Subscribe()
	defer s.Bus.Unsubscribe(done)
	slog.Info("event stream client connected", "subscribers", s.Bus.SubscriberCount())

	for _, e := range s.Bus.Recent(50) {
		fmt.Fprintf(w, "data: %s\n\n", e.MarshalEvent())
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("event stream client disconnected", "subscribers", s.Bus.SubscriberCount()-1)
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", evt.MarshalEvent())
			flusher.Flush()
		}
	}
}
