package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vorte-labs/vorte/internal/pairing"
)

// SessionServer serves the pairing flow for new bot deployments.
type SessionServer struct {
	Orch *pairing.Orchestrator
}

// Mux builds the session server routes.
func (s *SessionServer) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/request-code", s.handleRequestCode)
	mux.HandleFunc("GET /api/session-status/{token}", s.handleSessionStatus)
	return mux
}

const indexPage = `<!doctype html>
<html>
<head><title>vorte session server</title></head>
<body>
<h1>vorte session server</h1>
<p>POST /api/request-code with {"phone": "+15550001111"} to begin pairing,
then poll GET /api/session-status/&lt;token&gt; until the session token appears.</p>
</body>
</html>
`

func (s *SessionServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

func (s *SessionServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
		"active":  s.Orch.Active(),
	})
}

// requestCodeRequest is the JSON body for POST /api/request-code.
type requestCodeRequest struct {
	Phone string `json:"phone"`
}

func (s *SessionServer) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	snap, err := s.Orch.RequestCode(r.Context(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, pairing.ErrBadPhone):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, pairing.ErrDuplicatePhone):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, pairing.ErrTransportUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   snap.Token,
		"code":    snap.Code,
		"status":  string(snap.Status),
	})
}

func (s *SessionServer) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Orch.Poll(r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	resp := map[string]any{
		"success": true,
		"status":  string(snap.Status),
	}
	switch snap.Status {
	case pairing.StatusWaiting, pairing.StatusPaired:
		resp["code"] = snap.Code
	case pairing.StatusReady:
		resp["session_id"] = snap.SessionID
	case pairing.StatusError:
		resp["success"] = false
		resp["error"] = snap.Error
	}
	writeJSON(w, http.StatusOK, resp)
}
