package agent

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler exposes the push agent over HTTP the way the hosting platform
// invokes it: a single POST endpoint taking the JSON push payload.
type Handler struct {
	agent *Agent
	log   zerolog.Logger
}

func GetHttpHandler(pushAgent *Agent, log zerolog.Logger) *Handler {
	return &Handler{agent: pushAgent, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	payload := &PushRequest{}
	if err := decoder.Decode(payload); err != nil {
		h.log.Error().Err(err).Msg("No valid JSON payload")
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if payload.Body == nil {
		h.log.Error().Msg("Missing 'body' in payload")
		http.Error(w, "Missing 'body' field", http.StatusBadRequest)
		return
	}

	ctx := h.log.WithContext(r.Context())
	page, err := h.agent.Push(ctx, payload)
	if err != nil {
		if errors.Is(err, ErrMissingBody) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(page); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write response body")
	}
}
