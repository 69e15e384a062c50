// Package devserver is a local stand-in for the widget's remote endpoints.
// It lets the widget and its gateway clients be exercised end to end without
// the production backend; it performs no real identity verification.
package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sitechat/pkg/utils"
)

// Handler serves the stub chat endpoints. Issued tokens live in memory for
// the lifetime of the process.
type Handler struct {
	log zerolog.Logger

	mu     sync.Mutex
	tokens map[string]string // token -> visitor name
	next   int
}

// New creates a stub handler.
func New(log zerolog.Logger) *Handler {
	return &Handler{
		log:    log,
		tokens: make(map[string]string),
	}
}

var adviceLines = []string{
	"Don't ship on a Friday.",
	"Read the error message twice before searching for it.",
	"Small commits are easier to revert.",
	"When in doubt, write a test.",
	"Name things for what they do, not how they do it.",
}

type contactPayload struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	ContactType string `json:"contactType"`
	Source      string `json:"source"`
}

// handleContact mints a token for a submitted contact form.
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == "" || payload.Contact == "" {
		utils.RespondError(w, http.StatusBadRequest, "name and contact are required")
		return
	}

	token := uuid.NewString()
	h.mu.Lock()
	h.tokens[token] = payload.Name
	h.mu.Unlock()

	h.log.Info().Str("name", payload.Name).Str("contactType", payload.ContactType).Msg("contact registered")
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"token":     token,
		"sessionId": uuid.NewString(),
	})
}

type messagePayload struct {
	Message string `json:"message"`
}

// handleMessage answers an authenticated chat message with a canned reply.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	name, ok := h.authorize(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	var payload messagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"response": "Thanks " + name + ", noted: \"" + payload.Message + "\". I'll follow up soon.",
	})
}

// handleValidate reports whether a bearer token is still known.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(r); !ok {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

// handleAdvice rotates through a fixed advice pool in the external service's
// response shape.
func (h *Handler) handleAdvice(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	line := adviceLines[h.next%len(adviceLines)]
	h.next++
	h.mu.Unlock()

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"slip": map[string]string{"advice": line},
	})
}

func (h *Handler) authorize(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	name, ok := h.tokens[token]
	return name, ok
}
