// Package store persists widget state across page loads. It is the Go
// counterpart of a per-origin key-value store: one file per namespaced key
// under a state directory, JSON-encoded, with a retention window enforced on
// load.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"sitechat/internal/model/chat"
)

const (
	stateKey   = "chat-state.json"
	historyKey = "chat-history.json"
	tokenKey   = "auth-token"
)

// Store is a file-backed key-value store for the widget's persisted state.
// The interaction flag is process-scoped and never written to disk, matching
// session-storage semantics.
type Store struct {
	dir string
	log zerolog.Logger

	mu         sync.Mutex
	interacted bool
}

// New ensures the state directory exists and returns a store rooted there.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "ensure state dir")
	}
	return &Store{dir: dir, log: log}, nil
}

// SaveState writes the widget snapshot. Callers must not persist snapshots
// for an incomplete contact form; the store rejects them as a safety net.
func (s *Store) SaveState(state chat.State) error {
	if !state.Visitor.Complete() {
		return errors.New("refusing to persist incomplete visitor info")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(stateKey, state)
}

// LoadState returns the persisted snapshot if one exists and is still inside
// the retention window. Stale or unreadable snapshots are purged and reported
// as absent.
func (s *Store) LoadState(now time.Time) (chat.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state chat.State
	if !s.readJSON(stateKey, &state) {
		return chat.State{}, false
	}
	if state.Expired(now) {
		s.log.Debug().Msg("persisted chat state expired, purging")
		s.clearLocked()
		return chat.State{}, false
	}
	return state, true
}

// SaveHistory replaces the stored message history.
func (s *Store) SaveHistory(history []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if history == nil {
		history = []chat.Message{}
	}
	return s.writeJSON(historyKey, history)
}

// LoadHistory returns the stored message history, oldest first. A missing or
// corrupt entry yields an empty history.
func (s *Store) LoadHistory() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []chat.Message
	if !s.readJSON(historyKey, &history) {
		return nil
	}
	return history
}

// SaveToken stores the raw auth token under its own key.
func (s *Store) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		return nil
	}
	err := os.WriteFile(s.path(tokenKey), []byte(token), 0o600)
	return errors.Wrap(err, "write auth token")
}

// LoadToken returns the stored auth token, or "" when absent.
func (s *Store) LoadToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(tokenKey))
	if err != nil {
		return ""
	}
	return string(data)
}

// Clear removes every persisted key. Used on conversation end and on auth
// expiry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// MarkInteracted records that the visitor touched the widget during this
// process lifetime. Auto-popup consults it.
func (s *Store) MarkInteracted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interacted = true
}

// Interacted reports whether the visitor already interacted this session.
func (s *Store) Interacted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interacted
}

func (s *Store) clearLocked() {
	for _, key := range []string{stateKey, historyKey, tokenKey} {
		if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to remove persisted key")
		}
	}
}

func (s *Store) writeJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return errors.Wrapf(os.WriteFile(s.path(key), data, 0o644), "write %s", key)
}

// readJSON reports whether the key existed and decoded cleanly. Malformed
// entries are logged and removed so the caller sees a clean absence.
func (s *Store) readJSON(key string, v any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("corrupt persisted entry, resetting")
		s.clearLocked()
		return false
	}
	return true
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key)
}
