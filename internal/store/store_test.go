package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sitechat/internal/model/chat"
	"sitechat/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("store.New err: %v", err)
	}
	return s
}

func sampleState(now time.Time) chat.State {
	return chat.State{
		Visitor: chat.VisitorInfo{
			Name:        "Ana",
			Contact:     "ana@test.com",
			ContactType: chat.ContactEmail,
		},
		HasToken:     true,
		Open:         true,
		FormComplete: true,
		Timestamp:    now.UnixMilli(),
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := newStore(t)
	now := time.Now()

	if err := s.SaveState(sampleState(now)); err != nil {
		t.Fatalf("SaveState err: %v", err)
	}

	got, ok := s.LoadState(now.Add(time.Hour))
	if !ok {
		t.Fatal("expected state within retention window")
	}
	if got.Visitor.Name != "Ana" || got.Visitor.ContactType != chat.ContactEmail {
		t.Fatalf("unexpected visitor: %+v", got.Visitor)
	}
	if !got.Open || !got.FormComplete || !got.HasToken {
		t.Fatalf("unexpected flags: %+v", got)
	}
}

func TestStateExpiryPurges(t *testing.T) {
	s := newStore(t)
	now := time.Now()

	if err := s.SaveState(sampleState(now)); err != nil {
		t.Fatalf("SaveState err: %v", err)
	}
	if err := s.SaveToken("tok-1"); err != nil {
		t.Fatalf("SaveToken err: %v", err)
	}

	if _, ok := s.LoadState(now.Add(chat.StateTTL + time.Minute)); ok {
		t.Fatal("expected expired state to be absent")
	}
	// Expiry clears the whole namespace, token included.
	if tok := s.LoadToken(); tok != "" {
		t.Fatalf("expected token purged, got %q", tok)
	}
	if _, ok := s.LoadState(now); ok {
		t.Fatal("expected purged state to stay absent")
	}
}

func TestIncompleteVisitorRejected(t *testing.T) {
	s := newStore(t)
	state := sampleState(time.Now())
	state.Visitor.Contact = ""

	if err := s.SaveState(state); err == nil {
		t.Fatal("expected error persisting incomplete visitor info")
	}
}

func TestHistoryRoundTripKeepsOrder(t *testing.T) {
	s := newStore(t)
	now := time.Now()
	history := []chat.Message{
		chat.NewMessage(true, "hello", now),
		chat.NewMessage(false, "hi Ana", now.Add(time.Second)),
		chat.NewMessage(true, "thanks!", now.Add(2*time.Second)),
	}

	if err := s.SaveHistory(history); err != nil {
		t.Fatalf("SaveHistory err: %v", err)
	}

	got := s.LoadHistory()
	if len(got) != len(history) {
		t.Fatalf("history length: got %d want %d", len(got), len(history))
	}
	for i := range history {
		if got[i].Text != history[i].Text || got[i].FromUser != history[i].FromUser {
			t.Fatalf("history[%d] mismatch: got %+v want %+v", i, got[i], history[i])
		}
	}
}

func TestCorruptStateTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.New err: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "chat-state.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, ok := s.LoadState(time.Now()); ok {
		t.Fatal("expected corrupt state to read as absent")
	}
}

func TestInteractionFlagIsProcessScoped(t *testing.T) {
	s := newStore(t)
	if s.Interacted() {
		t.Fatal("fresh store should not be interacted")
	}
	s.MarkInteracted()
	if !s.Interacted() {
		t.Fatal("expected interacted after MarkInteracted")
	}
	s.Clear()
	if !s.Interacted() {
		t.Fatal("Clear must not reset the session interaction flag")
	}
}
