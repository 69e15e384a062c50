package chat

import "time"

// AuthSession holds the credentials handed out by the chat backend. At most
// one is active per visitor; a 401 from the backend invalidates it.
type AuthSession struct {
	Token     string `json:"token,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Active reports whether live-API mode is available.
func (s AuthSession) Active() bool {
	return s.Token != ""
}

// StateTTL is how long a persisted snapshot stays loadable.
const StateTTL = 24 * time.Hour

// State is the snapshot written to the store whenever the widget changes
// shape. It is only written once the contact form is complete.
type State struct {
	Visitor      VisitorInfo `json:"userInfo"`
	HasToken     bool        `json:"hasToken"`
	Open         bool        `json:"isActive"`
	FormComplete bool        `json:"isFormComplete"`
	Timestamp    int64       `json:"timestamp"`
}

// Expired reports whether the snapshot is past the retention window.
func (s State) Expired(now time.Time) bool {
	return now.UnixMilli()-s.Timestamp > StateTTL.Milliseconds()
}
