// Package gateway talks to the chat backend and to the external advice
// service. Backend trouble is never surfaced as a hard failure: callers get a
// degraded-but-usable result and the conversation keeps flowing.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"sitechat/internal/model/chat"
)

// ErrUnauthorized marks a rejected bearer token. The session controller
// clears all persisted auth state when it sees this.
var ErrUnauthorized = errors.New("auth token rejected")

// ErrUnavailable covers every transient backend failure: network errors, 5xx
// responses and malformed payloads.
var ErrUnavailable = errors.New("chat backend unavailable")

// AuthResult is what Authenticate always returns. OK is always true; only
// APIEnabled distinguishes live-API mode from offline mode.
type AuthResult struct {
	OK         bool
	APIEnabled bool
	Token      string
	SessionID  string
	Offline    bool
	Message    string
}

// Client is an HTTP client for the widget's remote endpoints.
type Client struct {
	baseURL   string
	adviceURL string
	userAgent string
	referrer  string
	http      *http.Client
	log       zerolog.Logger
}

// Option tweaks client construction.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPageContext sets the user agent and referrer reported on auth.
func WithPageContext(userAgent, referrer string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
		c.referrer = referrer
	}
}

// New builds a gateway client for the given backend base URL and advice
// fallback URL.
func New(baseURL, adviceURL string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		adviceURL: adviceURL,
		userAgent: "sitechat-widget",
		referrer:  "direct",
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type authRequest struct {
	Name        string           `json:"name"`
	Contact     string           `json:"contact"`
	ContactType chat.ContactType `json:"contactType"`
	Source      string           `json:"source"`
	Timestamp   string           `json:"timestamp"`
	UserAgent   string           `json:"userAgent"`
	Referrer    string           `json:"referrer"`
}

type authResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Authenticate exchanges visitor contact info for a session token. It never
// reports failure: any backend problem degrades to offline mode so the
// conversation is not blocked.
func (c *Client) Authenticate(ctx context.Context, visitor chat.VisitorInfo) AuthResult {
	offline := AuthResult{OK: true, APIEnabled: false, Offline: true}

	body := authRequest{
		Name:        visitor.Name,
		Contact:     visitor.Contact,
		ContactType: visitor.ContactType,
		Source:      "chat-widget",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UserAgent:   c.userAgent,
		Referrer:    c.referrer,
	}

	resp, err := c.postJSON(ctx, c.baseURL+"/api/v1/chat", "", body)
	if err != nil {
		c.log.Debug().Err(err).Msg("auth gateway unreachable, entering offline mode")
		return offline
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.log.Debug().Int("status", resp.StatusCode).Msg("auth gateway server error, entering offline mode")
		return offline
	}
	if resp.StatusCode >= 400 {
		c.log.Debug().Int("status", resp.StatusCode).Msg("auth gateway rejected contact info, entering offline mode")
		offline.Message = "There was an issue with the provided information, but you can still chat with me!"
		return offline
	}

	var payload authResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Token == "" {
		c.log.Debug().Err(err).Msg("auth gateway returned no token, entering offline mode")
		return offline
	}

	return AuthResult{
		OK:         true,
		APIEnabled: true,
		Token:      payload.Token,
		SessionID:  payload.SessionID,
	}
}

type messageRequest struct {
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
	UserInfo  messageUserInfo `json:"userInfo"`
}

type messageUserInfo struct {
	Name        string           `json:"name"`
	ContactType chat.ContactType `json:"contactType"`
}

type messageResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
}

// SendMessage delivers one message under bearer auth and returns the server
// reply. ErrUnauthorized means the token is dead and persisted auth state
// must be cleared; ErrUnavailable is transient and leaves the session alone.
func (c *Client) SendMessage(ctx context.Context, token string, visitor chat.VisitorInfo, text string) (string, error) {
	if token == "" {
		return "", ErrUnavailable
	}

	body := messageRequest{
		Message:   text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UserInfo: messageUserInfo{
			Name:        visitor.Name,
			ContactType: visitor.ContactType,
		},
	}

	resp, err := c.postJSON(ctx, c.baseURL+"/api/v1/chat/message", token, body)
	if err != nil {
		c.log.Debug().Err(err).Msg("message gateway unreachable")
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Debug().Msg("auth token expired")
		return "", ErrUnauthorized
	case resp.StatusCode >= 400:
		c.log.Debug().Int("status", resp.StatusCode).Msg("message gateway error")
		return "", ErrUnavailable
	}

	var payload messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Debug().Err(err).Msg("malformed message gateway response")
		return "", ErrUnavailable
	}

	switch {
	case payload.Response != "":
		return payload.Response, nil
	case payload.Message != "":
		return payload.Message, nil
	default:
		return "Thank you for your message!", nil
	}
}

// ValidateToken checks a stored bearer token against the backend. Only an
// explicit 401 reports false with certainty; network trouble counts as
// invalid too, so callers should treat false as "do not rely on this token".
func (c *Client) ValidateToken(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/chat/validate", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("token validation unreachable")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 300
}

type adviceResponse struct {
	Slip struct {
		Advice string `json:"advice"`
	} `json:"slip"`
}

// Advice fetches one line of wisdom from the external fallback service.
func (c *Client) Advice(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.adviceURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build advice request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetch advice")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("advice service status %d", resp.StatusCode)
	}

	var payload adviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "decode advice response")
	}
	if payload.Slip.Advice == "" {
		return "", errors.New("empty advice response")
	}
	return payload.Slip.Advice, nil
}

func (c *Client) postJSON(ctx context.Context, url, token string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}
