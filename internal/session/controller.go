// Package session orchestrates the chat widget: open/close transitions,
// contact-form submission, message flow and state restoration.
package session

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"sitechat/internal/gateway"
	"sitechat/internal/model/chat"
	"sitechat/internal/resolver"
	"sitechat/internal/store"
	"sitechat/internal/validate"
)

// Validation failures are the only errors ever surfaced to the visitor.
var (
	ErrNameRequired    = errors.New("please enter your name")
	ErrContactRequired = errors.New("please enter your email or phone number")
	ErrContactInvalid  = errors.New("please enter a valid email address or phone number")
	ErrEmptyMessage    = errors.New("please type something")
)

// Phase is the widget's coarse state.
type Phase string

const (
	PhaseClosed          Phase = "closed"
	PhaseContactFormOpen Phase = "contact-form"
	PhaseConversing      Phase = "conversing"
)

// Config wires the controller's collaborators.
type Config struct {
	Store   *store.Store
	Gateway *gateway.Client
	View    ViewPort
	Rand    *rand.Rand
	Log     zerolog.Logger

	AutoPopup      bool
	AutoPopupDelay time.Duration

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Controller owns the visitor info, auth session and message history, and is
// the only writer of persisted state.
type Controller struct {
	store *store.Store
	gw    *gateway.Client
	view  ViewPort
	res   *resolver.Resolver
	log   zerolog.Logger
	now   func() time.Time

	autoPopup  bool
	popupDelay time.Duration

	mu      sync.Mutex
	phase   Phase
	visitor chat.VisitorInfo
	auth    chat.AuthSession
	history []chat.Message

	popupTimer *time.Timer
	pending    sync.WaitGroup
}

// New builds a controller. Call Init to restore persisted state and arm the
// auto-popup timer, and Teardown when the hosting page goes away.
func New(cfg Config) *Controller {
	if cfg.View == nil {
		cfg.View = NopViewPort{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Controller{
		store:      cfg.Store,
		gw:         cfg.Gateway,
		view:       cfg.View,
		log:        cfg.Log,
		now:        cfg.Now,
		autoPopup:  cfg.AutoPopup,
		popupDelay: cfg.AutoPopupDelay,
		phase:      PhaseClosed,
	}
	c.res = resolver.New(cfg.Gateway, c.expireAuth, cfg.Rand, cfg.Log)
	return c
}

// Init restores persisted state and, for first-time visitors, schedules the
// auto-popup. Returns whether a prior session was restored.
func (c *Controller) Init(ctx context.Context) bool {
	restored := c.restore(ctx)
	if restored {
		c.log.Debug().Msg("chat state restored from previous visit")
		return true
	}

	if c.autoPopup && !c.store.Interacted() {
		c.popupTimer = time.AfterFunc(c.popupDelay, func() {
			if c.store.Interacted() {
				return
			}
			c.log.Debug().Msg("auto-popup firing")
			c.Open()
		})
	}
	return false
}

// Teardown disarms timers. In-flight resolutions are not cancelled; their
// results still commit if they complete (matching the page-unload model).
func (c *Controller) Teardown() {
	if c.popupTimer != nil {
		c.popupTimer.Stop()
	}
}

// Open shows the widget: straight to the conversation when the contact form
// is already complete, otherwise the contact form.
func (c *Controller) Open() {
	c.store.MarkInteracted()

	c.mu.Lock()
	if c.visitor.Complete() {
		c.phase = PhaseConversing
		history := append([]chat.Message(nil), c.history...)
		visitor := c.visitor
		c.mu.Unlock()

		c.view.ShowConversation()
		c.view.SetVisitor(visitor)
		for _, msg := range history {
			c.view.AppendMessage(msg)
		}
		c.view.ScrollToEnd()
	} else {
		c.phase = PhaseContactFormOpen
		visitor := c.visitor
		c.mu.Unlock()

		c.view.ShowContactForm(visitor)
	}

	c.view.Notify(CuePopup)
	c.persistState()
}

// Close hides the widget. Visitor info, auth and history are retained.
func (c *Controller) Close() {
	c.mu.Lock()
	c.phase = PhaseClosed
	c.mu.Unlock()

	c.view.HideWidget()
	c.view.Notify(CuePopup)
	c.persistState()
}

// SubmitContactForm validates the visitor's input, stores it and exchanges
// it for an auth session. Auth failures never block the transition to the
// conversation; they only decide live-API vs offline mode.
func (c *Controller) SubmitContactForm(ctx context.Context, name, contact string) error {
	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)

	if name == "" {
		return ErrNameRequired
	}
	if contact == "" {
		return ErrContactRequired
	}
	contactType := validate.Classify(contact)
	if contactType == chat.ContactUnset {
		return ErrContactInvalid
	}

	visitor := chat.VisitorInfo{Name: name, Contact: contact, ContactType: contactType}

	c.mu.Lock()
	c.visitor = visitor
	c.mu.Unlock()

	result := c.gw.Authenticate(ctx, visitor)
	if result.APIEnabled {
		c.mu.Lock()
		c.auth = chat.AuthSession{Token: result.Token, SessionID: result.SessionID}
		c.mu.Unlock()
		if err := c.store.SaveToken(result.Token); err != nil {
			c.log.Warn().Err(err).Msg("failed to persist auth token")
		}
		c.log.Info().Msg("api connected, live chat enabled")
	} else {
		c.log.Info().Msg("api offline, contextual chat mode")
	}

	c.mu.Lock()
	c.phase = PhaseConversing
	c.mu.Unlock()

	c.view.SetVisitor(visitor)
	c.view.ShowConversation()
	c.view.Notify(CuePopup)
	c.view.ScrollToEnd()

	if result.Message != "" {
		c.appendBotMessage(result.Message + " I'm still here to help answer your questions!")
	}

	c.persistState()
	return nil
}

// SendUserMessage appends the visitor's message and resolves a reply
// asynchronously. Replies append in completion order; rapid successive
// messages may resolve out of order, which is accepted best-effort behavior.
func (c *Controller) SendUserMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	msg := chat.NewMessage(true, text, c.now())
	msg.ID = uuid.NewString()

	c.mu.Lock()
	c.history = append(c.history, msg)
	visitor := c.visitor
	token := c.auth.Token
	c.mu.Unlock()

	c.view.AppendMessage(msg)
	c.view.Notify(CueSend)
	c.view.ScrollToEnd()
	c.persistHistory()

	req := resolver.Request{Message: text, Visitor: visitor, Token: token}
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		c.appendBotMessage(c.res.Resolve(ctx, req))
	}()

	return nil
}

// EndConversation purges all persisted and in-memory state after an explicit
// confirmation, returning the widget to the contact form.
func (c *Controller) EndConversation(confirmed bool) {
	if !confirmed {
		return
	}

	c.store.Clear()

	c.mu.Lock()
	c.visitor = chat.VisitorInfo{}
	c.auth = chat.AuthSession{}
	c.history = nil
	c.phase = PhaseContactFormOpen
	c.mu.Unlock()

	c.view.SetVisitor(chat.VisitorInfo{})
	c.view.ShowContactForm(chat.VisitorInfo{})
	c.view.Notify(CuePopup)
	c.log.Info().Msg("conversation ended and cleared")
}

// Phase returns the widget's current state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Visitor returns the current visitor info.
func (c *Controller) Visitor() chat.VisitorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visitor
}

// Authenticated reports whether live-API mode is active.
func (c *Controller) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth.Active()
}

// History returns a copy of the message history, oldest first.
func (c *Controller) History() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Message(nil), c.history...)
}

// Wait blocks until in-flight reply resolutions finish. Tests use it to
// observe the post-reply state deterministically.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// restore loads prior state from the store. A restored open conversation
// resumes directly; a closed-but-complete form prefills the visitor info.
func (c *Controller) restore(ctx context.Context) bool {
	state, ok := c.store.LoadState(c.now())
	if !ok || !state.FormComplete {
		return false
	}

	token := c.store.LoadToken()
	if token != "" && !c.gw.ValidateToken(ctx, token) {
		// Stale or unverifiable token: drop it and stay in contextual
		// mode. Visitor info and history survive.
		c.log.Debug().Msg("restored token failed validation, dropping")
		token = ""
	}

	c.mu.Lock()
	c.visitor = state.Visitor
	c.auth = chat.AuthSession{Token: token}
	c.mu.Unlock()

	c.view.SetVisitor(state.Visitor)

	if state.Open {
		history := c.store.LoadHistory()
		c.mu.Lock()
		c.history = history
		c.phase = PhaseConversing
		c.mu.Unlock()

		c.view.ShowConversation()
		for _, msg := range history {
			c.view.AppendMessage(msg)
		}
		c.view.ScrollToEnd()
	} else {
		c.mu.Lock()
		c.history = c.store.LoadHistory()
		c.mu.Unlock()
	}

	return true
}

// expireAuth reacts to a 401 from the message gateway: the persisted session
// is treated as expired and cleared; the conversation keeps flowing in
// contextual mode.
func (c *Controller) expireAuth() {
	c.store.Clear()
	c.mu.Lock()
	c.auth = chat.AuthSession{}
	c.mu.Unlock()
	c.log.Debug().Msg("auth session expired, switching to contextual mode")
}

func (c *Controller) appendBotMessage(text string) {
	msg := chat.NewMessage(false, text, c.now())
	msg.ID = uuid.NewString()

	c.mu.Lock()
	c.history = append(c.history, msg)
	c.mu.Unlock()

	c.view.AppendMessage(msg)
	c.view.Notify(CueReply)
	c.view.ScrollToEnd()
	c.persistHistory()
}

// persistState snapshots the widget shape. Nothing is written while the
// contact form is incomplete.
func (c *Controller) persistState() {
	c.mu.Lock()
	state := chat.State{
		Visitor:      c.visitor,
		HasToken:     c.auth.Active(),
		Open:         c.phase == PhaseConversing,
		FormComplete: c.visitor.Complete(),
		Timestamp:    c.now().UnixMilli(),
	}
	c.mu.Unlock()

	if !state.FormComplete {
		return
	}
	if err := c.store.SaveState(state); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist chat state")
	}
}

func (c *Controller) persistHistory() {
	c.mu.Lock()
	if !c.visitor.Complete() {
		c.mu.Unlock()
		return
	}
	history := append([]chat.Message(nil), c.history...)
	c.mu.Unlock()

	if err := c.store.SaveHistory(history); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist chat history")
	}
}
