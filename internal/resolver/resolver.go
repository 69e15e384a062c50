// Package resolver turns a visitor message into a reply by walking an
// ordered list of strategies and stopping at the first one that produces
// output. The final strategy is total, so Resolve always returns text.
package resolver

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"sitechat/internal/gateway"
	"sitechat/internal/model/chat"
)

// Request carries everything a strategy may need to answer one message.
type Request struct {
	Message string
	Visitor chat.VisitorInfo
	Token   string
}

// Strategy attempts to produce a reply. The boolean reports whether the
// strategy yielded one; a false return hands over to the next strategy.
type Strategy func(ctx context.Context, req Request) (string, bool)

// Resolver walks strategies in priority order.
type Resolver struct {
	strategies []Strategy
	log        zerolog.Logger
}

// New assembles the production cascade: live API, contextual matching,
// external advice, guaranteed static reply. onUnauthorized fires when the
// backend rejects the bearer token so the owner can reset persisted auth.
func New(gw *gateway.Client, onUnauthorized func(), rng *rand.Rand, log zerolog.Logger) *Resolver {
	return Compose(log,
		LiveAPI(gw, onUnauthorized, log),
		Contextual(rng),
		AdviceFallback(gw, log),
		Guaranteed(),
	)
}

// Compose builds a resolver from an explicit strategy list. The last
// strategy must be total; Guaranteed satisfies that.
func Compose(log zerolog.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, log: log}
}

// Resolve returns the first strategy hit. Exactly one strategy's output is
// used per message.
func (r *Resolver) Resolve(ctx context.Context, req Request) string {
	for i, strategy := range r.strategies {
		if reply, ok := strategy(ctx, req); ok {
			r.log.Debug().Int("strategy", i).Msg("reply resolved")
			return reply
		}
	}
	// Unreachable with a total terminal strategy; kept so a miswired
	// cascade still answers.
	return "Thanks for your message! I'm here to help with any questions you might have."
}

// LiveAPI forwards the message to the chat backend. It only engages when an
// auth session and a message are present.
func LiveAPI(gw *gateway.Client, onUnauthorized func(), log zerolog.Logger) Strategy {
	return func(ctx context.Context, req Request) (string, bool) {
		if req.Token == "" || req.Message == "" {
			return "", false
		}
		reply, err := gw.SendMessage(ctx, req.Token, req.Visitor, req.Message)
		if err != nil {
			if errors.Is(err, gateway.ErrUnauthorized) && onUnauthorized != nil {
				onUnauthorized()
			}
			log.Debug().Err(err).Msg("live API unavailable, falling through")
			return "", false
		}
		return reply, true
	}
}

// AdviceFallback wraps one line from the external advice service into a
// templated reply. Reached when contextual matching is skipped.
func AdviceFallback(gw *gateway.Client, log zerolog.Logger) Strategy {
	return func(ctx context.Context, req Request) (string, bool) {
		advice, err := gw.Advice(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("advice service unavailable, falling through")
			return "", false
		}
		name := req.Visitor.Name
		if name == "" {
			name = "there"
		}
		return "Hi " + name + "! Here's some wisdom: " + advice + " 💡", true
	}
}

// Guaranteed never misses. Personalized when the visitor is known.
func Guaranteed() Strategy {
	return func(_ context.Context, req Request) (string, bool) {
		if req.Visitor.Name != "" {
			return "Thanks for your message, " + req.Visitor.Name +
				"! I've received it and our team will get back to you via your " +
				req.Visitor.ContactType.Phrase() +
				". Feel free to ask me anything else! 😊", true
		}
		return "Thanks for your message! I'm here to help with any questions you might have. What else would you like to know? 😊", true
	}
}
