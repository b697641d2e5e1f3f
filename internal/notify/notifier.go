// Package notify delivers best-effort user notifications.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notification types emitted by the club workflows.
const (
	TypePromotion      = "promotion"
	TypeLink           = "link"
	TypeTeamProposal   = "team_proposal"
	TypeTeamAssignment = "team_assignment"
	TypeTournament     = "tournament"
)

// Event is a request to notify one user.
type Event struct {
	UserID  uint   `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Emitter is what services depend on: fire-and-forget delivery.
type Emitter interface {
	Emit(ctx context.Context, events ...Event)
}

// Dispatcher fans events out to every sink. Sink failures are logged and
// dropped; Emit never reports an error to the caller.
type Dispatcher struct {
	sinks []Notifier
	log   zerolog.Logger
}

func NewDispatcher(log zerolog.Logger, sinks ...Notifier) *Dispatcher {
	return &Dispatcher{sinks: sinks, log: log.With().Str("component", "notify").Logger()}
}

func (d *Dispatcher) Emit(ctx context.Context, events ...Event) {
	for _, ev := range events {
		for _, sink := range d.sinks {
			d.deliver(ctx, sink, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink Notifier, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Uint("user_id", ev.UserID).Str("type", ev.Type).
				Msg("notification sink panicked")
		}
	}()
	if err := sink.Notify(ctx, ev); err != nil {
		d.log.Warn().Err(err).Uint("user_id", ev.UserID).Str("type", ev.Type).
			Msg("notification dropped")
	}
}

// Discard is an Emitter that drops everything.
type Discard struct{}

func (Discard) Emit(context.Context, ...Event) {}
