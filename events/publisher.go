// events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"tournament-join-service/config"
	"tournament-join-service/logger"
)

const (
	StreamName = "REGISTRATIONS"

	SubjectSucceeded = "registrations.succeeded"
	SubjectExpired   = "registrations.expired"
	SubjectFailed    = "registrations.failed"
)

// RegistrationEvent is published when a session reaches a terminal phase.
type RegistrationEvent struct {
	SessionID      string    `json:"sessionId"`
	UserID         string    `json:"userId"`
	TournamentID   string    `json:"tournamentId"`
	RegistrationID string    `json:"registrationId,omitempty"`
	TeamName       string    `json:"teamName"`
	Phase          string    `json:"phase"`
	Reason         string    `json:"reason,omitempty"`
	OrderID        string    `json:"orderId,omitempty"`
	PaymentID      string    `json:"paymentId,omitempty"`
	AmountMinor    int64     `json:"amountMinor,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher is what the session layer needs from the event bus.
type Publisher interface {
	PublishRegistration(ctx context.Context, subject string, evt RegistrationEvent) error
	Close() error
}

// NopPublisher is used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishRegistration(context.Context, string, RegistrationEvent) error { return nil }
func (NopPublisher) Close() error                                                       { return nil }

type JetStreamPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
	log  *logger.Logger
}

// NewPublisher connects to NATS and makes sure the registrations stream exists.
// An empty URL yields a NopPublisher.
func NewPublisher(ctx context.Context, cfg config.NATSConfig, log *logger.Logger) (Publisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.URL == "" {
		log.Info("[EVENTS] NATS_URL not set, registration events disabled")
		return NopPublisher{}, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("[EVENTS] NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("[EVENTS] NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"registrations.>"},
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", StreamName, err)
	}

	return &JetStreamPublisher{conn: nc, js: js, log: log}, nil
}

func (p *JetStreamPublisher) PublishRegistration(ctx context.Context, subject string, evt RegistrationEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal registration event: %w", err)
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

func (p *JetStreamPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// SubjectForPhase maps a terminal phase name to its subject. Non-terminal phases return "".
func SubjectForPhase(phase string) string {
	switch phase {
	case "SUCCEEDED":
		return SubjectSucceeded
	case "EXPIRED":
		return SubjectExpired
	case "FAILED":
		return SubjectFailed
	}
	return ""
}
