// Package postgres writes audit events through a transactional outbox.
// Events appended inside a domain transaction commit or roll back with it;
// a relay publishes committed rows to Kafka.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "expedientes/pkg/platform/audit"
	txcontext "expedientes/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins an ambient transaction when one is carried in the context so
// the outbox row commits atomically with the domain write.
func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event so the consumer can unmarshal directly.
type outboxPayload struct {
	ID           string `json:"ID"`
	Category     string `json:"Category"`
	Timestamp    string `json:"Timestamp"`
	Action       string `json:"Action"`
	ActorID      string `json:"ActorID,omitempty"`
	ExpedienteID string `json:"ExpedienteID,omitempty"`
	Subject      string `json:"Subject,omitempty"`
	Decision     string `json:"Decision,omitempty"`
	Reason       string `json:"Reason,omitempty"`
	RequestID    string `json:"RequestID,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	payload := outboxPayload{
		ID:           eventID.String(),
		Category:     string(category),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		Action:       event.Action,
		ExpedienteID: event.ExpedienteID,
		Subject:      event.Subject,
		Decision:     event.Decision,
		Reason:       event.Reason,
		RequestID:    event.RequestID,
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if event.ExpedienteID != "" {
		aggregateType = "expediente"
		aggregateID = event.ExpedienteID
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}
