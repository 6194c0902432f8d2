// Package kafka publishes audit events directly to a Kafka topic. Use the
// postgres outbox store instead when events must commit atomically with
// domain writes; this sink is for deployments without the relay.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "expedientes/pkg/platform/audit"
)

const DefaultTopic = "expedientes.audit"

// Sink produces one JSON record per audit event, keyed by expediente so
// events for the same expediente stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

func NewSink(brokers []string, topic string) (*Sink, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(s.client)
	resps, err := adm.CreateTopics(ctx, partitions, replication, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

type record struct {
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

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	rec := record{
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
		rec.ActorID = event.ActorID.String()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	var key []byte
	if event.ExpedienteID != "" {
		key = []byte(event.ExpedienteID)
	}

	res := s.client.ProduceSync(ctx, &kgo.Record{
		Topic: s.topic,
		Key:   key,
		Value: value,
	})
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}
