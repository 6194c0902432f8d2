package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "expedientes/pkg/platform/audit"
	auditmemory "expedientes/pkg/platform/audit/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerDrainsInbox(t *testing.T) {
	store := auditmemory.NewInMemoryStore()
	inbox := make(chan audit.Event, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(store, inbox, discardLogger()).Run(ctx) }()

	inbox <- audit.Event{Action: string(audit.EventExpedienteCreated)}
	inbox <- audit.Event{Action: string(audit.EventExpedienteSubmitted)}

	require.Eventually(t, func() bool {
		return len(store.Events()) == 2
	}, time.Second, 5*time.Millisecond)

	events := store.Events()
	assert.Equal(t, string(audit.EventExpedienteCreated), events[0].Action, "events keep arrival order")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

// flakyStore fails every append until the failure budget runs out.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	appended []audit.Event
}

func (s *flakyStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.appended = append(s.appended, event)
	return nil
}

func (s *flakyStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appended)
}

func TestWorkerSurvivesAppendFailures(t *testing.T) {
	store := &flakyStore{failures: 1}
	inbox := make(chan audit.Event, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewWorker(store, inbox, discardLogger()).Run(ctx) }()

	// The first event hits the failing sink and is dropped; the loop keeps
	// draining and the second event lands.
	inbox <- audit.Event{Action: string(audit.EventLoginFailed)}
	inbox <- audit.Event{Action: string(audit.EventLoginSucceeded)}

	require.Eventually(t, func() bool {
		return store.count() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, string(audit.EventLoginSucceeded), store.appended[0].Action)
}
