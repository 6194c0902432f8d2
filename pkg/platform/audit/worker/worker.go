// Package worker drains buffered audit events into a store in the
// background so request handlers never block on the audit sink.
package worker

import (
	"context"
	"log/slog"

	audit "expedientes/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A failed
// append is logged and dropped rather than halting the drain loop; the
// audit stream is best-effort, the revision ledger is not.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("audit append failed",
					"action", event.Action,
					"error", err)
			}
		}
	}
}
