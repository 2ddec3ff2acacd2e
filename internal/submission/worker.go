package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/LukhazD/pyform-sub000/internal/mq"
)

// Worker consumes acceptance events and maintains per-form response
// counters. Heavier aggregation lives outside this service.
type Worker struct {
	store Store
}

// NewWorker constructs a worker over the submission store.
func NewWorker(store Store) *Worker {
	return &Worker{store: store}
}

// HandleEvent processes one event from the submissions topic.
func (w *Worker) HandleEvent(ctx context.Context, event mq.Event) error {
	if w == nil || w.store == nil {
		return fmt.Errorf("submission: worker not initialised")
	}
	if event.Key != EventSubmissionAccepted {
		return nil
	}

	var payload AcceptedEvent
	if err := json.Unmarshal(event.Value, &payload); err != nil {
		return fmt.Errorf("submission: decode event: %w", err)
	}
	if strings.TrimSpace(payload.FormID) == "" {
		return fmt.Errorf("submission: event missing form id")
	}

	if err := w.store.IncrementResponses(ctx, payload.FormID); err != nil {
		return fmt.Errorf("submission: count response for form %s: %w", payload.FormID, err)
	}

	log.Printf("submission worker: counted response %s for form %s", payload.SubmissionID, payload.FormID)
	return nil
}

// RunConsumer starts the provided consumer with the worker handler.
func (w *Worker) RunConsumer(ctx context.Context, consumer *mq.Consumer) error {
	if consumer == nil {
		return fmt.Errorf("submission: consumer is nil")
	}
	return consumer.Run(ctx)
}
