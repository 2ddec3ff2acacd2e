package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LukhazD/pyform-sub000/internal/mq"
	"github.com/LukhazD/pyform-sub000/internal/observability"
)

// EventSubmissionAccepted is the key under which accepted submissions are
// published to the event topic.
const EventSubmissionAccepted = "submission.accepted"

// AcceptedEvent is the payload published after a submission is stored.
type AcceptedEvent struct {
	SubmissionID string    `json:"submissionId"`
	FormID       string    `json:"formId"`
	AcceptedAt   time.Time `json:"acceptedAt"`
}

// Coordinator stores submissions and publishes acceptance events. It is the
// Submit implementation the session layer calls exactly once per submit
// action.
type Coordinator struct {
	store    Store
	producer *mq.Producer
}

// NewCoordinator constructs a coordinator. The producer may be nil, in which
// case events are skipped and only durable storage happens.
func NewCoordinator(store Store, producer *mq.Producer) *Coordinator {
	return &Coordinator{store: store, producer: producer}
}

// Submit durably stores the assembled submission, then publishes the
// acceptance event. Durable storage alone decides success; a publish failure
// is logged and the event is lost rather than the response.
func (c *Coordinator) Submit(ctx context.Context, sub Submission) (string, error) {
	if c == nil || c.store == nil {
		return "", errors.New("submission: coordinator not configured")
	}

	rec, err := ToRecord(sub)
	if err != nil {
		return "", err
	}
	if err := c.store.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("submission: store: %w", err)
	}

	observability.SubmissionsAccepted.WithLabelValues(sub.FormID).Inc()

	if c.producer != nil {
		event := AcceptedEvent{
			SubmissionID: rec.ID,
			FormID:       rec.FormID,
			AcceptedAt:   rec.CreatedAt,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("submission: encode event for %s: %v", rec.ID, err)
			return rec.ID, nil
		}
		if err := c.producer.Publish(ctx, mq.Event{Key: EventSubmissionAccepted, Value: payload}); err != nil {
			log.Printf("submission: publish event for %s: %v", rec.ID, err)
		}
	}

	return rec.ID, nil
}
