// Package session hosts the respondent-facing runtime: one Session per
// (form, respondent) owns the answer map and the navigation state machine,
// and every input channel goes through the same guarded Next/Prev/Submit
// transitions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LukhazD/pyform-sub000/internal/module"
	"github.com/LukhazD/pyform-sub000/internal/observability"
	"github.com/LukhazD/pyform-sub000/internal/snapshot"
	"github.com/LukhazD/pyform-sub000/internal/submission"
	"github.com/LukhazD/pyform-sub000/internal/validate"
)

// Status is the lifecycle phase of a session.
type Status string

const (
	// StatusActive accepts answers and navigation.
	StatusActive Status = "active"
	// StatusSubmitting has a submit in flight; further transitions are dropped.
	StatusSubmitting Status = "submitting"
	// StatusCompleted holds the terminal screen after a successful submit.
	StatusCompleted Status = "completed"
)

var (
	ErrSessionNotFound = errors.New("session: no session with that id")
	ErrFormNotFound    = errors.New("session: form not found")
	ErrFormClosed      = errors.New("session: form is not accepting responses")
	ErrNoModules       = errors.New("session: form has no modules")
	ErrUnknownModule   = errors.New("session: no module with that id")
	ErrCooldown        = errors.New("session: transition dropped during cooldown")
	ErrSubmitting      = errors.New("session: submit already in flight")
)

// ValidationError carries the reason a forward transition was blocked. It is
// a user signal, not a system failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "session: blocked by validation: " + e.Reason
}

// Submitter performs the one network/store call of a submit action.
type Submitter interface {
	Submit(ctx context.Context, sub submission.Submission) (string, error)
}

// State is the caller-visible session snapshot returned by every operation.
type State struct {
	SessionID    string         `json:"sessionId"`
	FormID       string         `json:"formId"`
	Status       Status         `json:"status"`
	CurrentIndex int            `json:"currentIndex"`
	Direction    int            `json:"direction"`
	Total        int            `json:"total"`
	Module       *module.Module `json:"module,omitempty"`
	Answers      map[string]any `json:"answers"`
	SubmissionID string         `json:"submissionId,omitempty"`
	Resumed      bool           `json:"resumed,omitempty"`
}

// Session drives one respondent through one form. All methods are safe for
// concurrent use; transitions are serialised by the internal mutex and the
// cooldown window.
type Session struct {
	mu sync.Mutex

	id           string
	formID       string
	respondentID string
	preview      bool

	modules []module.Module
	answers map[string]any

	current   int
	direction int
	status    Status

	lockedUntil      time.Time
	firstInteraction time.Time
	submissionID     string
	resumed          bool

	cooldown  time.Duration
	now       func() time.Time
	store     *snapshot.Store
	submitter Submitter
	client    submission.ClientInfo
}

func (s *Session) stateLocked() State {
	st := State{
		SessionID:    s.id,
		FormID:       s.formID,
		Status:       s.status,
		CurrentIndex: s.current,
		Direction:    s.direction,
		Total:        len(s.modules),
		Answers:      make(map[string]any, len(s.answers)),
		SubmissionID: s.submissionID,
		Resumed:      s.resumed,
	}
	for k, v := range s.answers {
		st.Answers[k] = v
	}
	if s.current >= 0 && s.current < len(s.modules) {
		m := s.modules[s.current]
		st.Module = &m
	}
	return st
}

// State returns the current caller-visible snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Answer records the respondent's value for a module and rewrites the resume
// snapshot. Answers are accepted for any answerable module so retreating and
// re-answering works.
func (s *Session) Answer(moduleID string, value any) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return s.stateLocked(), ErrSubmitting
	}

	var target *module.Module
	for i := range s.modules {
		if s.modules[i].ClientID == moduleID {
			target = &s.modules[i]
			break
		}
	}
	if target == nil {
		return s.stateLocked(), ErrUnknownModule
	}
	if !target.Type.Answerable() {
		return s.stateLocked(), fmt.Errorf("%w: %s takes no answer", ErrUnknownModule, target.Type)
	}

	if s.firstInteraction.IsZero() {
		s.firstInteraction = s.now()
	}
	s.answers[moduleID] = value
	s.persistSnapshot()

	return s.stateLocked(), nil
}

// Next advances one position after the current module's answer passes
// validation. At the submit boundary, when no answerable module remains
// ahead, it triggers submission instead of advancing. Attempts during the
// cooldown window or while a submit is in flight are dropped, not queued.
func (s *Session) Next(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusCompleted:
		// Idempotent at the terminal boundary: never submits twice.
		return s.stateLocked(), nil
	case StatusSubmitting:
		return s.stateLocked(), ErrSubmitting
	}
	if s.now().Before(s.lockedUntil) {
		return s.stateLocked(), ErrCooldown
	}

	current := s.modules[s.current]
	if result := validate.Answer(current, s.answers[current.ClientID]); !result.Valid {
		observability.NavigationsBlocked.Inc()
		return s.stateLocked(), &ValidationError{Reason: result.Reason}
	}

	if s.atSubmitBoundary() {
		return s.submitLocked(ctx)
	}

	if s.current < len(s.modules)-1 {
		s.current++
		s.direction = 1
		s.lockedUntil = s.now().Add(s.cooldown)
		s.persistSnapshot()
	}
	return s.stateLocked(), nil
}

// Prev retreats one position without validation. A no-op at index zero.
func (s *Session) Prev() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return s.stateLocked(), ErrSubmitting
	}
	if s.now().Before(s.lockedUntil) {
		return s.stateLocked(), ErrCooldown
	}
	if s.current == 0 {
		return s.stateLocked(), nil
	}

	s.current--
	s.direction = -1
	s.lockedUntil = s.now().Add(s.cooldown)
	s.persistSnapshot()
	return s.stateLocked(), nil
}

// Submit runs the explicit submit action: the current module is validated
// with the same gate as Next, then the assembled payload is transmitted
// exactly once.
func (s *Session) Submit(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusCompleted:
		return s.stateLocked(), nil
	case StatusSubmitting:
		return s.stateLocked(), ErrSubmitting
	}

	current := s.modules[s.current]
	if result := validate.Answer(current, s.answers[current.ClientID]); !result.Valid {
		observability.NavigationsBlocked.Inc()
		return s.stateLocked(), &ValidationError{Reason: result.Reason}
	}

	return s.submitLocked(ctx)
}

// atSubmitBoundary reports whether no answerable module exists after the
// current index. The boundary is capability-based rather than positional so
// reordering informational modules cannot break it.
func (s *Session) atSubmitBoundary() bool {
	for i := s.current + 1; i < len(s.modules); i++ {
		if s.modules[i].Type.Answerable() {
			return false
		}
	}
	return true
}

// terminalIndex returns the position of the goodbye screen, or -1 when the
// form has none.
func (s *Session) terminalIndex() int {
	for i := range s.modules {
		if s.modules[i].Type == module.TypeGoodbye {
			return i
		}
	}
	return -1
}

// submitLocked transmits the assembled payload. The mutex stays held for the
// duration, so a concurrent submit attempt resolves to the in-flight guard
// or the completed no-op; exactly one transmission happens.
func (s *Session) submitLocked(ctx context.Context) (State, error) {
	s.status = StatusSubmitting

	var completionMs int64
	if !s.firstInteraction.IsZero() {
		completionMs = s.now().Sub(s.firstInteraction).Milliseconds()
	}

	sub := submission.Assemble(s.formID, s.respondentID, s.modules, s.answers, s.client, completionMs)

	id, err := s.submitter.Submit(ctx, sub)
	if err != nil {
		// Revert to pre-submit: answers retained, snapshot kept, retry allowed.
		s.status = StatusActive
		return s.stateLocked(), fmt.Errorf("session: submit failed: %w", err)
	}

	s.status = StatusCompleted
	s.submissionID = id
	s.direction = 1
	if terminal := s.terminalIndex(); terminal >= 0 {
		s.current = terminal
	}

	if !s.preview && s.store != nil {
		if err := s.store.DeleteResume(s.formID, s.respondentID); err != nil {
			log.Printf("session: clear resume for form %s: %v", s.formID, err)
		}
		if err := s.store.MarkCompleted(s.formID, s.respondentID); err != nil {
			log.Printf("session: mark completion for form %s: %v", s.formID, err)
		}
	}

	return s.stateLocked(), nil
}

// persistSnapshot rewrites the resume snapshot. Preview sessions never touch
// the store; failures are logged and the in-memory state stays authoritative.
func (s *Session) persistSnapshot() {
	if s.preview || s.store == nil || s.status != StatusActive {
		return
	}

	snap := snapshot.Snapshot{
		Responses:    make(map[string]any, len(s.answers)),
		CurrentIndex: s.current,
		Timestamp:    s.now(),
	}
	for k, v := range s.answers {
		snap.Responses[k] = v
	}

	if err := s.store.SaveResume(s.formID, s.respondentID, snap); err != nil {
		log.Printf("session: persist snapshot for form %s: %v", s.formID, err)
	}
}
