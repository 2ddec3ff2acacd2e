package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LukhazD/pyform-sub000/internal/form"
	"github.com/LukhazD/pyform-sub000/internal/module"
	"github.com/LukhazD/pyform-sub000/internal/observability"
	"github.com/LukhazD/pyform-sub000/internal/snapshot"
	"github.com/LukhazD/pyform-sub000/internal/submission"
)

// Config tunes manager behaviour. Zero values fall back to defaults.
type Config struct {
	// Cooldown is the minimum gap between accepted transitions, roughly one
	// UI animation duration.
	Cooldown time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

const defaultCooldown = 350 * time.Millisecond

// OpenOptions carries the per-open request context.
type OpenOptions struct {
	RespondentID string
	Preview      bool
	Client       submission.ClientInfo
}

// Manager owns the live sessions and wires them to the persistence
// boundaries: form and module repositories, the snapshot store and the
// submitter.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byKey    map[string]*Session

	forms     form.Repository
	modules   module.Repository
	store     *snapshot.Store
	submitter Submitter

	cooldown time.Duration
	now      func() time.Time
}

// NewManager constructs a session manager.
func NewManager(forms form.Repository, modules module.Repository, store *snapshot.Store, submitter Submitter, cfg Config) *Manager {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		sessions:  make(map[string]*Session),
		byKey:     make(map[string]*Session),
		forms:     forms,
		modules:   modules,
		store:     store,
		submitter: submitter,
		cooldown:  cooldown,
		now:       now,
	}
}

// Open starts or re-attaches a respondent session.
//
// Non-preview opens walk the runtime bridge steps in order: the view is
// counted at most once per live session, the durable completion marker gates
// repeat submissions when the form disallows them, and otherwise any resume
// snapshot is restored with the index clamped to the loaded module list.
// Preview bypasses all three and always starts fresh at index zero.
func (mgr *Manager) Open(ctx context.Context, formID string, opts OpenOptions) (State, error) {
	f, err := mgr.forms.Find(ctx, formID)
	if err != nil {
		if form.IsNotFound(err) {
			return State{}, ErrFormNotFound
		}
		return State{}, err
	}
	if !opts.Preview && f.Status != form.StatusPublished {
		return State{}, ErrFormClosed
	}

	modules, err := mgr.modules.ListByForm(ctx, formID)
	if err != nil {
		return State{}, err
	}
	if len(modules) == 0 {
		return State{}, ErrNoModules
	}

	respondentID := opts.RespondentID
	if respondentID == "" {
		respondentID = uuid.NewString()
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	// A reload inside a live session re-attaches instead of re-counting the
	// view or resetting progress.
	key := sessionKey(formID, respondentID, opts.Preview)
	if existing, ok := mgr.byKey[key]; ok {
		return existing.State(), nil
	}

	s := &Session{
		id:           uuid.NewString(),
		formID:       formID,
		respondentID: respondentID,
		preview:      opts.Preview,
		modules:      modules,
		answers:      make(map[string]any),
		direction:    1,
		status:       StatusActive,
		cooldown:     mgr.cooldown,
		now:          mgr.now,
		store:        mgr.store,
		submitter:    mgr.submitter,
		client:       opts.Client,
	}

	if !opts.Preview {
		mgr.countView(ctx, formID)

		settings := f.RuntimeSettings()
		completed := false
		if !settings.AllowMultipleSubmissions && mgr.store != nil {
			completed, err = mgr.store.IsCompleted(formID, respondentID)
			if err != nil {
				log.Printf("session: completion check for form %s: %v", formID, err)
			}
		}

		if completed {
			s.status = StatusCompleted
			if terminal := s.terminalIndex(); terminal >= 0 {
				s.current = terminal
			} else {
				s.current = len(modules) - 1
			}
		} else if mgr.store != nil {
			snap, found, err := mgr.store.LoadResume(formID, respondentID)
			if err != nil {
				log.Printf("session: resume load for form %s: %v", formID, err)
			} else if found {
				s.answers = restoreAnswers(snap.Responses)
				s.current = clampIndex(snap.CurrentIndex, len(modules))
				s.resumed = true
			}
		}
	}

	mgr.sessions[s.id] = s
	mgr.byKey[key] = s

	return s.State(), nil
}

// Get returns a live session by id.
func (mgr *Manager) Get(sessionID string) (*Session, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, ok := mgr.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// countView fires the increment and metrics; failures are logged, never
// surfaced to the respondent.
func (mgr *Manager) countView(ctx context.Context, formID string) {
	if err := mgr.forms.IncrementViews(ctx, formID); err != nil {
		log.Printf("session: view increment for form %s: %v", formID, err)
		return
	}
	observability.ViewsCounted.WithLabelValues(formID).Inc()
}

func sessionKey(formID, respondentID string, preview bool) string {
	key := formID + "/" + respondentID
	if preview {
		key += "/preview"
	}
	return key
}

func clampIndex(index, total int) int {
	if index < 0 {
		return 0
	}
	if index >= total {
		return total - 1
	}
	return index
}

// restoreAnswers normalises snapshot values: JSON round-trips turn string
// slices into []any, which the validation layer already understands.
func restoreAnswers(responses map[string]any) map[string]any {
	answers := make(map[string]any, len(responses))
	for k, v := range responses {
		answers[k] = v
	}
	return answers
}
