// Package editor hosts the authoring session: the in-memory module list is
// authoritative for display, and a write-behind bridge keeps the stored list
// eventually consistent without saving on every keystroke.
package editor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/LukhazD/pyform-sub000/internal/module"
	"github.com/LukhazD/pyform-sub000/internal/observability"
)

// ErrNotLoaded is returned when mutations arrive before the initial fetch.
var ErrNotLoaded = errors.New("editor: module list not loaded")

const saveTimeout = 10 * time.Second

// Autosaver owns one form's editing session. Mutations go through the module
// list, mark the session dirty and reset the debounce timer; the full list
// is saved with replace semantics once edits go quiet. The initial load
// never triggers a save, but after the first mutation even an empty list is
// persisted: deleting every module is a valid stored state.
type Autosaver struct {
	mu sync.Mutex

	formID   string
	repo     module.Repository
	list     *module.List
	debounce time.Duration

	loaded bool
	dirty  bool
	gen    uint64
	timer  *time.Timer
	closed bool
}

// NewAutosaver constructs the bridge for one form.
func NewAutosaver(formID string, repo module.Repository, debounce time.Duration) *Autosaver {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Autosaver{
		formID:   formID,
		repo:     repo,
		debounce: debounce,
	}
}

// Load fetches the stored module list. It seeds the session without marking
// it dirty, so unmodified server data is never re-saved on fetch.
func (a *Autosaver) Load(ctx context.Context) error {
	modules, err := a.repo.ListByForm(ctx, a.formID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = module.NewList(modules)
	a.loaded = true
	return nil
}

// Modules returns the current in-memory list in display order.
func (a *Autosaver) Modules() ([]module.Module, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return nil, ErrNotLoaded
	}
	return a.list.Items(), nil
}

// Add inserts a new module and schedules a save.
func (a *Autosaver) Add(t module.Type, atIndex int) (module.Module, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return module.Module{}, ErrNotLoaded
	}

	m, err := a.list.Add(t, atIndex)
	if err != nil {
		return module.Module{}, err
	}
	a.markDirtyLocked()
	return m, nil
}

// Update patches a module's fields and schedules a save.
func (a *Autosaver) Update(clientID string, patch module.Patch) error {
	return a.mutate(func() error { return a.list.Update(clientID, patch) })
}

// Delete removes a module and schedules a save.
func (a *Autosaver) Delete(clientID string) error {
	return a.mutate(func() error { return a.list.Delete(clientID) })
}

// Reorder moves a module between positions and schedules a save.
func (a *Autosaver) Reorder(fromIndex, toIndex int) error {
	return a.mutate(func() error { return a.list.Reorder(fromIndex, toIndex) })
}

// Duplicate clones a module and schedules a save.
func (a *Autosaver) Duplicate(clientID string) (module.Module, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return module.Module{}, ErrNotLoaded
	}

	m, err := a.list.Duplicate(clientID)
	if err != nil {
		return module.Module{}, err
	}
	a.markDirtyLocked()
	return m, nil
}

// AddOption appends an option to a choice module and schedules a save.
func (a *Autosaver) AddOption(clientID, label, value string) (module.Option, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return module.Option{}, ErrNotLoaded
	}

	opt, err := a.list.AddOption(clientID, label, value)
	if err != nil {
		return module.Option{}, err
	}
	a.markDirtyLocked()
	return opt, nil
}

// UpdateOption patches an option and schedules a save.
func (a *Autosaver) UpdateOption(clientID, optionID string, patch module.OptionPatch) error {
	return a.mutate(func() error { return a.list.UpdateOption(clientID, optionID, patch) })
}

// DeleteOption removes an option, refusing at the floor, and schedules a save.
func (a *Autosaver) DeleteOption(clientID, optionID string) error {
	return a.mutate(func() error { return a.list.DeleteOption(clientID, optionID) })
}

// Flush saves immediately when dirty, for shutdown and explicit save actions.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if !a.loaded || !a.dirty {
		a.mu.Unlock()
		return nil
	}
	a.stopTimerLocked()
	items := a.list.Items()
	gen := a.gen
	a.mu.Unlock()

	return a.save(ctx, items, gen)
}

// Close stops the debounce timer without saving.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.stopTimerLocked()
}

func (a *Autosaver) mutate(op func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return ErrNotLoaded
	}
	if err := op(); err != nil {
		return err
	}
	a.markDirtyLocked()
	return nil
}

// markDirtyLocked resets the debounce window. A new edit during the window
// defers the pending save instead of firing a duplicate.
func (a *Autosaver) markDirtyLocked() {
	a.dirty = true
	a.gen++
	if a.closed {
		return
	}
	a.stopTimerLocked()
	a.timer = time.AfterFunc(a.debounce, a.fire)
}

func (a *Autosaver) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	if a.closed || !a.dirty {
		a.mu.Unlock()
		return
	}
	items := a.list.Items()
	gen := a.gen
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := a.save(ctx, items, gen); err != nil {
		// Keep the dirty flag and re-arm: the next cycle retries with
		// whatever the list looks like then.
		log.Printf("editor: autosave for form %s: %v", a.formID, err)
		a.mu.Lock()
		if !a.closed {
			a.stopTimerLocked()
			a.timer = time.AfterFunc(a.debounce, a.fire)
		}
		a.mu.Unlock()
	}
}

// save issues the full-list replace PUT and reconciles server identities
// back into the in-memory list. Overlapping saves are accepted,
// last-response-wins; there is no sequencing token. The generation captured
// with the snapshot decides whether the session is clean afterwards: an edit
// that landed while the save was in flight keeps it dirty for the next cycle.
func (a *Autosaver) save(ctx context.Context, items []module.Module, gen uint64) error {
	observability.AutosaveAttempts.Inc()

	saved, err := a.repo.ReplaceAll(ctx, a.formID, items)
	if err != nil {
		observability.AutosaveFailures.Inc()
		return err
	}

	serverIDs := make(map[string]string, len(saved))
	for _, m := range saved {
		serverIDs[m.ClientID] = m.ServerID
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen == gen {
		a.dirty = false
	}
	for clientID, serverID := range serverIDs {
		a.list.SetServerID(clientID, serverID)
	}
	return nil
}
