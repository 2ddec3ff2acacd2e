package module

import (
	"sort"

	"github.com/google/uuid"
)

// List maintains the ordered set of modules for one form. It is owned by a
// single editor session; callers serialise access themselves.
type List struct {
	items []Module
}

// NewList builds a list from existing modules, sorting by stored order and
// reindexing so the contiguity invariant holds even over damaged input.
func NewList(items []Module) *List {
	copied := make([]Module, len(items))
	for i, m := range items {
		copied[i] = m.clone()
	}
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Order < copied[j].Order
	})

	l := &List{items: copied}
	l.reindex()
	return l
}

// Len returns the number of modules in the list.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns a defensive copy of the module slice in display order.
func (l *List) Items() []Module {
	out := make([]Module, len(l.items))
	for i, m := range l.items {
		out[i] = m.clone()
	}
	return out
}

// Get returns the module with the given client id.
func (l *List) Get(clientID string) (Module, bool) {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return Module{}, false
	}
	return l.items[idx].clone(), true
}

// At returns the module at a display position.
func (l *List) At(index int) (Module, bool) {
	if index < 0 || index >= len(l.items) {
		return Module{}, false
	}
	return l.items[index].clone(), true
}

// Add inserts a new module of the given type at atIndex (append when atIndex
// is negative or past the end) and returns it. All order values are
// reindexed afterwards.
func (l *List) Add(t Type, atIndex int) (Module, error) {
	m, err := New(t)
	if err != nil {
		return Module{}, err
	}

	if atIndex < 0 || atIndex > len(l.items) {
		atIndex = len(l.items)
	}

	l.items = append(l.items, Module{})
	copy(l.items[atIndex+1:], l.items[atIndex:])
	l.items[atIndex] = m
	l.reindex()

	return l.items[atIndex].clone(), nil
}

// Update merges patch fields into the module with the given client id.
// Order and identity are untouched.
func (l *List) Update(clientID string, patch Patch) error {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return ErrModuleNotFound
	}

	m := &l.items[idx]
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Placeholder != nil {
		m.Placeholder = *patch.Placeholder
	}
	if patch.IsRequired != nil {
		m.IsRequired = *patch.IsRequired
	}
	if patch.ButtonText != nil {
		m.ButtonText = *patch.ButtonText
	}
	if patch.Message != nil {
		m.Message = *patch.Message
	}
	if patch.ShowConfetti != nil {
		m.ShowConfetti = *patch.ShowConfetti
	}
	return nil
}

// Delete removes the module with the given client id and reindexes the rest.
func (l *List) Delete(clientID string) error {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return ErrModuleNotFound
	}

	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.reindex()
	return nil
}

// Reorder moves the module at fromIndex to toIndex and reindexes.
func (l *List) Reorder(fromIndex, toIndex int) error {
	n := len(l.items)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return ErrIndexOutOfRange
	}
	if fromIndex == toIndex {
		return nil
	}

	moved := l.items[fromIndex]
	l.items = append(l.items[:fromIndex], l.items[fromIndex+1:]...)

	l.items = append(l.items, Module{})
	copy(l.items[toIndex+1:], l.items[toIndex:])
	l.items[toIndex] = moved
	l.reindex()
	return nil
}

// Duplicate clones the module with the given client id, assigns a fresh
// identity, marks the title as a copy and inserts it right after the source.
func (l *List) Duplicate(clientID string) (Module, error) {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return Module{}, ErrModuleNotFound
	}

	dup := l.items[idx].clone()
	dup.ClientID = uuid.NewString()
	dup.ServerID = ""
	if dup.Title != "" {
		dup.Title += " (copy)"
	}
	for i := range dup.Options {
		dup.Options[i].ID = uuid.NewString()
	}

	at := idx + 1
	l.items = append(l.items, Module{})
	copy(l.items[at+1:], l.items[at:])
	l.items[at] = dup
	l.reindex()

	return l.items[at].clone(), nil
}

// AddOption appends an option to a choice-type module and returns it.
func (l *List) AddOption(clientID, label, value string) (Option, error) {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return Option{}, ErrModuleNotFound
	}
	m := &l.items[idx]
	if !m.Type.HasOptions() {
		return Option{}, ErrOptionsUnsupported
	}

	opt := newOption(label, len(m.Options))
	if value != "" {
		opt.Value = value
	}
	m.Options = append(m.Options, opt)
	reindexOptions(m)
	return opt, nil
}

// UpdateOption merges patch fields into one option of a choice-type module.
func (l *List) UpdateOption(clientID, optionID string, patch OptionPatch) error {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return ErrModuleNotFound
	}
	m := &l.items[idx]
	if !m.Type.HasOptions() {
		return ErrOptionsUnsupported
	}

	for i := range m.Options {
		if m.Options[i].ID != optionID {
			continue
		}
		if patch.Label != nil {
			m.Options[i].Label = *patch.Label
		}
		if patch.Value != nil {
			m.Options[i].Value = *patch.Value
		}
		return nil
	}
	return ErrOptionNotFound
}

// DeleteOption removes an option, refusing when the module is already at the
// two-option floor.
func (l *List) DeleteOption(clientID, optionID string) error {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return ErrModuleNotFound
	}
	m := &l.items[idx]
	if !m.Type.HasOptions() {
		return ErrOptionsUnsupported
	}
	if len(m.Options) <= MinOptions {
		return ErrOptionFloor
	}

	for i := range m.Options {
		if m.Options[i].ID != optionID {
			continue
		}
		m.Options = append(m.Options[:i], m.Options[i+1:]...)
		reindexOptions(m)
		return nil
	}
	return ErrOptionNotFound
}

// SetServerID records the durable identity assigned at the persistence
// boundary. In-session logic never keys on it.
func (l *List) SetServerID(clientID, serverID string) bool {
	idx := l.indexOf(clientID)
	if idx < 0 {
		return false
	}
	l.items[idx].ServerID = serverID
	return true
}

func (l *List) indexOf(clientID string) int {
	for i := range l.items {
		if l.items[i].ClientID == clientID {
			return i
		}
	}
	return -1
}

func (l *List) reindex() {
	for i := range l.items {
		l.items[i].Order = i
	}
}

func reindexOptions(m *Module) {
	for i := range m.Options {
		m.Options[i].Order = i
	}
}
