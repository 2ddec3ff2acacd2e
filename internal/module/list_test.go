package module

import (
	"testing"
)

func assertContiguous(t *testing.T, l *List) {
	t.Helper()
	items := l.Items()
	seen := make(map[string]bool, len(items))
	for i, m := range items {
		if m.Order != i {
			t.Fatalf("order invariant broken at %d: got order %d", i, m.Order)
		}
		if m.ClientID == "" {
			t.Fatalf("module at %d has no client id", i)
		}
		if seen[m.ClientID] {
			t.Fatalf("duplicate client id %s", m.ClientID)
		}
		seen[m.ClientID] = true
	}
}

func TestAddAppendsAndReindexes(t *testing.T) {
	l := NewList(nil)

	first, err := l.Add(TypeWelcome, -1)
	if err != nil {
		t.Fatalf("add welcome: %v", err)
	}
	if _, err := l.Add(TypeText, -1); err != nil {
		t.Fatalf("add text: %v", err)
	}
	inserted, err := l.Add(TypeEmail, 1)
	if err != nil {
		t.Fatalf("add email at 1: %v", err)
	}

	if l.Len() != 3 {
		t.Fatalf("expected 3 modules, got %d", l.Len())
	}
	assertContiguous(t, l)

	items := l.Items()
	if items[0].ClientID != first.ClientID {
		t.Fatalf("welcome module moved from index 0")
	}
	if items[1].ClientID != inserted.ClientID {
		t.Fatalf("inserted module not at index 1")
	}
	if items[1].Title != TypeEmail.DefaultTitle() {
		t.Fatalf("unexpected default title: %q", items[1].Title)
	}
	if items[1].IsRequired {
		t.Fatalf("new modules must default to not required")
	}
}

func TestAddRejectsInvalidType(t *testing.T) {
	l := NewList(nil)
	if _, err := l.Add(Type("BOGUS"), -1); err != ErrInvalidType {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestOrderInvariantUnderMutationSequence(t *testing.T) {
	l := NewList(nil)
	types := []Type{TypeWelcome, TypeText, TypeEmail, TypeCheckboxes, TypeDate, TypeGoodbye}
	ids := make([]string, 0, len(types))
	for _, typ := range types {
		m, err := l.Add(typ, -1)
		if err != nil {
			t.Fatalf("add %s: %v", typ, err)
		}
		ids = append(ids, m.ClientID)
	}

	if err := l.Reorder(4, 1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	assertContiguous(t, l)

	if err := l.Delete(ids[2]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertContiguous(t, l)

	if _, err := l.Add(TypeDropdown, 0); err != nil {
		t.Fatalf("add at 0: %v", err)
	}
	assertContiguous(t, l)

	if err := l.Reorder(0, l.Len()-1); err != nil {
		t.Fatalf("reorder to end: %v", err)
	}
	assertContiguous(t, l)
}

func TestReorderMovesElement(t *testing.T) {
	l := NewList(nil)
	a, _ := l.Add(TypeText, -1)
	b, _ := l.Add(TypeEmail, -1)
	c, _ := l.Add(TypeDate, -1)

	if err := l.Reorder(0, 2); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	items := l.Items()
	want := []string{b.ClientID, c.ClientID, a.ClientID}
	for i, id := range want {
		if items[i].ClientID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, items[i].ClientID)
		}
	}
	assertContiguous(t, l)

	if err := l.Reorder(0, 5); err != ErrIndexOutOfRange {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDeleteUnknownIDIsRefused(t *testing.T) {
	l := NewList(nil)
	l.Add(TypeText, -1)
	if err := l.Delete("nope"); err != ErrModuleNotFound {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("list changed on refused delete")
	}
}

func TestDuplicateInsertsCopyAfterSource(t *testing.T) {
	l := NewList(nil)
	a, _ := l.Add(TypeText, -1)
	l.Add(TypeEmail, -1)

	titled := "Favourite colour?"
	if err := l.Update(a.ClientID, Patch{Title: &titled}); err != nil {
		t.Fatalf("update: %v", err)
	}

	dup, err := l.Duplicate(a.ClientID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	items := l.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 modules, got %d", len(items))
	}
	if items[0].ClientID != a.ClientID || items[1].ClientID != dup.ClientID {
		t.Fatalf("copy not inserted immediately after source")
	}
	if dup.ClientID == a.ClientID {
		t.Fatalf("copy shares the source identity")
	}
	if dup.ServerID != "" {
		t.Fatalf("copy must not carry a server identity")
	}
	if dup.Title != "Favourite colour? (copy)" {
		t.Fatalf("unexpected copy title %q", dup.Title)
	}
	assertContiguous(t, l)
}

func TestDuplicateRegeneratesOptionIDs(t *testing.T) {
	l := NewList(nil)
	src, _ := l.Add(TypeCheckboxes, -1)

	dup, err := l.Duplicate(src.ClientID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if len(dup.Options) != len(src.Options) {
		t.Fatalf("option count mismatch")
	}
	for i := range dup.Options {
		if dup.Options[i].ID == src.Options[i].ID {
			t.Fatalf("option %d shares identity with source", i)
		}
		if dup.Options[i].Label != src.Options[i].Label {
			t.Fatalf("option %d label changed", i)
		}
	}
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	l := NewList(nil)
	m, _ := l.Add(TypeText, -1)

	required := true
	if err := l.Update(m.ClientID, Patch{IsRequired: &required}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := l.Get(m.ClientID)
	if !got.IsRequired {
		t.Fatalf("isRequired not applied")
	}
	if got.Title != m.Title {
		t.Fatalf("title changed by unrelated patch")
	}
	if got.Order != m.Order {
		t.Fatalf("order changed by patch")
	}

	if err := l.Update("missing", Patch{IsRequired: &required}); err != ErrModuleNotFound {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestChoiceModulesStartAtOptionFloor(t *testing.T) {
	l := NewList(nil)
	m, _ := l.Add(TypeMultipleChoice, -1)
	if len(m.Options) != MinOptions {
		t.Fatalf("expected %d seeded options, got %d", MinOptions, len(m.Options))
	}
}

func TestDeleteOptionRefusedAtFloor(t *testing.T) {
	l := NewList(nil)
	m, _ := l.Add(TypeCheckboxes, -1)

	if err := l.DeleteOption(m.ClientID, m.Options[0].ID); err != ErrOptionFloor {
		t.Fatalf("expected ErrOptionFloor, got %v", err)
	}
	got, _ := l.Get(m.ClientID)
	if len(got.Options) != 2 {
		t.Fatalf("option list changed on refused delete: %d", len(got.Options))
	}

	if _, err := l.AddOption(m.ClientID, "Third", ""); err != nil {
		t.Fatalf("add option: %v", err)
	}
	got, _ = l.Get(m.ClientID)
	if err := l.DeleteOption(m.ClientID, got.Options[2].ID); err != nil {
		t.Fatalf("delete above floor: %v", err)
	}
	got, _ = l.Get(m.ClientID)
	if len(got.Options) != 2 {
		t.Fatalf("expected 2 options after delete, got %d", len(got.Options))
	}
	for i, opt := range got.Options {
		if opt.Order != i {
			t.Fatalf("option order not reindexed at %d", i)
		}
	}
}

func TestOptionOpsRejectNonChoiceModules(t *testing.T) {
	l := NewList(nil)
	m, _ := l.Add(TypeText, -1)

	if _, err := l.AddOption(m.ClientID, "x", ""); err != ErrOptionsUnsupported {
		t.Fatalf("expected ErrOptionsUnsupported, got %v", err)
	}
	if err := l.DeleteOption(m.ClientID, "x"); err != ErrOptionsUnsupported {
		t.Fatalf("expected ErrOptionsUnsupported, got %v", err)
	}
}

func TestNewListRepairsDamagedOrder(t *testing.T) {
	a, _ := New(TypeText)
	b, _ := New(TypeEmail)
	c, _ := New(TypeDate)
	a.Order = 7
	b.Order = 3
	c.Order = 3

	l := NewList([]Module{a, b, c})
	assertContiguous(t, l)
	items := l.Items()
	if items[0].ClientID != b.ClientID {
		t.Fatalf("stable sort by stored order not applied")
	}
}

func TestItemsReturnsDefensiveCopy(t *testing.T) {
	l := NewList(nil)
	m, _ := l.Add(TypeCheckboxes, -1)

	items := l.Items()
	items[0].Title = "mutated"
	items[0].Options[0].Label = "mutated"

	got, _ := l.Get(m.ClientID)
	if got.Title == "mutated" || got.Options[0].Label == "mutated" {
		t.Fatalf("list exposed internal state")
	}
}
