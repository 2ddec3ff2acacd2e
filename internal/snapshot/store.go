// Package snapshot persists respondent progress so a session survives
// reloads: the resume snapshot (answers + position, rewritten on every
// change) and the durable completion marker consulted by the repeat
// submission gate. Backed by an embedded BadgerDB so writes stay cheap
// enough to run synchronously on every answer.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Snapshot is the persisted respondent progress for one form.
type Snapshot struct {
	Responses    map[string]any `json:"responses"`
	CurrentIndex int            `json:"currentIndex"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Store wraps the embedded database.
type Store struct {
	db *badger.DB
}

// Open initialises a store persisting to the given directory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory initialises a store with no disk persistence, for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open in-memory: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func resumeKey(formID, respondentID string) []byte {
	return []byte("resume/" + formID + "/" + respondentID)
}

func completionKey(formID, respondentID string) []byte {
	return []byte("done/" + formID + "/" + respondentID)
}

// SaveResume rewrites the resume snapshot, last write wins.
func (s *Store) SaveResume(formID, respondentID string, snap Snapshot) error {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: encode resume: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(resumeKey(formID, respondentID), raw)
	})
}

// LoadResume returns the stored snapshot and whether one exists.
func (s *Store) LoadResume(formID, respondentID string) (Snapshot, bool, error) {
	var snap Snapshot
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resumeKey(formID, respondentID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("snapshot: load resume: %w", err)
	}
	return snap, found, nil
}

// DeleteResume removes the resume snapshot, if any.
func (s *Store) DeleteResume(formID, respondentID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(resumeKey(formID, respondentID))
	})
}

// MarkCompleted sets the durable completion marker for the respondent.
func (s *Store) MarkCompleted(formID, respondentID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(completionKey(formID, respondentID), []byte(time.Now().Format(time.RFC3339)))
	})
}

// IsCompleted reports whether the respondent already finished this form.
func (s *Store) IsCompleted(formID, respondentID string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(completionKey(formID, respondentID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("snapshot: check completion: %w", err)
	}
	return found, nil
}
