package submission

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubStore struct {
	records []Record
	stats   map[string]FormStats
}

func (s *stubStore) Create(ctx context.Context, rec *Record) error {
	s.records = append(s.records, *rec)
	return nil
}

func (s *stubStore) ListByForm(ctx context.Context, formID string) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.FormID == formID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubStore) IncrementResponses(ctx context.Context, formID string) error {
	if s.stats == nil {
		s.stats = make(map[string]FormStats)
	}
	entry := s.stats[formID]
	entry.FormID = formID
	entry.Responses++
	s.stats[formID] = entry
	return nil
}

func (s *stubStore) Stats(ctx context.Context, formID string) (FormStats, error) {
	if entry, ok := s.stats[formID]; ok {
		return entry, nil
	}
	return FormStats{FormID: formID}, nil
}

func newResultsRouter(store Store) chi.Router {
	router := chi.NewRouter()
	NewHandler(store).Mount(router, "")
	return router
}

func getJSON(t *testing.T, router chi.Router, target string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	envelope := make(map[string]json.RawMessage)
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, envelope
}

func TestListSubmissionsScopedToForm(t *testing.T) {
	store := &stubStore{records: []Record{
		{ID: "s-1", FormID: "form-1"},
		{ID: "s-2", FormID: "form-2"},
		{ID: "s-3", FormID: "form-1"},
	}}
	router := newResultsRouter(store)

	rec, envelope := getJSON(t, router, "/forms/form-1/submissions")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var records []Record
	if err := json.Unmarshal(envelope["data"], &records); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(records))
	}
	for _, r := range records {
		if r.FormID != "form-1" {
			t.Fatalf("leaked submission from another form: %+v", r)
		}
	}
}

func TestStatsZeroValuedForUnknownForm(t *testing.T) {
	store := &stubStore{}
	store.IncrementResponses(context.Background(), "form-1")
	store.IncrementResponses(context.Background(), "form-1")
	router := newResultsRouter(store)

	rec, envelope := getJSON(t, router, "/forms/form-1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats FormStats
	if err := json.Unmarshal(envelope["data"], &stats); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if stats.Responses != 2 {
		t.Fatalf("expected 2 responses, got %d", stats.Responses)
	}

	rec, envelope = getJSON(t, router, "/forms/ghost/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(envelope["data"], &stats); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if stats.FormID != "ghost" || stats.Responses != 0 {
		t.Fatalf("unknown form stats not zero-valued: %+v", stats)
	}
}
