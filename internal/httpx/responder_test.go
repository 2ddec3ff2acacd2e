package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]any{"data": "ok"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %s", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["data"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "bad input")

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "bad input" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDecodeRejectsUnknownFieldsAndEmptyBody(t *testing.T) {
	var payload struct {
		Title string `json:"title"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"t","extra":1}`))
	if err := Decode(req, &payload); err == nil {
		t.Fatalf("unknown field accepted")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := Decode(req, &payload); err == nil {
		t.Fatalf("empty body accepted")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"t"}`))
	if err := Decode(req, &payload); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}
	if payload.Title != "t" {
		t.Fatalf("field not decoded: %q", payload.Title)
	}
}
