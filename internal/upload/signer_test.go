package upload

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestSigner(t *testing.T) *HMACSigner {
	t.Helper()
	s, err := NewHMACSigner("https://files.example.com", "secret", 10*time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func TestSignerRequiresKey(t *testing.T) {
	if _, err := NewHMACSigner("https://files.example.com", "  ", time.Minute); err != ErrNoSigningKey {
		t.Fatalf("expected ErrNoSigningKey, got %v", err)
	}
}

func TestSignProducesVerifiableTarget(t *testing.T) {
	s := newTestSigner(t)

	target, err := s.Sign("form-1", "receipt.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(target.Key, "form-1/") || !strings.HasSuffix(target.Key, "-receipt.pdf") {
		t.Fatalf("unexpected key shape: %s", target.Key)
	}

	u, err := url.Parse(target.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	if err != nil {
		t.Fatalf("parse expires: %v", err)
	}
	if expires != target.ExpiresAt.Unix() {
		t.Fatalf("expires mismatch: %d vs %d", expires, target.ExpiresAt.Unix())
	}

	if !s.Verify(target.Key, expires, u.Query().Get("signature")) {
		t.Fatalf("signature does not verify")
	}
	if s.Verify(target.Key+"x", expires, u.Query().Get("signature")) {
		t.Fatalf("tampered key verified")
	}
}

func TestSignRejectsEmptyAndPathyFilenames(t *testing.T) {
	s := newTestSigner(t)

	for _, name := range []string{"", "   ", "/", "."} {
		if _, err := s.Sign("form-1", name, ""); err != ErrEmptyFilename {
			t.Fatalf("filename %q: expected ErrEmptyFilename, got %v", name, err)
		}
	}

	// Directory components are stripped, not honoured.
	target, err := s.Sign("form-1", "../../etc/passwd", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if strings.Contains(target.Key, "..") {
		t.Fatalf("key kept path traversal: %s", target.Key)
	}
	if !strings.HasSuffix(target.Key, "-passwd") {
		t.Fatalf("unexpected key: %s", target.Key)
	}
}

func TestVerifyRejectsExpiredSignatures(t *testing.T) {
	s := newTestSigner(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	target, err := s.Sign("form-1", "photo.png", "image/png")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	u, _ := url.Parse(target.URL)
	sig := u.Query().Get("signature")

	if !s.Verify(target.Key, target.ExpiresAt.Unix(), sig) {
		t.Fatalf("fresh signature rejected")
	}

	s.now = func() time.Time { return base.Add(11 * time.Minute) }
	if s.Verify(target.Key, target.ExpiresAt.Unix(), sig) {
		t.Fatalf("expired signature verified")
	}
}

func TestSignKeysAreUniquePerCall(t *testing.T) {
	s := newTestSigner(t)

	a, _ := s.Sign("form-1", "f.txt", "")
	b, _ := s.Sign("form-1", "f.txt", "")
	if a.Key == b.Key {
		t.Fatalf("two signs produced the same key: %s", a.Key)
	}
}
