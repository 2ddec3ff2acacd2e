// Package upload issues short-lived presigned targets for FILE_UPLOAD
// answers. The runtime stores only the resulting storage key; file bytes
// never pass through the core.
package upload

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoSigningKey  = errors.New("upload: signing key not configured")
	ErrEmptyFilename = errors.New("upload: filename is required")
)

// Target is a presigned upload destination.
type Target struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Signer issues upload targets. Implementations live at the storage
// boundary; the core only consumes the contract.
type Signer interface {
	Sign(formID, filename, contentType string) (Target, error)
}

// HMACSigner signs direct-PUT URLs against a shared-key storage gateway.
type HMACSigner struct {
	baseURL string
	key     []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewHMACSigner constructs a signer. TTL defaults to fifteen minutes.
func NewHMACSigner(baseURL, key string, ttl time.Duration) (*HMACSigner, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNoSigningKey
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &HMACSigner{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     []byte(key),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Sign issues a presigned PUT target for one file.
func (s *HMACSigner) Sign(formID, filename, contentType string) (Target, error) {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return Target{}, ErrEmptyFilename
	}

	key := fmt.Sprintf("%s/%s-%s", formID, uuid.NewString(), filename)
	expires := s.now().Add(s.ttl)

	values := url.Values{}
	values.Set("expires", strconv.FormatInt(expires.Unix(), 10))
	if contentType != "" {
		values.Set("contentType", contentType)
	}
	values.Set("signature", s.signature(key, expires))

	return Target{
		URL:       s.baseURL + "/" + key + "?" + values.Encode(),
		Key:       key,
		ExpiresAt: expires,
	}, nil
}

// Verify checks a presented key/expiry/signature triple, for the storage
// gateway side of the contract.
func (s *HMACSigner) Verify(key string, expiresUnix int64, signature string) bool {
	if s.now().Unix() > expiresUnix {
		return false
	}
	expected := s.signature(key, time.Unix(expiresUnix, 0))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *HMACSigner) signature(key string, expires time.Time) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "PUT\n%s\n%d", key, expires.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}
