package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Gioaltam/Inspection-agent/internal/domain/portal"
)

// URLSigner issues and validates time-limited signed URLs for report
// artifacts. Validation is stateless: a pure function of the signature,
// the path and the clock.
type URLSigner struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	clock   func() time.Time
}

func NewURLSigner(secret, baseURL string, ttl time.Duration) *URLSigner {
	return &URLSigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		clock:   time.Now,
	}
}

// Sign builds a fetchable URL for one artifact path, valid until now+ttl.
func (s *URLSigner) Sign(artifactPath string) (string, time.Time) {
	expiry := s.clock().Add(s.ttl)
	sig := s.signature(artifactPath, expiry.Unix())
	u := fmt.Sprintf("%s/api/portal/signed/%s?expires=%d&signature=%s",
		s.baseURL, pathEscapeSegments(artifactPath), expiry.Unix(), sig)
	return u, expiry
}

// Validate checks expiry and signature for a presented URL. Expired,
// forged and tampered inputs are indistinguishable: all return
// ErrUnauthorized.
func (s *URLSigner) Validate(artifactPath, expires, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return portal.ErrUnauthorized
	}
	if s.clock().Unix() > exp {
		return portal.ErrUnauthorized
	}
	expected := s.signature(artifactPath, exp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return portal.ErrUnauthorized
	}
	return nil
}

func (s *URLSigner) signature(path string, expiry int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", path, expiry)
	return hex.EncodeToString(mac.Sum(nil))
}

func pathEscapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, seg := range parts {
		parts[i] = url.PathEscape(seg)
	}
	return strings.Join(parts, "/")
}
