package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Gioaltam/Inspection-agent/internal/domain/portal"
)

// MagicLinkStore implements single-use login tokens backed by the portal
// database. Only the SHA-256 of the token is stored, so a database read
// never yields a usable credential.
type MagicLinkStore struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	ttl   time.Duration
	clock func() time.Time
}

func NewMagicLinkStore(db *gorm.DB, ttl time.Duration, log *zap.SugaredLogger) *MagicLinkStore {
	return &MagicLinkStore{db: db, log: log, ttl: ttl, clock: time.Now}
}

func (s *MagicLinkStore) Issue(ctx context.Context, ownerID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	rec := portal.MagicLinkToken{
		TokenHash: hashToken(token),
		OwnerID:   ownerID,
		ExpiresAt: s.clock().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("store magic token: %w", err)
	}
	return token, nil
}

// Verify consumes the token on first successful use. The consuming update
// is conditional on unused+unexpired, so two racing verifications cannot
// both succeed. All failure shapes return the same ErrUnauthorized; the
// distinction lives only in internal logs.
func (s *MagicLinkStore) Verify(ctx context.Context, token string) (string, error) {
	h := hashToken(token)
	now := s.clock()

	var rec portal.MagicLinkToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", h).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Infow("magic link rejected", "reason", "unknown token")
		return "", portal.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}

	res := s.db.WithContext(ctx).Model(&portal.MagicLinkToken{}).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", h, now).
		Update("used_at", now)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		reason := "already used"
		if now.After(rec.ExpiresAt) {
			reason = "expired"
		}
		s.log.Infow("magic link rejected", "reason", reason)
		return "", portal.ErrUnauthorized
	}
	return rec.OwnerID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
