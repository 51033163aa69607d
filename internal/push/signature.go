package push

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/trendwatch/internal/models"
)

// KeyLastSignature is the Redis key holding the signature of the most
// recently delivered report.
const KeyLastSignature = "trendwatch:push:last_signature"

// DefaultSignatureTTL bounds how long an old signature keeps suppressing
const DefaultSignatureTTL = 24 * time.Hour

// Signature hashes what a report would deliver: its mode plus the sorted
// distinct headline ids. Two reports with the same signature would notify
// about exactly the same headlines, so the second one carries no news.
func Signature(report *models.Report) string {
	h := sha256.New()
	h.Write([]byte(report.Mode))
	for _, id := range report.HeadlineIDs() {
		h.Write([]byte(id.String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SignatureStore remembers the last delivered signature in Redis so
// consecutive identical reports are pushed once. A nil *SignatureStore (or
// one without a client) never suppresses.
type SignatureStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSignatureStore creates a signature store. A non-positive ttl falls
// back to DefaultSignatureTTL.
func NewSignatureStore(client redis.UniversalClient, ttl time.Duration) *SignatureStore {
	if ttl <= 0 {
		ttl = DefaultSignatureTTL
	}
	return &SignatureStore{client: client, ttl: ttl}
}

// IsRepeat reports whether signature matches the last delivered one
func (s *SignatureStore) IsRepeat(ctx context.Context, signature string) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}

	last, err := s.client.Get(ctx, KeyLastSignature).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read last push signature: %w", err)
	}
	return last == signature, nil
}

// Remember stores signature as the last delivered one, refreshing the TTL.
// Only called after a successful delivery: a failed push must not suppress
// the next attempt at the same content.
func (s *SignatureStore) Remember(ctx context.Context, signature string) error {
	if s == nil || s.client == nil {
		return nil
	}

	if err := s.client.Set(ctx, KeyLastSignature, signature, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store push signature: %w", err)
	}
	return nil
}
