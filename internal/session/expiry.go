package session

import (
	"time"

	"github.com/pagelift/pagelift/internal/models"
)

// DefaultTTL is how long a review session stays actionable after creation.
const DefaultTTL = 24 * time.Hour

// ExpiresAt computes a session's expiry timestamp. A non-positive ttl falls
// back to DefaultTTL.
func ExpiresAt(createdAt time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return createdAt.Add(ttl)
}

// Expired reports whether the session is expired at the given instant.
// Expiry is derived from the clock, not from the stored status: a session
// whose ExpiresAt has passed is expired no matter what status it carries.
func Expired(s *models.ReviewSession, now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// EffectiveStatus is the status a caller should see at the given instant.
// It never mutates the session.
func EffectiveStatus(s *models.ReviewSession, now time.Time) models.SessionStatus {
	if s.Status != models.SessionStatusApplied && Expired(s, now) {
		return models.SessionStatusExpired
	}
	return s.Status
}
