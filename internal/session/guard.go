package session

import (
	"time"

	"github.com/pagelift/pagelift/internal/models"
)

// Decision is the outcome of a lifecycle check. Never an error: callers
// branch on the fields and map Reason to their own error surface.
type Decision struct {
	Allowed    bool
	Idempotent bool
	Reason     string
}

const (
	reasonExpired        = "session expired"
	reasonAlreadyApplied = "already applied"
	reasonNotApproved    = "must be approved first"
)

// CanApprove decides whether approving the session is currently legal.
// Re-approving an approved session is an idempotent success; approval of an
// applied or expired session is rejected. Pure: no I/O, no mutation.
func CanApprove(s *models.ReviewSession, now time.Time) Decision {
	if s.Status == models.SessionStatusApplied {
		return Decision{Reason: reasonAlreadyApplied}
	}
	if s.Status == models.SessionStatusExpired || Expired(s, now) {
		return Decision{Reason: reasonExpired}
	}
	if s.Status == models.SessionStatusApproved {
		return Decision{Allowed: true, Idempotent: true}
	}
	return Decision{Allowed: true}
}

// CanApply decides whether applying the session's patches is currently legal.
// Apply has real-world side effects, so an already-applied session comes back
// as an idempotent no-op: the caller should treat it as success and return
// the existing commit SHAs without touching the external writer.
func CanApply(s *models.ReviewSession, now time.Time) Decision {
	if s.Status == models.SessionStatusApplied {
		return Decision{Idempotent: true, Reason: reasonAlreadyApplied}
	}
	if s.Status == models.SessionStatusExpired || Expired(s, now) {
		return Decision{Reason: reasonExpired}
	}
	if s.Status == models.SessionStatusPending {
		return Decision{Reason: reasonNotApproved}
	}
	return Decision{Allowed: true}
}
