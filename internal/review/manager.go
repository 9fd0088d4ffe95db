// Package review drives the session lifecycle: creating sessions from change
// plans, gating approval, and orchestrating the at-most-once apply.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/session"
	"github.com/pagelift/pagelift/internal/store"
)

// Manager handles session creation, retrieval, and approval. Apply lives on
// the Orchestrator because it is the only operation with external side
// effects.
type Manager struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager with the given session TTL. A non-positive
// ttl falls back to the 24h default.
func NewManager(s store.Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Manager{store: s, ttl: ttl, now: time.Now}
}

// WithClock replaces the manager's clock. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CreateSession validates the plan, builds an immutable session record, and
// persists it with a TTL hint matching its expiry.
func (m *Manager) CreateSession(ctx context.Context, in models.PlanInput) (*models.ReviewSession, error) {
	if lerr := session.ValidatePlanInput(&in); lerr != nil {
		return nil, lerr
	}

	s := session.NewReviewSession(in, m.now(), m.ttl)
	record, err := session.Serialize(s)
	if err != nil {
		return nil, err
	}

	// TTL hint lets the store reclaim the record itself as a backstop; the
	// guard's clock check is the authoritative expiry.
	if err := m.store.PutSession(ctx, s.SessionID, record, s.ExpiresAt.Sub(s.CreatedAt)); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return s, nil
}

// GetSession fetches and decodes a session. The stored status is returned
// as-is; callers wanting the time-derived view use session.EffectiveStatus.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*models.ReviewSession, error) {
	record, ok, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if !ok {
		return nil, session.NewLifecycleError(session.CodeNotFound, "session not found: %s", sessionID)
	}
	s := session.Deserialize(record)
	if s == nil {
		return nil, fmt.Errorf("corrupt session record: %s", sessionID)
	}
	return s, nil
}

// ListSessions returns stored sessions, newest first. Corrupt records are
// skipped rather than failing the listing.
func (m *Manager) ListSessions(ctx context.Context, limit int) ([]*models.ReviewSession, error) {
	records, err := m.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, err
	}
	sessions := make([]*models.ReviewSession, 0, len(records))
	for _, r := range records {
		if s := session.Deserialize(r.Record); s != nil {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// ApproveResult reports a status transition.
type ApproveResult struct {
	SessionID      string               `json:"sessionId"`
	PreviousStatus models.SessionStatus `json:"previousStatus"`
	NewStatus      models.SessionStatus `json:"newStatus"`
}

// Approve transitions pending→approved. Re-approving an approved session is
// an idempotent success; applied and expired sessions are rejected with
// stable error codes.
func (m *Manager) Approve(ctx context.Context, sessionID string) (*ApproveResult, error) {
	// The read-decide-write below races against concurrent writers on the
	// same id. The compare-and-swap catches a lost race; one retry re-reads
	// and re-decides so a duplicate approve still lands on the idempotent
	// path instead of erroring.
	for attempt := 0; attempt < 2; attempt++ {
		record, ok, err := m.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("fetch session: %w", err)
		}
		if !ok {
			return nil, session.NewLifecycleError(session.CodeNotFound, "session not found: %s", sessionID)
		}
		s := session.Deserialize(record)
		if s == nil {
			return nil, fmt.Errorf("corrupt session record: %s", sessionID)
		}

		d := session.CanApprove(s, m.now())
		if !d.Allowed {
			return nil, decisionError(d)
		}
		if d.Idempotent {
			return &ApproveResult{
				SessionID:      sessionID,
				PreviousStatus: models.SessionStatusApproved,
				NewStatus:      models.SessionStatusApproved,
			}, nil
		}

		prev := s.Status
		s.Status = models.SessionStatusApproved
		next, err := session.Serialize(s)
		if err != nil {
			return nil, err
		}

		swapped, err := m.store.UpdateSessionRecord(ctx, sessionID, record, next)
		if err != nil {
			return nil, fmt.Errorf("persist approval: %w", err)
		}
		if swapped {
			return &ApproveResult{SessionID: sessionID, PreviousStatus: prev, NewStatus: s.Status}, nil
		}
	}
	return nil, fmt.Errorf("approve %s: lost update race, retry", sessionID)
}

// decisionError maps a guard rejection to its stable error code.
func decisionError(d session.Decision) *session.LifecycleError {
	switch d.Reason {
	case "already applied":
		return session.NewLifecycleError(session.CodeAlreadyApplied, "session already applied")
	case "session expired":
		return session.NewLifecycleError(session.CodeExpired, "session expired")
	case "must be approved first":
		return session.NewLifecycleError(session.CodeNotApproved, "session must be approved first")
	default:
		return session.NewLifecycleError(session.CodeValidation, "%s", d.Reason)
	}
}
