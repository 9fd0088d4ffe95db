package review

import (
	"context"
	"fmt"
	"time"

	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/session"
	"github.com/pagelift/pagelift/internal/store"
	"github.com/pagelift/pagelift/internal/vcs"
)

// ApplyResult is the outcome of an apply call. Applied is true both for a
// fresh write and for the idempotent already-applied case.
type ApplyResult struct {
	SessionID  string   `json:"sessionId"`
	Applied    bool     `json:"applied"`
	CommitShas []string `json:"commitShas"`
}

// Orchestrator executes the write-back once the lifecycle guard authorizes
// it, then records the resulting commit SHAs on the session.
type Orchestrator struct {
	store store.Store
	vcs   vcs.Client
	now   func() time.Time
}

// NewOrchestrator wires the orchestrator to its store and VCS client.
func NewOrchestrator(s store.Store, c vcs.Client) *Orchestrator {
	return &Orchestrator{store: s, vcs: c, now: time.Now}
}

// WithClock replaces the orchestrator's clock. Tests only.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Apply transitions approved→applied, writing the session's patches to the
// target repository at most once. The token is the caller's write credential
// and is never persisted.
//
// A second apply on an already-applied session returns the recorded commit
// SHAs without contacting the VCS client. A failed external write leaves the
// session approved, so the caller may retry safely.
func (o *Orchestrator) Apply(ctx context.Context, sessionID, token string) (*ApplyResult, error) {
	record, ok, err := o.store.GetSession(ctx, sessionID)
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

	d := session.CanApply(s, o.now())
	if d.Idempotent {
		return &ApplyResult{SessionID: sessionID, Applied: true, CommitShas: s.CommitShas}, nil
	}
	if !d.Allowed {
		return nil, decisionError(d)
	}

	shas, err := o.vcs.CommitFiles(ctx, s.TargetRepo, s.Patches, token, commitMessage(s))
	if err != nil {
		// Session stays approved; surfaced as retryable, not a lifecycle error.
		return nil, fmt.Errorf("write patches: %w", err)
	}

	s.Status = models.SessionStatusApplied
	s.CommitShas = shas
	next, err := session.Serialize(s)
	if err != nil {
		return nil, err
	}

	swapped, err := o.store.UpdateSessionRecord(ctx, sessionID, record, next)
	if err != nil {
		return nil, fmt.Errorf("persist applied status: %w", err)
	}
	if !swapped {
		// A concurrent apply won the swap. If it reached applied, report its
		// SHAs as the idempotent outcome; anything else is a genuine conflict.
		cur, ok, err := o.store.GetSession(ctx, sessionID)
		if err != nil || !ok {
			return nil, fmt.Errorf("apply %s: session record changed during apply", sessionID)
		}
		if winner := session.Deserialize(cur); winner != nil && winner.Status == models.SessionStatusApplied {
			return &ApplyResult{SessionID: sessionID, Applied: true, CommitShas: winner.CommitShas}, nil
		}
		return nil, fmt.Errorf("apply %s: session record changed during apply", sessionID)
	}

	return &ApplyResult{SessionID: sessionID, Applied: true, CommitShas: shas}, nil
}

func commitMessage(s *models.ReviewSession) string {
	return fmt.Sprintf("pagelift: apply reviewed changes for %s (session %s)", s.SiteURL, s.SessionID)
}
