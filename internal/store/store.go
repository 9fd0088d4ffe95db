package store

import (
	"context"
	"time"

	"github.com/pagelift/pagelift/internal/models"
)

// SessionRecord pairs a namespaced storage key with its serialized payload.
type SessionRecord struct {
	Key       string
	SessionID string
	Record    string
	ExpiresAt time.Time
}

// Store defines the persistence interface for pagelift.
//
// Review-session records are stored as opaque serialized strings keyed by a
// deterministic namespaced key (see session.StorageKey). The store never
// interprets the payload; the lifecycle layer owns its meaning.
type Store interface {
	// Review sessions
	PutSession(ctx context.Context, sessionID, record string, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (string, bool, error)
	// UpdateSessionRecord replaces the record only if the stored value still
	// equals prev. Returns false when the record changed underneath the
	// caller (or the session is gone) — the compare-and-swap lost.
	UpdateSessionRecord(ctx context.Context, sessionID, prev, next string) (bool, error)
	ListSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// PurgeExpiredSessions reclaims records whose TTL hint has passed. A
	// backstop only: expiry is enforced at read time by the lifecycle guard.
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Audit runs
	CreateAuditRun(ctx context.Context, run *models.AuditRun) error
	GetAuditRun(ctx context.Context, id string) (*models.AuditRun, error)
	ListAuditRuns(ctx context.Context, siteURL string, limit int) ([]*models.AuditRun, error)

	// Generated content
	CreateContentRecord(ctx context.Context, rec *models.ContentRecord) error
	ListContentRecords(ctx context.Context, siteURL string, kind models.ContentKind) ([]*models.ContentRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
