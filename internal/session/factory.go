package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/pagelift/pagelift/internal/models"
)

// NewReviewSession builds an immutable session record from a change plan.
// Pure construction: a fresh id, status pending, no I/O. Persisting the
// record is the caller's job.
func NewReviewSession(in models.PlanInput, now time.Time, ttl time.Duration) *models.ReviewSession {
	// UTC strips the monotonic clock reading so the record round-trips
	// through serialization unchanged.
	createdAt := now.UTC()

	return &models.ReviewSession{
		SessionID:       uuid.NewString(),
		Status:          models.SessionStatusPending,
		SiteURL:         in.SiteURL,
		SelectedTargets: in.SelectedTargets,
		TargetRepo:      in.TargetRepo,
		PlannedFiles:    in.PlannedFiles,
		DiffPreviews:    in.DiffPreviews,
		Patches:         in.Patches,
		CreatedAt:       createdAt,
		ExpiresAt:       ExpiresAt(createdAt, ttl),
		CommitShas:      []string{},
	}
}

// ValidatePlanInput checks the structural requirements of a change plan.
// Returns a VALIDATION_ERROR LifecycleError describing the first problem
// found, or nil.
func ValidatePlanInput(in *models.PlanInput) *LifecycleError {
	switch {
	case in.SiteURL == "":
		return NewLifecycleError(CodeValidation, "siteUrl is required")
	case in.TargetRepo.Owner == "":
		return NewLifecycleError(CodeValidation, "targetRepo.owner is required")
	case in.TargetRepo.Repo == "":
		return NewLifecycleError(CodeValidation, "targetRepo.repo is required")
	case len(in.PlannedFiles) == 0:
		return NewLifecycleError(CodeValidation, "plannedFiles must not be empty")
	case len(in.Patches) == 0:
		return NewLifecycleError(CodeValidation, "patches must not be empty")
	}
	for _, pf := range in.PlannedFiles {
		if pf.FilePath == "" {
			return NewLifecycleError(CodeValidation, "plannedFiles entry missing filePath")
		}
		if !pf.Action.Valid() {
			return NewLifecycleError(CodeValidation, "invalid action %q for %s", pf.Action, pf.FilePath)
		}
	}
	for _, p := range in.Patches {
		if p.FilePath == "" {
			return NewLifecycleError(CodeValidation, "patches entry missing filePath")
		}
	}
	return nil
}
