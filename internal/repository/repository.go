package repository

import (
	"context"

	"clinic-feedback/internal/models"
)

// FeedbackRepository stores feedback records keyed by feedback id.
// Get returns (nil, nil) when no record exists.
type FeedbackRepository interface {
	Get(ctx context.Context, id string) (*models.FeedbackRecord, error)
	Upsert(ctx context.Context, id string, patch models.FeedbackPatch) error
}

// BonusRepository stores at most one bonus assignment per client key. The
// concrete stores also offer Upsert for maintenance; it merges metadata but
// never changes an assigned bonus.
type BonusRepository interface {
	Get(ctx context.Context, clientKey string) (*models.BonusAssignment, error)
	// InsertIfAbsent stores assignment unless clientKey already has one. It
	// returns the assignment that is stored after the call and whether it
	// was created by this call.
	InsertIfAbsent(ctx context.Context, clientKey string, assignment models.BonusAssignment) (models.BonusAssignment, bool, error)
}
