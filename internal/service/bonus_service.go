package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"clinic-feedback/internal/metrics"
	"clinic-feedback/internal/models"
	"clinic-feedback/internal/repository"

	"github.com/rs/zerolog"
)

type BonusResult struct {
	BonusID        string
	AlreadyClaimed bool
	ClaimedAt      time.Time
}

type BonusService struct {
	repo repository.BonusRepository
	pick func(ids []string) string
	now  func() time.Time
}

func NewBonusService(repo repository.BonusRepository) *BonusService {
	return &BonusService{
		repo: repo,
		pick: func(ids []string) string { return ids[rand.Intn(len(ids))] },
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ClaimBonus assigns a random bonus the first time clientKey asks and
// returns that same assignment on every later call.
func (s *BonusService) ClaimBonus(ctx context.Context, clientKey, clientMeta string) (BonusResult, error) {
	if clientKey == "" {
		return BonusResult{}, invalid("clientKey", "required")
	}

	existing, err := s.repo.Get(ctx, clientKey)
	if err != nil {
		return BonusResult{}, fmt.Errorf("%w: load bonus: %w", ErrStore, err)
	}
	if existing != nil {
		metrics.BonusClaims.WithLabelValues(existing.BonusID, "true").Inc()
		return BonusResult{BonusID: existing.BonusID, AlreadyClaimed: true, ClaimedAt: existing.ClaimedAt}, nil
	}

	candidate := models.BonusAssignment{
		BonusID:    s.pick(models.BonusIDs),
		ClaimedAt:  s.now(),
		ClientMeta: clientMeta,
	}
	stored, created, err := s.repo.InsertIfAbsent(ctx, clientKey, candidate)
	if err != nil {
		return BonusResult{}, fmt.Errorf("%w: save bonus: %w", ErrStore, err)
	}

	metrics.BonusClaims.WithLabelValues(stored.BonusID, strconv.FormatBool(!created)).Inc()
	if created {
		zerolog.Ctx(ctx).Info().Str("client_key", clientKey).Str("bonus_id", stored.BonusID).Msg("bonus assigned")
	}
	return BonusResult{BonusID: stored.BonusID, AlreadyClaimed: !created, ClaimedAt: stored.ClaimedAt}, nil
}
