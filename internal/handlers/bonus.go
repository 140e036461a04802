package handlers

import (
	"context"
	"net/http"
	"time"

	"clinic-feedback/internal/service"
)

type BonusService interface {
	ClaimBonus(ctx context.Context, clientKey, clientMeta string) (service.BonusResult, error)
}

type BonusHandler struct {
	bonus BonusService
}

func NewBonusHandler(bonus BonusService) *BonusHandler {
	return &BonusHandler{bonus: bonus}
}

// --- POST /api/bonus/claim ---

func (h *BonusHandler) ClaimBonus(w http.ResponseWriter, r *http.Request) {
	res, err := h.bonus.ClaimBonus(r.Context(), ClientKey(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":             true,
		"alreadyClaimed": res.AlreadyClaimed,
		"bonusId":        res.BonusID,
		"claimedAt":      res.ClaimedAt.UTC().Format(time.RFC3339),
	})
}
