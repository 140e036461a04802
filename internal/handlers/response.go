package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic-feedback/internal/service"

	"github.com/rs/zerolog/hlog"
)

const (
	msgBadRequest   = "Noto‘g‘ri so‘rov"
	msgServerError  = "Server xatolik"
	msgNotFound     = "Original xabar topilmadi"
	msgRateLimited  = "Juda ko‘p urinish. 1 daqiqadan keyin qayta urinib ko‘ring."
	msgNoRating     = "Rating yo‘q"
	msgBadRating    = "Rating 1 dan 5 gacha bo‘lishi kerak"
	msgNoFeedbackID = "feedbackId kiritilmadi"
	msgNoPhone      = "Telefon raqam kiritilmadi"
	msgTooManyFiles = "Juda ko‘p audio fayl"
	msgFileTooLarge = "Audio fayl juda katta"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "message": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Internal details are logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFailure(w, http.StatusBadRequest, validationMessage(verr))
	case errors.Is(err, service.ErrNotFound):
		writeFailure(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrRelay):
		hlog.FromRequest(r).Error().Err(err).Msg("telegram relay failed")
		writeFailure(w, http.StatusBadGateway, msgServerError)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeFailure(w, http.StatusInternalServerError, msgServerError)
	}
}

func validationMessage(err *service.ValidationError) string {
	switch err.Field {
	case "rating":
		if err.Reason == "required" {
			return msgNoRating
		}
		return msgBadRating
	case "feedbackId":
		return msgNoFeedbackID
	case "phone":
		return msgNoPhone
	default:
		return msgBadRequest
	}
}
