package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"clinic-feedback/internal/service"
	"clinic-feedback/internal/telegram"
)

const (
	maxJSONBody      = 64 << 10
	multipartMemory  = 32 << 20
	voicesFormField  = "voices"
	multipartSlack   = 1 << 20
	defaultMaxVoices = 10
	defaultVoiceSize = 12 << 20
)

type FeedbackService interface {
	CreateFeedback(ctx context.Context, in service.FeedbackInput) (string, error)
	AttachPhone(ctx context.Context, feedbackID, phone string) error
}

type FeedbackHandler struct {
	feedback      FeedbackService
	maxVoices     int
	maxVoiceBytes int64
}

func NewFeedbackHandler(feedback FeedbackService, maxVoices int, maxVoiceBytes int64) *FeedbackHandler {
	if maxVoices < 0 {
		maxVoices = defaultMaxVoices
	}
	if maxVoiceBytes <= 0 {
		maxVoiceBytes = defaultVoiceSize
	}
	return &FeedbackHandler{
		feedback:      feedback,
		maxVoices:     maxVoices,
		maxVoiceBytes: maxVoiceBytes,
	}
}

// ratingValue accepts a rating sent as a JSON number or a numeric string.
type ratingValue int

func (v *ratingValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*v = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*v = ratingValue(parseRating(s))
	return nil
}

// parseRating returns 0 for a missing value and -1 for anything that is not
// a whole number, so the service reports it as out of range.
func parseRating(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1e6 {
		return -1
	}
	return int(f)
}

type SubmitFeedbackRequest struct {
	Rating     ratingValue `json:"rating"`
	Department string      `json:"department"`
	Comment    string      `json:"comment"`
}

type RequestCallRequest struct {
	FeedbackID string `json:"feedbackId"`
	Phone      string `json:"phone"`
}

// --- POST /api/feedback ---

func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var (
		in  service.FeedbackInput
		msg string
		ok  bool
	)
	if isMultipart(r) {
		in, msg, ok = h.parseMultipart(w, r)
	} else {
		in, msg, ok = parseFeedbackJSON(w, r)
	}
	if !ok {
		writeFailure(w, http.StatusBadRequest, msg)
		return
	}

	feedbackID, err := h.feedback.CreateFeedback(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"feedbackId": feedbackID,
	})
}

func parseFeedbackJSON(w http.ResponseWriter, r *http.Request) (service.FeedbackInput, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req SubmitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return service.FeedbackInput{}, msgBadRequest, false
	}
	return service.FeedbackInput{
		Rating:     int(req.Rating),
		Department: req.Department,
		Comment:    req.Comment,
	}, "", true
}

func (h *FeedbackHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (service.FeedbackInput, string, bool) {
	limit := int64(h.maxVoices)*h.maxVoiceBytes + multipartSlack
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return service.FeedbackInput{}, msgBadRequest, false
	}
	defer r.MultipartForm.RemoveAll()

	in := service.FeedbackInput{
		Rating:     parseRating(r.FormValue("rating")),
		Department: r.FormValue("department"),
		Comment:    r.FormValue("comment"),
	}

	files := r.MultipartForm.File[voicesFormField]
	if len(files) > h.maxVoices {
		return service.FeedbackInput{}, msgTooManyFiles, false
	}
	for i, fh := range files {
		if fh.Size > h.maxVoiceBytes {
			return service.FeedbackInput{}, msgFileTooLarge, false
		}
		data, err := readUpload(fh)
		if err != nil {
			return service.FeedbackInput{}, msgBadRequest, false
		}
		name := fh.Filename
		if name == "" {
			name = fmt.Sprintf("voice-%d.ogg", i+1)
		}
		in.Voices = append(in.Voices, telegram.Voice{Name: name, Data: data})
	}
	return in, "", true
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// --- POST /api/request-call ---

// RequestCall attaches a call-back phone number to earlier feedback by
// editing the original chat message.
func (h *FeedbackHandler) RequestCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req RequestCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	if err := h.feedback.AttachPhone(r.Context(), req.FeedbackID, req.Phone); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
