package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"clinic-feedback/internal/metrics"
	"clinic-feedback/internal/models"
	"clinic-feedback/internal/repository"
	"clinic-feedback/internal/telegram"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UrgentAlerter is notified in the background about urgent submissions.
type UrgentAlerter interface {
	AlertUrgent(ctx context.Context, feedbackID string, rec models.FeedbackRecord) error
}

type FeedbackInput struct {
	Rating     int
	Department string
	Comment    string
	Voices     []telegram.Voice
}

type FeedbackService struct {
	repo       repository.FeedbackRepository
	relay      telegram.Relay
	formatter  telegram.Formatter
	classifier Classifier
	alerter    UrgentAlerter
	newID      func() string
	now        func() time.Time

	background sync.WaitGroup
}

type FeedbackOption func(*FeedbackService)

func WithClassifier(c Classifier) FeedbackOption {
	return func(s *FeedbackService) { s.classifier = c }
}

func WithFormatter(f telegram.Formatter) FeedbackOption {
	return func(s *FeedbackService) { s.formatter = f }
}

func WithAlerter(a UrgentAlerter) FeedbackOption {
	return func(s *FeedbackService) { s.alerter = a }
}

func WithClock(now func() time.Time) FeedbackOption {
	return func(s *FeedbackService) { s.now = now }
}

func WithIDGenerator(newID func() string) FeedbackOption {
	return func(s *FeedbackService) { s.newID = newID }
}

func NewFeedbackService(repo repository.FeedbackRepository, relay telegram.Relay, opts ...FeedbackOption) *FeedbackService {
	s := &FeedbackService{
		repo:       repo,
		relay:      relay,
		formatter:  telegram.NewFormatter(),
		classifier: NewClassifier(nil),
		newID:      func() string { return uuid.New().String() },
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFeedback posts a new submission to the chat and stores it under a
// fresh id. Nothing is stored when the post fails. Voice recordings are
// replied to the posted message in the background once the record is
// stored, so the id is returned without waiting on them; their failures are
// logged and do not fail the submission.
func (s *FeedbackService) CreateFeedback(ctx context.Context, in FeedbackInput) (string, error) {
	if in.Rating == 0 {
		return "", invalid("rating", "required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return "", invalid("rating", "must be between 1 and 5")
	}

	logger := zerolog.Ctx(ctx)
	id := s.newID()
	urgent := s.classifier.IsUrgent(in.Rating, in.Comment)

	text := s.formatter.Text(telegram.FeedbackMessage{
		Rating:     in.Rating,
		Department: in.Department,
		Comment:    in.Comment,
	})
	ref, err := s.relay.PostMessage(ctx, text)
	if err != nil {
		metrics.RelayFailures.WithLabelValues("post").Inc()
		return "", fmt.Errorf("%w: post feedback: %w", ErrRelay, err)
	}

	now := s.now()
	rec := models.FeedbackRecord{
		TelegramMessageID: ref,
		Rating:            in.Rating,
		Department:        in.Department,
		Comment:           in.Comment,
		Urgent:            urgent,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Upsert(ctx, id, models.NewFeedbackPatch(rec)); err != nil {
		logger.Error().Err(err).Str("feedback_id", id).Int("message_id", int(ref)).Msg("feedback posted but not stored")
		return "", fmt.Errorf("%w: save feedback: %w", ErrStore, err)
	}
	metrics.FeedbackSubmitted.WithLabelValues(strconv.FormatBool(urgent)).Inc()
	logger.Info().Str("feedback_id", id).Int("rating", in.Rating).Bool("urgent", urgent).Msg("feedback submitted")

	// Background work outlives the request.
	bg := context.WithoutCancel(ctx)
	if len(in.Voices) > 0 {
		s.goBackground(func() { s.relayVoices(bg, id, ref, in.Voices) })
	}
	if urgent && s.alerter != nil {
		s.goBackground(func() {
			if err := s.alerter.AlertUrgent(bg, id, rec); err != nil {
				logger.Error().Err(err).Str("feedback_id", id).Msg("urgent alert failed")
			}
		})
	}

	return id, nil
}

func (s *FeedbackService) goBackground(fn func()) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn()
	}()
}

// Wait blocks until pending voice relays and urgent alerts have finished or
// ctx is done.
func (s *FeedbackService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FeedbackService) relayVoices(ctx context.Context, id string, ref models.MessageRef, voices []telegram.Voice) {
	for i, v := range voices {
		n := i + 1
		if v.Name == "" {
			v.Name = fmt.Sprintf("voice-%d.ogg", n)
		}
		v.Caption = telegram.VoiceCaption(n)
		if err := s.relay.ReplyVoice(ctx, ref, v); err != nil {
			metrics.RelayFailures.WithLabelValues("voice").Inc()
			metrics.VoicesRelayed.WithLabelValues("failed").Inc()
			zerolog.Ctx(ctx).Error().Err(err).Str("feedback_id", id).Int("voice", n).Msg("voice relay failed")
			continue
		}
		metrics.VoicesRelayed.WithLabelValues("sent").Inc()
	}
}

// AttachPhone edits the message posted for feedbackID in place to show the
// phone number, then records the phone. The record is untouched when the
// edit fails.
func (s *FeedbackService) AttachPhone(ctx context.Context, feedbackID, phone string) error {
	feedbackID = strings.TrimSpace(feedbackID)
	phone = strings.TrimSpace(phone)
	if feedbackID == "" {
		return invalid("feedbackId", "required")
	}
	if phone == "" {
		return invalid("phone", "required")
	}

	rec, err := s.repo.Get(ctx, feedbackID)
	if err != nil {
		return fmt.Errorf("%w: load feedback: %w", ErrStore, err)
	}
	if rec == nil || rec.TelegramMessageID == 0 {
		return fmt.Errorf("%w: feedback %s", ErrNotFound, feedbackID)
	}

	text := s.formatter.Text(telegram.FeedbackMessage{
		Rating:     rec.Rating,
		Department: rec.Department,
		Comment:    rec.Comment,
		Phone:      phone,
	})
	if err := s.relay.EditMessage(ctx, rec.TelegramMessageID, text); err != nil {
		metrics.RelayFailures.WithLabelValues("edit").Inc()
		return fmt.Errorf("%w: edit feedback: %w", ErrRelay, err)
	}

	now := s.now()
	if now.Before(rec.CreatedAt) {
		now = rec.CreatedAt
	}
	if err := s.repo.Upsert(ctx, feedbackID, models.FeedbackPatch{Phone: &phone, UpdatedAt: &now}); err != nil {
		return fmt.Errorf("%w: save phone: %w", ErrStore, err)
	}
	metrics.PhoneAttached.Inc()
	zerolog.Ctx(ctx).Info().Str("feedback_id", feedbackID).Msg("phone attached")
	return nil
}

// Get returns the stored record for feedbackID or ErrNotFound.
func (s *FeedbackService) Get(ctx context.Context, feedbackID string) (*models.FeedbackRecord, error) {
	rec, err := s.repo.Get(ctx, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("%w: load feedback: %w", ErrStore, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: feedback %s", ErrNotFound, feedbackID)
	}
	return rec, nil
}
