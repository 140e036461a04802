package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"clinic-feedback/internal/models"
	"clinic-feedback/internal/telegram"
)

func newTestFeedbackService(repo *memFeedbackRepo, relay *fakeRelay, opts ...FeedbackOption) *FeedbackService {
	clock := &stepClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]FeedbackOption{WithClock(clock.Now)}, opts...)
	return NewFeedbackService(repo, relay, opts...)
}

func TestCreateFeedbackStoresRecordForEveryRating(t *testing.T) {
	repo := newMemFeedbackRepo()
	relay := &fakeRelay{}
	svc := newTestFeedbackService(repo, relay)
	ctx := context.Background()

	seen := map[string]bool{}
	for rating := 1; rating <= 5; rating++ {
		id, err := svc.CreateFeedback(ctx, FeedbackInput{Rating: rating, Department: "reception", Comment: "c"})
		if err != nil {
			t.Fatalf("rating %d: %v", rating, err)
		}
		if id == "" || seen[id] {
			t.Fatalf("expected fresh id, got %q", id)
		}
		seen[id] = true

		rec, err := svc.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if rec.Rating != rating || rec.Department != "reception" || rec.Comment != "c" {
			t.Fatalf("unexpected record: %+v", rec)
		}
		if rec.TelegramMessageID == 0 {
			t.Fatal("expected message reference to be stored")
		}
		if rec.Phone != "" {
			t.Fatalf("expected empty phone, got %q", rec.Phone)
		}
		if rec.UpdatedAt.Before(rec.CreatedAt) {
			t.Fatalf("updatedAt before createdAt: %+v", rec)
		}
	}
	if len(relay.posts) != 5 {
		t.Fatalf("expected 5 posts, got %d", len(relay.posts))
	}
}

func TestCreateFeedbackPostsFormattedMessage(t *testing.T) {
	relay := &fakeRelay{}
	svc := newTestFeedbackService(newMemFeedbackRepo(), relay)

	if _, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: 1, Department: "Lab", Comment: "a<b"}); err != nil {
		t.Fatal(err)
	}
	text := relay.posts[0]
	if !strings.Contains(text, telegram.LabelRedFlag) || !strings.Contains(text, "a&lt;b") || !strings.Contains(text, "#lab") {
		t.Fatalf("unexpected message %q", text)
	}
	if strings.Contains(text, "📞") {
		t.Fatal("new feedback must not carry a phone line")
	}
}

func TestCreateFeedbackMissingRatingHasNoSideEffects(t *testing.T) {
	repo := newMemFeedbackRepo()
	relay := &fakeRelay{}
	svc := newTestFeedbackService(repo, relay)

	_, err := svc.CreateFeedback(context.Background(), FeedbackInput{Department: "x", Comment: "y"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "rating" {
		t.Fatalf("expected rating field error, got %v", err)
	}
	if relay.calls() != 0 {
		t.Fatalf("expected zero relay calls, got %d", relay.calls())
	}
	if repo.writes != 0 {
		t.Fatalf("expected zero store writes, got %d", repo.writes)
	}
}

func TestCreateFeedbackRejectsOutOfRangeRating(t *testing.T) {
	relay := &fakeRelay{}
	svc := newTestFeedbackService(newMemFeedbackRepo(), relay)
	for _, r := range []int{-1, 6, 42} {
		if _, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: r}); !errors.Is(err, ErrValidation) {
			t.Fatalf("rating %d: expected validation error, got %v", r, err)
		}
	}
	if relay.calls() != 0 {
		t.Fatal("expected no relay calls")
	}
}

func TestCreateFeedbackRelayFailurePersistsNothing(t *testing.T) {
	repo := newMemFeedbackRepo()
	relay := &fakeRelay{postErr: errBoom}
	svc := newTestFeedbackService(repo, relay)

	_, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: 4})
	if !errors.Is(err, ErrRelay) || !errors.Is(err, errBoom) {
		t.Fatalf("expected relay error wrapping cause, got %v", err)
	}
	if repo.writes != 0 || len(repo.records) != 0 {
		t.Fatal("no record may be stored when posting fails")
	}
}

func TestCreateFeedbackStoreFailure(t *testing.T) {
	repo := newMemFeedbackRepo()
	repo.saveErr = errBoom
	svc := newTestFeedbackService(repo, &fakeRelay{})

	if _, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: 4}); !errors.Is(err, ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestCreateFeedbackUsesInjectedIDs(t *testing.T) {
	n := 0
	svc := newTestFeedbackService(newMemFeedbackRepo(), &fakeRelay{}, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("fb-%d", n)
	}))
	id, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: 5})
	if err != nil || id != "fb-1" {
		t.Fatalf("expected fb-1, got %q (%v)", id, err)
	}
}

func TestCreateFeedbackUrgentFlag(t *testing.T) {
	cases := []struct {
		rating  int
		comment string
		want    bool
	}{
		{1, "", true},
		{1, "everything was fine", true},
		{5, "excellent, no issues", false},
		{5, "I will go to court", true},
		{4, "Rahbariyatga shikoyat qilaman", true},
		{3, "so-so", false},
	}
	for _, tc := range cases {
		repo := newMemFeedbackRepo()
		svc := newTestFeedbackService(repo, &fakeRelay{})
		id, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: tc.rating, Comment: tc.comment})
		if err != nil {
			t.Fatal(err)
		}
		if got := repo.records[id].Urgent; got != tc.want {
			t.Fatalf("rating=%d comment=%q urgent=%v want=%v", tc.rating, tc.comment, got, tc.want)
		}
	}
}

func TestCreateFeedbackAlertsOnlyUrgent(t *testing.T) {
	alerter := &recordingAlerter{alerts: make(chan string, 2)}
	svc := newTestFeedbackService(newMemFeedbackRepo(), &fakeRelay{}, WithAlerter(alerter))
	ctx := context.Background()

	if _, err := svc.CreateFeedback(ctx, FeedbackInput{Rating: 5, Comment: "great"}); err != nil {
		t.Fatal(err)
	}
	urgentID, err := svc.CreateFeedback(ctx, FeedbackInput{Rating: 1, Comment: "bad"})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-alerter.alerts:
		if got != urgentID {
			t.Fatalf("expected alert for %s, got %s", urgentID, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an urgent alert")
	}
	select {
	case got := <-alerter.alerts:
		t.Fatalf("unexpected second alert for %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCreateFeedbackRelaysVoicesAsReplies(t *testing.T) {
	relay := &fakeRelay{}
	svc := newTestFeedbackService(newMemFeedbackRepo(), relay)

	_, err := svc.CreateFeedback(context.Background(), FeedbackInput{
		Rating: 4,
		Voices: []telegram.Voice{{Data: []byte("a")}, {Name: "mine.webm", Data: []byte("b")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(relay.posts) != 1 {
		t.Fatalf("expected one text post, got %d", len(relay.posts))
	}
	if len(relay.voices) != 2 {
		t.Fatalf("expected two voices, got %d", len(relay.voices))
	}
	if relay.voices[0].Name != "voice-1.ogg" || relay.voices[0].Caption != telegram.VoiceCaption(1) {
		t.Fatalf("unexpected first voice: %+v", relay.voices[0])
	}
	if relay.voices[1].Name != "mine.webm" || relay.voices[1].Caption != telegram.VoiceCaption(2) {
		t.Fatalf("unexpected second voice: %+v", relay.voices[1])
	}
}

func TestCreateFeedbackVoiceFailureKeepsSubmission(t *testing.T) {
	repo := newMemFeedbackRepo()
	relay := &fakeRelay{voiceErr: errBoom}
	svc := newTestFeedbackService(repo, relay)

	id, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: 4, Voices: []telegram.Voice{{Data: []byte("a")}}})
	if err != nil {
		t.Fatalf("voice failure must not fail the submission: %v", err)
	}
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.records[id]; !ok {
		t.Fatal("expected record to be stored")
	}
	if relay.voiceCount() != 1 {
		t.Fatalf("expected the voice to be attempted once, got %d", relay.voiceCount())
	}
}

func TestCreateFeedbackReturnsBeforeSlowVoices(t *testing.T) {
	repo := newMemFeedbackRepo()
	relay := &fakeRelay{voiceGate: make(chan struct{})}
	svc := newTestFeedbackService(repo, relay)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := svc.CreateFeedback(ctx, FeedbackInput{
			Rating: 4,
			Voices: []telegram.Voice{{Data: []byte("a")}, {Data: []byte("b")}},
		})
		done <- result{id, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CreateFeedback waited for the voice relay")
	}
	if res.err != nil || res.id == "" {
		t.Fatalf("expected an id, got %q %v", res.id, res.err)
	}
	if _, ok := repo.records[res.id]; !ok {
		t.Fatal("expected record to be stored before voices are relayed")
	}

	// The request is over; its cancellation must not drop the voices.
	cancel()
	close(relay.voiceGate)
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if relay.voiceCount() != 2 {
		t.Fatalf("expected both voices relayed, got %d", relay.voiceCount())
	}
	for i, err := range relay.voiceCtxErrs {
		if err != nil {
			t.Fatalf("voice %d relayed with a canceled context: %v", i+1, err)
		}
	}
}

func TestWaitHonorsContext(t *testing.T) {
	relay := &fakeRelay{voiceGate: make(chan struct{})}
	svc := newTestFeedbackService(newMemFeedbackRepo(), relay)
	if _, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: 5, Voices: []telegram.Voice{{Data: []byte("a")}}}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while a voice is pending, got %v", err)
	}

	close(relay.voiceGate)
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestWaitCoversUrgentAlerts(t *testing.T) {
	alerter := &recordingAlerter{alerts: make(chan string, 1)}
	svc := newTestFeedbackService(newMemFeedbackRepo(), &fakeRelay{}, WithAlerter(alerter))

	id, err := svc.CreateFeedback(context.Background(), FeedbackInput{Rating: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-alerter.alerts:
		if got != id {
			t.Fatalf("expected alert for %s, got %s", id, got)
		}
	default:
		t.Fatal("Wait returned before the urgent alert was sent")
	}
}

func TestAttachPhoneRoundTrip(t *testing.T) {
	repo := newMemFeedbackRepo()
	relay := &fakeRelay{}
	svc := newTestFeedbackService(repo, relay)
	ctx := context.Background()

	id, err := svc.CreateFeedback(ctx, FeedbackInput{Rating: 5, Department: "reception", Comment: "great"})
	if err != nil {
		t.Fatal(err)
	}
	created := repo.records[id]

	if err := svc.AttachPhone(ctx, id, "+998901234567"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	rec := repo.records[id]
	if rec.Phone != "+998901234567" {
		t.Fatalf("expected phone to be stored, got %q", rec.Phone)
	}
	if !rec.UpdatedAt.After(rec.CreatedAt) {
		t.Fatalf("expected updatedAt after createdAt: %v <= %v", rec.UpdatedAt, rec.CreatedAt)
	}
	if rec.Rating != created.Rating || rec.Comment != created.Comment || rec.Department != created.Department ||
		rec.Urgent != created.Urgent || rec.TelegramMessageID != created.TelegramMessageID || !rec.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("write-once fields changed: before=%+v after=%+v", created, rec)
	}

	if len(relay.posts) != 1 || len(relay.edits) != 1 {
		t.Fatalf("expected one post and one edit, got %d posts and %d edits", len(relay.posts), len(relay.edits))
	}
	edit := relay.edits[0]
	if edit.ref != created.TelegramMessageID {
		t.Fatalf("edit targeted %d, want %d", edit.ref, created.TelegramMessageID)
	}
	if !strings.Contains(edit.text, "📞 Aloqa: <b>+998901234567</b>") || !strings.Contains(edit.text, "great") {
		t.Fatalf("unexpected edited text %q", edit.text)
	}
}

func TestAttachPhoneUnknownIDMakesNoRelayCall(t *testing.T) {
	relay := &fakeRelay{}
	svc := newTestFeedbackService(newMemFeedbackRepo(), relay)

	err := svc.AttachPhone(context.Background(), "does-not-exist", "+998901234567")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if relay.calls() != 0 {
		t.Fatalf("expected zero relay calls, got %d", relay.calls())
	}
}

func TestAttachPhoneRecordWithoutMessageRefIsNotFound(t *testing.T) {
	repo := newMemFeedbackRepo()
	repo.records["orphan"] = models.FeedbackRecord{Rating: 4, Comment: "no message"}
	relay := &fakeRelay{}
	svc := newTestFeedbackService(repo, relay)

	if err := svc.AttachPhone(context.Background(), "orphan", "+998"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if relay.calls() != 0 {
		t.Fatal("expected no relay calls")
	}
}

func TestAttachPhoneValidation(t *testing.T) {
	relay := &fakeRelay{}
	repo := newMemFeedbackRepo()
	svc := newTestFeedbackService(repo, relay)
	cases := []struct {
		id, phone, field string
	}{
		{"", "+998", "feedbackId"},
		{"  ", "+998", "feedbackId"},
		{"abc", "", "phone"},
		{"abc", "   ", "phone"},
	}
	for _, tc := range cases {
		err := svc.AttachPhone(context.Background(), tc.id, tc.phone)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Fatalf("id=%q phone=%q: expected %s validation error, got %v", tc.id, tc.phone, tc.field, err)
		}
	}
	if relay.calls() != 0 || repo.writes != 0 {
		t.Fatal("validation failures must have no side effects")
	}
}

func TestAttachPhoneEditFailureLeavesRecordUnchanged(t *testing.T) {
	repo := newMemFeedbackRepo()
	relay := &fakeRelay{}
	svc := newTestFeedbackService(repo, relay)
	ctx := context.Background()

	id, err := svc.CreateFeedback(ctx, FeedbackInput{Rating: 3})
	if err != nil {
		t.Fatal(err)
	}
	before := repo.records[id]
	writes := repo.writes

	relay.editErr = errBoom
	if err := svc.AttachPhone(ctx, id, "+998901234567"); !errors.Is(err, ErrRelay) {
		t.Fatalf("expected relay error, got %v", err)
	}
	if repo.writes != writes || repo.records[id] != before {
		t.Fatal("record must not change when the edit fails")
	}
}

func TestAttachPhoneStoreReadFailure(t *testing.T) {
	repo := newMemFeedbackRepo()
	repo.getErr = errBoom
	relay := &fakeRelay{}
	svc := newTestFeedbackService(repo, relay)

	if err := svc.AttachPhone(context.Background(), "x", "+998"); !errors.Is(err, ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if relay.calls() != 0 {
		t.Fatal("expected no relay calls")
	}
}
