package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"clinic-feedback/internal/models"
	"clinic-feedback/internal/telegram"
)

type fakeRelay struct {
	mu       sync.Mutex
	posts    []string
	edits    []editCall
	voices   []telegram.Voice
	postErr  error
	editErr  error
	voiceErr error
	nextRef  models.MessageRef

	// voiceGate, when set, holds every voice reply until it is closed.
	voiceGate    chan struct{}
	voiceCtxErrs []error
}

type editCall struct {
	ref  models.MessageRef
	text string
}

func (r *fakeRelay) PostMessage(_ context.Context, text string) (models.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, text)
	if r.postErr != nil {
		return 0, r.postErr
	}
	r.nextRef++
	return 1000 + r.nextRef, nil
}

func (r *fakeRelay) EditMessage(_ context.Context, ref models.MessageRef, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, editCall{ref: ref, text: text})
	return r.editErr
}

func (r *fakeRelay) ReplyVoice(ctx context.Context, _ models.MessageRef, voice telegram.Voice) error {
	if r.voiceGate != nil {
		<-r.voiceGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voices = append(r.voices, voice)
	r.voiceCtxErrs = append(r.voiceCtxErrs, ctx.Err())
	return r.voiceErr
}

func (r *fakeRelay) voiceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voices)
}

func (r *fakeRelay) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts) + len(r.edits) + len(r.voices)
}

type memFeedbackRepo struct {
	mu      sync.Mutex
	records map[string]models.FeedbackRecord
	writes  int
	getErr  error
	saveErr error
}

func newMemFeedbackRepo() *memFeedbackRepo {
	return &memFeedbackRepo{records: map[string]models.FeedbackRecord{}}
}

func (r *memFeedbackRepo) Get(_ context.Context, id string) (*models.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	rec.ID = id
	return &rec, nil
}

func (r *memFeedbackRepo) Upsert(_ context.Context, id string, patch models.FeedbackPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	rec := r.records[id]
	patch.Apply(&rec)
	r.records[id] = rec
	r.writes++
	return nil
}

type memBonusRepo struct {
	mu      sync.Mutex
	byKey   map[string]models.BonusAssignment
	inserts int
	err     error
}

func newMemBonusRepo() *memBonusRepo {
	return &memBonusRepo{byKey: map[string]models.BonusAssignment{}}
}

func (r *memBonusRepo) Get(_ context.Context, key string) (*models.BonusAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.byKey[key]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memBonusRepo) InsertIfAbsent(_ context.Context, key string, a models.BonusAssignment) (models.BonusAssignment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return models.BonusAssignment{}, false, r.err
	}
	if existing, ok := r.byKey[key]; ok {
		return existing, false, nil
	}
	a.ClientKey = key
	r.byKey[key] = a
	r.inserts++
	return a, true, nil
}

type recordingAlerter struct {
	alerts chan string
	err    error
}

func (a *recordingAlerter) AlertUrgent(_ context.Context, id string, _ models.FeedbackRecord) error {
	a.alerts <- id
	return a.err
}

// stepClock advances by one second on every call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

var errBoom = errors.New("boom")
