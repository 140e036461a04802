package repository

import (
	"context"

	"clinic-feedback/internal/database"
	"clinic-feedback/internal/models"
)

// FeedbackFileRepo keeps every feedback record in one JSON document.
type FeedbackFileRepo struct {
	doc *database.JSONDocument[models.FeedbackRecord]
}

func NewFeedbackFileRepo(path string) (*FeedbackFileRepo, error) {
	doc, err := database.OpenJSONDocument[models.FeedbackRecord](path)
	if err != nil {
		return nil, err
	}
	return &FeedbackFileRepo{doc: doc}, nil
}

func (r *FeedbackFileRepo) Get(_ context.Context, id string) (*models.FeedbackRecord, error) {
	docs, err := r.doc.Read()
	if err != nil {
		return nil, err
	}
	rec, ok := docs[id]
	if !ok {
		return nil, nil
	}
	rec.ID = id
	return &rec, nil
}

func (r *FeedbackFileRepo) Upsert(_ context.Context, id string, patch models.FeedbackPatch) error {
	return r.doc.Update(func(docs map[string]models.FeedbackRecord) error {
		rec := docs[id]
		patch.Apply(&rec)
		docs[id] = rec
		return nil
	})
}
