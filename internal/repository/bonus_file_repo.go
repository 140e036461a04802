package repository

import (
	"context"

	"clinic-feedback/internal/database"
	"clinic-feedback/internal/models"
)

// BonusFileRepo keeps bonus assignments in one JSON document keyed by client key.
type BonusFileRepo struct {
	doc *database.JSONDocument[models.BonusAssignment]
}

func NewBonusFileRepo(path string) (*BonusFileRepo, error) {
	doc, err := database.OpenJSONDocument[models.BonusAssignment](path)
	if err != nil {
		return nil, err
	}
	return &BonusFileRepo{doc: doc}, nil
}

func (r *BonusFileRepo) Get(_ context.Context, clientKey string) (*models.BonusAssignment, error) {
	docs, err := r.doc.Read()
	if err != nil {
		return nil, err
	}
	a, ok := docs[clientKey]
	if !ok {
		return nil, nil
	}
	a.ClientKey = clientKey
	return &a, nil
}

// Upsert merges the non-zero fields of assignment into the stored one. It
// fails with ErrBonusReassigned instead of replacing a different bonus.
func (r *BonusFileRepo) Upsert(_ context.Context, clientKey string, assignment models.BonusAssignment) error {
	return r.doc.Update(func(docs map[string]models.BonusAssignment) error {
		stored, ok := docs[clientKey]
		if ok && stored.BonusID != "" && assignment.BonusID != "" && stored.BonusID != assignment.BonusID {
			return ErrBonusReassigned
		}
		docs[clientKey] = mergeBonus(stored, assignment)
		return nil
	})
}

func mergeBonus(stored, patch models.BonusAssignment) models.BonusAssignment {
	if patch.BonusID != "" {
		stored.BonusID = patch.BonusID
	}
	if !patch.ClaimedAt.IsZero() {
		stored.ClaimedAt = patch.ClaimedAt
	}
	if patch.ClientMeta != "" {
		stored.ClientMeta = patch.ClientMeta
	}
	return stored
}

func (r *BonusFileRepo) InsertIfAbsent(_ context.Context, clientKey string, assignment models.BonusAssignment) (models.BonusAssignment, bool, error) {
	stored := assignment
	created := false
	err := r.doc.Update(func(docs map[string]models.BonusAssignment) error {
		if existing, ok := docs[clientKey]; ok {
			stored = existing
			return errUnchanged
		}
		docs[clientKey] = assignment
		created = true
		return nil
	})
	if err != nil && err != errUnchanged {
		return models.BonusAssignment{}, false, err
	}
	stored.ClientKey = clientKey
	return stored, created, nil
}
