package repository

import (
	"context"

	"clinic-feedback/internal/database"
	"clinic-feedback/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// BonusRepo is the Mongo-backed BonusRepository. The client key is the _id,
// so the primary key index enforces one assignment per client.
type BonusRepo struct {
	collection *mongo.Collection
}

func NewBonusRepo() *BonusRepo {
	return &BonusRepo{
		collection: database.GetCollection("bonus_claims"),
	}
}

func (r *BonusRepo) Get(ctx context.Context, clientKey string) (*models.BonusAssignment, error) {
	var a models.BonusAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": clientKey}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Upsert merges the non-zero fields of assignment into the stored one. The
// bonus id is part of the filter, so a different stored bonus never
// matches and the fallback insert hits the _id index instead.
func (r *BonusRepo) Upsert(ctx context.Context, clientKey string, assignment models.BonusAssignment) error {
	set := bonusAssignmentToSet(assignment)
	if len(set) == 0 {
		return nil
	}

	filter := bson.M{"_id": clientKey}
	if assignment.BonusID != "" {
		filter["bonus_id"] = assignment.BonusID
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	assignment.ClientKey = clientKey
	if _, err := r.collection.InsertOne(ctx, assignment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrBonusReassigned
		}
		return err
	}
	return nil
}

func bonusAssignmentToSet(a models.BonusAssignment) bson.M {
	set := bson.M{}
	if a.BonusID != "" {
		set["bonus_id"] = a.BonusID
	}
	if !a.ClaimedAt.IsZero() {
		set["claimed_at"] = a.ClaimedAt
	}
	if a.ClientMeta != "" {
		set["client_meta"] = a.ClientMeta
	}
	return set
}

func (r *BonusRepo) InsertIfAbsent(ctx context.Context, clientKey string, assignment models.BonusAssignment) (models.BonusAssignment, bool, error) {
	assignment.ClientKey = clientKey
	_, err := r.collection.InsertOne(ctx, assignment)
	if err == nil {
		return assignment, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return models.BonusAssignment{}, false, err
	}

	existing, err := r.Get(ctx, clientKey)
	if err != nil {
		return models.BonusAssignment{}, false, err
	}
	if existing == nil {
		return models.BonusAssignment{}, false, mongo.ErrNoDocuments
	}
	return *existing, false, nil
}

// EnsureIndexes creates necessary indexes for the bonus_claims collection
func (r *BonusRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "claimed_at", Value: -1}},
	})
	return err
}
