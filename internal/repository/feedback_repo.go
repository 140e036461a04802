package repository

import (
	"context"

	"clinic-feedback/internal/database"
	"clinic-feedback/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// FeedbackRepo is the Mongo-backed FeedbackRepository. Records live in the
// feedbacks collection with the feedback id as _id.
type FeedbackRepo struct {
	collection *mongo.Collection
}

func NewFeedbackRepo() *FeedbackRepo {
	return &FeedbackRepo{
		collection: database.GetCollection("feedbacks"),
	}
}

func (r *FeedbackRepo) Get(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	var rec models.FeedbackRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Upsert sets the patched fields, creating the document when it is missing.
func (r *FeedbackRepo) Upsert(ctx context.Context, id string, patch models.FeedbackPatch) error {
	set := feedbackPatchToSet(patch)
	if len(set) == 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func feedbackPatchToSet(p models.FeedbackPatch) bson.M {
	set := bson.M{}
	if p.TelegramMessageID != nil {
		set["telegram_message_id"] = *p.TelegramMessageID
	}
	if p.Rating != nil {
		set["rating"] = *p.Rating
	}
	if p.Department != nil {
		set["department"] = *p.Department
	}
	if p.Comment != nil {
		set["comment"] = *p.Comment
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Urgent != nil {
		set["urgent"] = *p.Urgent
	}
	if p.CreatedAt != nil {
		set["created_at"] = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		set["updated_at"] = *p.UpdatedAt
	}
	return set
}

// EnsureIndexes creates necessary indexes for the feedbacks collection
func (r *FeedbackRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "urgent", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
