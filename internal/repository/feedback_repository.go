package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// FeedbackRepository handles persistence for client feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *domain.Feedback) error
	FindByGuildID(ctx context.Context, guildID string) ([]domain.Feedback, error)
}

type feedbackRepository struct {
	coll *mongo.Collection
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(db *mongo.Database) FeedbackRepository {
	return &feedbackRepository{coll: db.Collection("feedback")}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	fb.CreatedAt = time.Now()
	if fb.ID == "" {
		fb.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.coll.InsertOne(ctx, fb)
	return err
}

func (r *feedbackRepository) FindByGuildID(ctx context.Context, guildID string) ([]domain.Feedback, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"guildId": guildID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Feedback
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
