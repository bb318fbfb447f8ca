package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// ReminderRepository handles persistence for scheduled reminders.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	Update(ctx context.Context, reminder *domain.Reminder) error
	FindByGuildID(ctx context.Context, guildID string) ([]domain.Reminder, error)
	FindDue(ctx context.Context, before time.Time) ([]domain.Reminder, error)
}

type reminderRepository struct {
	coll *mongo.Collection
}

// NewReminderRepository instantiates the repository.
func NewReminderRepository(db *mongo.Database) ReminderRepository {
	return &reminderRepository{coll: db.Collection("reminders")}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	reminder.CreatedAt = time.Now()
	if reminder.ID == "" {
		reminder.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.coll.InsertOne(ctx, reminder)
	return err
}

func (r *reminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": reminder.ID}, reminder)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *reminderRepository) FindByGuildID(ctx context.Context, guildID string) ([]domain.Reminder, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"guildId": guildID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Reminder
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *reminderRepository) FindDue(ctx context.Context, before time.Time) ([]domain.Reminder, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"scheduledFor": bson.M{"$lte": before},
		"deliveredAt":  nil,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Reminder
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
