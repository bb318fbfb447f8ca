package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// RetainerRepository handles persistence for retainer agreements.
type RetainerRepository interface {
	Create(ctx context.Context, retainer *domain.Retainer) error
	Update(ctx context.Context, retainer *domain.Retainer) error
	FindByID(ctx context.Context, id string) (*domain.Retainer, error)
	FindByClient(ctx context.Context, guildID, clientID string) ([]domain.Retainer, error)
	FindByGuildID(ctx context.Context, guildID string) ([]domain.Retainer, error)
}

type retainerRepository struct {
	coll *mongo.Collection
}

// NewRetainerRepository instantiates the repository.
func NewRetainerRepository(db *mongo.Database) RetainerRepository {
	return &retainerRepository{coll: db.Collection("retainers")}
}

func (r *retainerRepository) Create(ctx context.Context, retainer *domain.Retainer) error {
	now := time.Now()
	retainer.CreatedAt = now
	retainer.UpdatedAt = now
	if retainer.ID == "" {
		retainer.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.coll.InsertOne(ctx, retainer)
	return err
}

func (r *retainerRepository) Update(ctx context.Context, retainer *domain.Retainer) error {
	retainer.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": retainer.ID}, retainer)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindByID returns (nil, nil) when the retainer does not exist.
func (r *retainerRepository) FindByID(ctx context.Context, id string) (*domain.Retainer, error) {
	var retainer domain.Retainer
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&retainer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &retainer, nil
}

func (r *retainerRepository) FindByClient(ctx context.Context, guildID, clientID string) ([]domain.Retainer, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"guildId": guildID, "clientId": clientID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Retainer
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *retainerRepository) FindByGuildID(ctx context.Context, guildID string) ([]domain.Retainer, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"guildId": guildID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Retainer
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
