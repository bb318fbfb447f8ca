package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// ApplicationRepository handles persistence for job applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	Update(ctx context.Context, app *domain.Application) error
	FindByGuildID(ctx context.Context, guildID string) ([]domain.Application, error)
}

type applicationRepository struct {
	coll *mongo.Collection
}

// NewApplicationRepository instantiates the repository.
func NewApplicationRepository(db *mongo.Database) ApplicationRepository {
	return &applicationRepository{coll: db.Collection("applications")}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	if app.ID == "" {
		app.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.coll.InsertOne(ctx, app)
	return err
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	app.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": app.ID}, app)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *applicationRepository) FindByGuildID(ctx context.Context, guildID string) ([]domain.Application, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"guildId": guildID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Application
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
