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

// JobRepository handles persistence for position postings.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	Update(ctx context.Context, job *domain.Job) error
	FindByID(ctx context.Context, id string) (*domain.Job, error)
	FindByGuildID(ctx context.Context, guildID string) ([]domain.Job, error)
}

type jobRepository struct {
	coll *mongo.Collection
}

// NewJobRepository instantiates the repository.
func NewJobRepository(db *mongo.Database) JobRepository {
	return &jobRepository{coll: db.Collection("jobs")}
}

func (r *jobRepository) Create(ctx context.Context, job *domain.Job) error {
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.ID == "" {
		job.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.coll.InsertOne(ctx, job)
	return err
}

func (r *jobRepository) Update(ctx context.Context, job *domain.Job) error {
	job.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindByID returns (nil, nil) when the job does not exist.
func (r *jobRepository) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) FindByGuildID(ctx context.Context, guildID string) ([]domain.Job, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"guildId": guildID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Job
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
