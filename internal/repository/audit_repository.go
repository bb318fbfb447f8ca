package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// AuditRepository handles persistence for the audit trail.
type AuditRepository interface {
	Add(ctx context.Context, entry *domain.AuditLog) error
	ListRecent(ctx context.Context, guildID string, limit int64) ([]domain.AuditLog, error)
}

type auditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository instantiates the repository.
func NewAuditRepository(db *mongo.Database) AuditRepository {
	return &auditRepository{coll: db.Collection("audit_logs")}
}

func (r *auditRepository) Add(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := r.coll.InsertOne(ctx, entry)
	return err
}

func (r *auditRepository) ListRecent(ctx context.Context, guildID string, limit int64) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"guildId": guildID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.AuditLog
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
