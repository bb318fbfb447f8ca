package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	Update(ctx context.Context, staff *domain.Staff) error
	FindByUserID(ctx context.Context, guildID, userID string) (*domain.Staff, error)
	FindByGuildID(ctx context.Context, guildID string, filter StaffFilter) ([]domain.Staff, error)
	CountActiveByRole(ctx context.Context, guildID string, role domain.StaffRole) (int, error)
	FindActiveByRoles(ctx context.Context, guildID string, roles []domain.StaffRole) ([]domain.Staff, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Role   *domain.StaffRole
	Status *domain.StaffStatus
	Limit  int64
}

type staffRepository struct {
	coll *mongo.Collection
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(db *mongo.Database) StaffRepository {
	return &staffRepository{coll: db.Collection("staff")}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	now := time.Now()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	if staff.ID == "" {
		staff.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.coll.InsertOne(ctx, staff)
	return err
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.Staff) error {
	staff.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": staff.ID}, staff)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindByUserID returns (nil, nil) when no record exists for the member.
func (r *staffRepository) FindByUserID(ctx context.Context, guildID, userID string) (*domain.Staff, error) {
	var staff domain.Staff
	err := r.coll.FindOne(ctx, bson.M{"guildId": guildID, "userId": userID}).Decode(&staff)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) FindByGuildID(ctx context.Context, guildID string, filter StaffFilter) ([]domain.Staff, error) {
	query := bson.M{"guildId": guildID}
	if filter.Role != nil {
		query["role"] = *filter.Role
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "hiredAt", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Staff
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *staffRepository) CountActiveByRole(ctx context.Context, guildID string, role domain.StaffRole) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"guildId": guildID,
		"role":    role,
		"status":  domain.StaffStatusActive,
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *staffRepository) FindActiveByRoles(ctx context.Context, guildID string, roles []domain.StaffRole) ([]domain.Staff, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"guildId": guildID,
		"role":    bson.M{"$in": roles},
		"status":  domain.StaffStatusActive,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Staff
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
