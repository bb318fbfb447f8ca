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

// CaseRepository handles persistence for cases.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	FindByID(ctx context.Context, id string) (*domain.Case, error)
	FindByCaseNumber(ctx context.Context, guildID, caseNumber string) (*domain.Case, error)
	FindByClient(ctx context.Context, clientID string) ([]domain.Case, error)
	FindByFilters(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
	FindByLawyer(ctx context.Context, guildID, userID string) ([]domain.Case, error)
	CountByGuildAndYear(ctx context.Context, guildID string, year int) (int, error)
}

// CaseFilter defines query params for case listing.
type CaseFilter struct {
	GuildID  string
	ClientID *string
	Status   *domain.CaseStatus
	LawyerID *string
	Limit    int64
}

type caseRepository struct {
	coll *mongo.Collection
}

// NewCaseRepository instantiates the repository.
func NewCaseRepository(db *mongo.Database) CaseRepository {
	return &caseRepository{coll: db.Collection("cases")}
}

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	if c.AssignedLawyerIDs == nil {
		c.AssignedLawyerIDs = []string{}
	}
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *caseRepository) Update(ctx context.Context, c *domain.Case) error {
	c.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindByID returns (nil, nil) when the case does not exist.
func (r *caseRepository) FindByID(ctx context.Context, id string) (*domain.Case, error) {
	var c domain.Case
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) FindByCaseNumber(ctx context.Context, guildID, caseNumber string) (*domain.Case, error) {
	var c domain.Case
	err := r.coll.FindOne(ctx, bson.M{"guildId": guildID, "caseNumber": caseNumber}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByClient returns every case the client has opened across guilds.
func (r *caseRepository) FindByClient(ctx context.Context, clientID string) ([]domain.Case, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"clientId": clientID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Case
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *caseRepository) FindByFilters(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	query := bson.M{"guildId": filter.GuildID}
	if filter.ClientID != nil {
		query["clientId"] = *filter.ClientID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.LawyerID != nil {
		query["$or"] = []bson.M{
			{"assignedLawyerIds": *filter.LawyerID},
			{"leadAttorneyId": *filter.LawyerID},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Case
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FindByLawyer returns the union of cases where the member is lead attorney
// or an assigned lawyer, de-duplicated by the query itself.
func (r *caseRepository) FindByLawyer(ctx context.Context, guildID, userID string) ([]domain.Case, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"guildId": guildID,
		"$or": []bson.M{
			{"assignedLawyerIds": userID},
			{"leadAttorneyId": userID},
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []domain.Case
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByGuildAndYear supports case-number sequencing.
func (r *caseRepository) CountByGuildAndYear(ctx context.Context, guildID string, year int) (int, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"guildId":   guildID,
		"createdAt": bson.M{"$gte": start, "$lt": end},
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
