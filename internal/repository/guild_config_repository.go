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

// GuildConfigRepository handles persistence for per-guild configuration.
type GuildConfigRepository interface {
	// Ensure returns the guild's configuration, creating the default
	// document when none exists yet.
	Ensure(ctx context.Context, guildID string) (*domain.GuildConfig, error)
	Update(ctx context.Context, cfg *domain.GuildConfig) error
	SetPermissionRoles(ctx context.Context, guildID string, action domain.PermissionAction, roleIDs []string) error
}

type guildConfigRepository struct {
	coll *mongo.Collection
}

// NewGuildConfigRepository instantiates the repository.
func NewGuildConfigRepository(db *mongo.Database) GuildConfigRepository {
	return &guildConfigRepository{coll: db.Collection("guild_configs")}
}

func (r *guildConfigRepository) Ensure(ctx context.Context, guildID string) (*domain.GuildConfig, error) {
	var cfg domain.GuildConfig
	err := r.coll.FindOne(ctx, bson.M{"guildId": guildID}).Decode(&cfg)
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	created := domain.DefaultGuildConfig(guildID)
	created.ID = primitive.NewObjectID().Hex()
	if _, err := r.coll.InsertOne(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *guildConfigRepository) Update(ctx context.Context, cfg *domain.GuildConfig) error {
	cfg.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": cfg.ID}, cfg)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *guildConfigRepository) SetPermissionRoles(ctx context.Context, guildID string, action domain.PermissionAction, roleIDs []string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"guildId": guildID},
		bson.M{"$set": bson.M{
			"permissions." + string(action): roleIDs,
			"updatedAt":                     time.Now(),
		}},
	)
	return err
}
