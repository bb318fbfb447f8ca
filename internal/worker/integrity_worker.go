package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/service"
)

// GuildLister enumerates the guilds the bot serves.
type GuildLister interface {
	GuildIDs() []string
}

// StartIntegritySweeper runs periodic scan-and-repair passes over every guild
// until the context is cancelled. A non-positive interval disables the
// sweeper; dryRun limits each pass to reporting what it would repair.
func StartIntegritySweeper(ctx context.Context, svc *service.IntegrityService, guilds GuildLister, interval time.Duration, dryRun bool, logger *zap.Logger) {
	if svc == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepAll(ctx, svc, guilds, dryRun, logger)
			}
		}
	}()
}

func sweepAll(ctx context.Context, svc *service.IntegrityService, guilds GuildLister, dryRun bool, logger *zap.Logger) {
	for _, guildID := range guilds.GuildIDs() {
		if ctx.Err() != nil {
			return
		}
		scan, repair, err := svc.SweepGuild(ctx, guildID, dryRun)
		if err != nil {
			logger.Warn("integrity sweep failed", zap.String("guild_id", guildID), zap.Error(err))
			continue
		}
		logger.Info("integrity sweep",
			zap.String("guild_id", guildID),
			zap.Bool("dry_run", dryRun),
			zap.Int("entities", scan.EntitiesScanned),
			zap.Int("issues", len(scan.Issues)),
			zap.Int("repaired", len(repair.Repaired)),
			zap.Int("failed", len(repair.FailedRepairs)))
	}
}
