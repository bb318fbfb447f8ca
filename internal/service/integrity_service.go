package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/integrity"
	"github.com/kongdonovan/anarchy-and-associates/internal/permission"
	"github.com/kongdonovan/anarchy-and-associates/internal/persistence"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

const scanLockTTL = 10 * time.Minute

// IntegrityService fronts the integrity checker with permission gating and a
// per-guild scan lock so concurrent scans of one guild do not stampede the
// database.
type IntegrityService struct {
	checker   *integrity.Checker
	evaluator *permission.Evaluator
	redis     *persistence.Redis
	logger    *zap.Logger
}

// IntegrityDependencies bundles collaborators.
type IntegrityDependencies struct {
	Checker   *integrity.Checker
	Evaluator *permission.Evaluator
	Redis     *persistence.Redis
	Logger    *zap.Logger
}

// NewIntegrityService creates the service.
func NewIntegrityService(deps IntegrityDependencies) *IntegrityService {
	return &IntegrityService{
		checker:   deps.Checker,
		evaluator: deps.Evaluator,
		redis:     deps.Redis,
		logger:    deps.Logger,
	}
}

// Scan sweeps the guild and reports issues without mutating anything.
func (s *IntegrityService) Scan(ctx context.Context, pctx domain.PermissionContext) (*integrity.ScanReport, error) {
	if !s.allowed(ctx, pctx) {
		return nil, apperrors.NewPermissionError("Missing required permission: repair", nil)
	}
	return s.scanLocked(ctx, pctx.GuildID)
}

// Repair scans the guild and applies auto-repair actions to what it finds.
// With dryRun the repairs are reported but not executed.
func (s *IntegrityService) Repair(ctx context.Context, pctx domain.PermissionContext, dryRun bool) (*integrity.ScanReport, *integrity.RepairReport, error) {
	if !s.allowed(ctx, pctx) {
		return nil, nil, apperrors.NewPermissionError("Missing required permission: repair", nil)
	}
	scan, err := s.scanLocked(ctx, pctx.GuildID)
	if err != nil {
		return nil, nil, err
	}
	repair := s.checker.RepairIssues(ctx, pctx.GuildID, pctx.UserID, scan.Issues, dryRun)
	return scan, repair, nil
}

// SweepGuild runs an unattended scan-and-repair pass on behalf of the
// background worker or the ops API. The bot itself is the actor.
func (s *IntegrityService) SweepGuild(ctx context.Context, guildID string, dryRun bool) (*integrity.ScanReport, *integrity.RepairReport, error) {
	scan, err := s.scanLocked(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	repair := s.checker.RepairIssues(ctx, guildID, "system", scan.Issues, dryRun)
	return scan, repair, nil
}

func (s *IntegrityService) allowed(ctx context.Context, pctx domain.PermissionContext) bool {
	return s.evaluator.HasActionPermission(ctx, pctx, domain.PermissionRepair) ||
		s.evaluator.IsAdmin(ctx, pctx)
}

func (s *IntegrityService) scanLocked(ctx context.Context, guildID string) (*integrity.ScanReport, error) {
	lockKey := "integrity:scan:" + guildID
	acquired, err := s.redis.AcquireLock(ctx, lockKey, scanLockTTL)
	if err != nil {
		s.logger.Warn("scan lock unavailable, proceeding unlocked", zap.Error(err))
	} else if !acquired {
		return nil, apperrors.NewBusinessRuleError("An integrity scan is already running for this server", nil)
	} else {
		defer s.redis.ReleaseLock(ctx, lockKey)
	}

	report, err := s.checker.ScanGuild(ctx, guildID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	return report, nil
}
