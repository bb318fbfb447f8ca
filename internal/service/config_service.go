package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
	"github.com/kongdonovan/anarchy-and-associates/internal/validation"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// ConfigService manages per-guild configuration changes.
type ConfigService struct {
	guildCfg  repository.GuildConfigRepository
	audit     repository.AuditRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// ConfigDependencies bundles collaborators.
type ConfigDependencies struct {
	GuildCfgRepo repository.GuildConfigRepository
	AuditRepo    repository.AuditRepository
	Validator    *validation.Validator
	Logger       *zap.Logger
}

// NewConfigService creates the service.
func NewConfigService(deps ConfigDependencies) *ConfigService {
	return &ConfigService{
		guildCfg:  deps.GuildCfgRepo,
		audit:     deps.AuditRepo,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

// View returns the guild's configuration.
func (s *ConfigService) View(ctx context.Context, pctx domain.PermissionContext) (*domain.GuildConfig, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionConfig)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}
	cfg, err := s.guildCfg.Ensure(ctx, pctx.GuildID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	return cfg, nil
}

// SetPermissionRole grants a Discord role a named permission action, replacing
// the current grant list for that action.
func (s *ConfigService) SetPermissionRole(ctx context.Context, pctx domain.PermissionContext, rawAction, roleID string) error {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionConfig)
	if !perm.Valid {
		return apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}
	action, ok := domain.ParsePermissionAction(rawAction)
	if !ok {
		return apperrors.NewValidationError("Unknown permission action: "+rawAction, map[string]any{"action": rawAction})
	}

	cfg, err := s.guildCfg.Ensure(ctx, pctx.GuildID)
	if err != nil {
		return apperrors.NewDatabaseError(err, true)
	}
	before := cfg.RolesForAction(action)

	if err := s.guildCfg.SetPermissionRoles(ctx, pctx.GuildID, action, []string{roleID}); err != nil {
		return apperrors.NewDatabaseError(err, true)
	}

	s.recordAudit(ctx, pctx, domain.AuditConfigChanged, domain.AuditDetails{
		Before: map[string]any{"action": string(action), "roles": before},
		After:  map[string]any{"action": string(action), "roles": []string{roleID}},
	})
	return nil
}

// ClearPermissionRoles removes every grant for a permission action.
func (s *ConfigService) ClearPermissionRoles(ctx context.Context, pctx domain.PermissionContext, rawAction string) error {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionConfig)
	if !perm.Valid {
		return apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}
	action, ok := domain.ParsePermissionAction(rawAction)
	if !ok {
		return apperrors.NewValidationError("Unknown permission action: "+rawAction, map[string]any{"action": rawAction})
	}

	if err := s.guildCfg.SetPermissionRoles(ctx, pctx.GuildID, action, []string{}); err != nil {
		return apperrors.NewDatabaseError(err, true)
	}
	s.recordAudit(ctx, pctx, domain.AuditConfigChanged, domain.AuditDetails{
		After: map[string]any{"action": string(action), "roles": []string{}},
	})
	return nil
}

// ChannelSetting names a configurable channel slot.
type ChannelSetting string

const (
	ChannelFeedback    ChannelSetting = "feedback"
	ChannelRetainer    ChannelSetting = "retainer"
	ChannelModlog      ChannelSetting = "modlog"
	ChannelCaseReview  ChannelSetting = "case-review-category"
	ChannelCaseArchive ChannelSetting = "case-archive-category"
)

// SetChannel points a configuration slot at a Discord channel or category.
func (s *ConfigService) SetChannel(ctx context.Context, pctx domain.PermissionContext, setting ChannelSetting, channelID string) error {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionConfig)
	if !perm.Valid {
		return apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}

	cfg, err := s.guildCfg.Ensure(ctx, pctx.GuildID)
	if err != nil {
		return apperrors.NewDatabaseError(err, true)
	}

	switch setting {
	case ChannelFeedback:
		cfg.FeedbackChannelID = channelID
	case ChannelRetainer:
		cfg.RetainerChannelID = channelID
	case ChannelModlog:
		cfg.ModlogChannelID = channelID
	case ChannelCaseReview:
		cfg.CaseReviewCategoryID = channelID
	case ChannelCaseArchive:
		cfg.CaseArchiveCategoryID = channelID
	default:
		return apperrors.NewValidationError("Unknown channel setting: "+string(setting), nil)
	}

	if err := s.guildCfg.Update(ctx, cfg); err != nil {
		return apperrors.NewDatabaseError(err, true)
	}
	s.recordAudit(ctx, pctx, domain.AuditConfigChanged, domain.AuditDetails{
		After: map[string]any{"setting": string(setting), "channel_id": channelID},
	})
	return nil
}

// SetClientRole records the Discord role handed to clients when their first
// case opens.
func (s *ConfigService) SetClientRole(ctx context.Context, pctx domain.PermissionContext, roleID string) error {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionConfig)
	if !perm.Valid {
		return apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}
	cfg, err := s.guildCfg.Ensure(ctx, pctx.GuildID)
	if err != nil {
		return apperrors.NewDatabaseError(err, true)
	}
	cfg.ClientRoleID = roleID
	if err := s.guildCfg.Update(ctx, cfg); err != nil {
		return apperrors.NewDatabaseError(err, true)
	}
	s.recordAudit(ctx, pctx, domain.AuditConfigChanged, domain.AuditDetails{
		After: map[string]any{"setting": "client-role", "role_id": roleID},
	})
	return nil
}

func (s *ConfigService) recordAudit(ctx context.Context, pctx domain.PermissionContext, action domain.AuditAction, details domain.AuditDetails) {
	entry := &domain.AuditLog{
		GuildID: pctx.GuildID,
		Action:  action,
		ActorID: pctx.UserID,
		Details: details,
	}
	if err := s.audit.Add(ctx, entry); err != nil {
		s.logger.Warn("config audit write failed", zap.Error(err))
	}
}
