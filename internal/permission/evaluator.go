package permission

import (
	"context"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// GuildConfigProvider supplies the guild's permission configuration.
type GuildConfigProvider interface {
	Ensure(ctx context.Context, guildID string) (*domain.GuildConfig, error)
}

// Summary reports the invoker's full permission picture.
type Summary struct {
	IsAdmin      bool
	IsGuildOwner bool
	Permissions  map[domain.PermissionAction]bool
}

// Evaluator decides whether a named permission is granted for a context.
// Any configuration lookup failure is treated as "not granted" (fail-closed).
type Evaluator struct {
	configs GuildConfigProvider
	logger  *zap.Logger
}

// NewEvaluator creates an evaluator over the guild configuration source.
func NewEvaluator(configs GuildConfigProvider, logger *zap.Logger) *Evaluator {
	return &Evaluator{configs: configs, logger: logger}
}

// HasActionPermission reports whether the context grants the action. The
// guild owner always passes. The admin-user/admin-role lists grant only the
// admin action, never the others.
func (e *Evaluator) HasActionPermission(ctx context.Context, pctx domain.PermissionContext, action domain.PermissionAction) bool {
	if pctx.IsGuildOwner {
		return true
	}

	cfg, err := e.configs.Ensure(ctx, pctx.GuildID)
	if err != nil {
		e.logger.Warn("permission lookup failed, denying",
			zap.String("guild_id", pctx.GuildID),
			zap.String("user_id", pctx.UserID),
			zap.String("action", string(action)),
			zap.Error(err))
		return false
	}

	if action == domain.PermissionAdmin && e.isConfiguredAdmin(cfg, pctx) {
		return true
	}
	return pctx.HasAnyRole(cfg.RolesForAction(action))
}

// IsAdmin reports owner, admin-user, or admin-role membership.
func (e *Evaluator) IsAdmin(ctx context.Context, pctx domain.PermissionContext) bool {
	if pctx.IsGuildOwner {
		return true
	}
	cfg, err := e.configs.Ensure(ctx, pctx.GuildID)
	if err != nil {
		e.logger.Warn("admin lookup failed, denying",
			zap.String("guild_id", pctx.GuildID),
			zap.String("user_id", pctx.UserID),
			zap.Error(err))
		return false
	}
	if e.isConfiguredAdmin(cfg, pctx) {
		return true
	}
	return pctx.HasAnyRole(cfg.RolesForAction(domain.PermissionAdmin))
}

func (e *Evaluator) isConfiguredAdmin(cfg *domain.GuildConfig, pctx domain.PermissionContext) bool {
	for _, id := range cfg.AdminUsers {
		if id == pctx.UserID {
			return true
		}
	}
	return pctx.HasAnyRole(cfg.AdminRoles)
}

// HasSeniorStaffPermission checks the senior-staff action.
func (e *Evaluator) HasSeniorStaffPermission(ctx context.Context, pctx domain.PermissionContext) bool {
	return e.HasActionPermission(ctx, pctx, domain.PermissionSeniorStaff)
}

// HasLawyerPermission checks the lawyer action.
func (e *Evaluator) HasLawyerPermission(ctx context.Context, pctx domain.PermissionContext) bool {
	return e.HasActionPermission(ctx, pctx, domain.PermissionLawyer)
}

// HasLeadAttorneyPermission checks the lead-attorney action.
func (e *Evaluator) HasLeadAttorneyPermission(ctx context.Context, pctx domain.PermissionContext) bool {
	return e.HasActionPermission(ctx, pctx, domain.PermissionLeadAttorney)
}

// HasHRPermission is a legacy alias for the senior-staff action.
func (e *Evaluator) HasHRPermission(ctx context.Context, pctx domain.PermissionContext) bool {
	return e.HasSeniorStaffPermission(ctx, pctx)
}

// HasRetainerPermission is a legacy alias for the lawyer action.
func (e *Evaluator) HasRetainerPermission(ctx context.Context, pctx domain.PermissionContext) bool {
	return e.HasLawyerPermission(ctx, pctx)
}

// PermissionSummary evaluates every known action for the context. Admin
// implies every permission regardless of explicit role grants.
func (e *Evaluator) PermissionSummary(ctx context.Context, pctx domain.PermissionContext) Summary {
	summary := Summary{
		IsGuildOwner: pctx.IsGuildOwner,
		IsAdmin:      e.IsAdmin(ctx, pctx),
		Permissions:  make(map[domain.PermissionAction]bool),
	}
	for _, action := range domain.AllPermissionActions() {
		if summary.IsAdmin {
			summary.Permissions[action] = true
			continue
		}
		summary.Permissions[action] = e.HasActionPermission(ctx, pctx, action)
	}
	return summary
}
