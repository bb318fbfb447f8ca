package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/cascade"
	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/events"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
	"github.com/kongdonovan/anarchy-and-associates/internal/validation"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// StaffService orchestrates hiring, firing, promotion and demotion.
type StaffService struct {
	staff      repository.StaffRepository
	audit      repository.AuditRepository
	validator  *validation.Validator
	cascade    *cascade.Handler
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// StaffDependencies bundles collaborators.
type StaffDependencies struct {
	StaffRepo  repository.StaffRepository
	AuditRepo  repository.AuditRepository
	Validator  *validation.Validator
	Cascade    *cascade.Handler
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewStaffService creates the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	return &StaffService{
		staff:      deps.StaffRepo,
		audit:      deps.AuditRepo,
		validator:  deps.Validator,
		cascade:    deps.Cascade,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// HireRequest carries one hire command.
type HireRequest struct {
	UserID         string
	RobloxUsername string
	Role           domain.StaffRole
	Reason         string
	Bypass         bool
}

// Hire validates and creates a new staff record. A failed role-limit check
// may be bypassed by the guild owner; the bypass itself is audit-logged.
func (s *StaffService) Hire(ctx context.Context, pctx domain.PermissionContext, req HireRequest) (*domain.Staff, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionSeniorStaff)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}

	existing, err := s.staff.FindByUserID(ctx, pctx.GuildID, req.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	if existing.IsActive() {
		return nil, apperrors.NewBusinessRuleError("User is already an active staff member", map[string]any{"user_id": req.UserID})
	}

	limit := s.validator.ValidateRoleLimit(ctx, pctx, req.Role)
	if !limit.Valid {
		if !(req.Bypass && limit.BypassAvailable) {
			return nil, apperrors.NewBusinessRuleError(strings.Join(limit.Errors, "; "), map[string]any{
				"role":    string(req.Role),
				"current": limit.CurrentCount,
				"max":     limit.MaxCount,
			})
		}
		s.recordBypass(ctx, pctx, req.UserID, limit.ValidationResult)
	}

	now := time.Now()
	staff := &domain.Staff{
		GuildID:        pctx.GuildID,
		UserID:         req.UserID,
		RobloxUsername: req.RobloxUsername,
		Role:           req.Role,
		Status:         domain.StaffStatusActive,
		HiredAt:        now,
		HiredBy:        pctx.UserID,
		PromotionHistory: []domain.PromotionRecord{{
			ToRole:     req.Role,
			PromotedBy: pctx.UserID,
			PromotedAt: now,
			ActionType: domain.ActionHire,
			Reason:     req.Reason,
		}},
	}
	if existing != nil {
		// rehire reuses the document so history survives
		staff.ID = existing.ID
		staff.PromotionHistory = append(existing.PromotionHistory, staff.PromotionHistory...)
		if err := s.staff.Update(ctx, staff); err != nil {
			return nil, apperrors.NewDatabaseError(err, true)
		}
	} else if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	s.recordAudit(ctx, pctx, domain.AuditStaffHired, req.UserID, domain.AuditDetails{
		After:  map[string]any{"role": string(req.Role)},
		Reason: req.Reason,
	})
	s.publish(ctx, pctx, events.EventStaffHired, events.StaffHiredPayload{
		UserID: req.UserID,
		Role:   req.Role,
	})
	return staff, nil
}

// Fire terminates a staff member and runs the role-change cascade.
func (s *StaffService) Fire(ctx context.Context, pctx domain.PermissionContext, userID, reason string) (*domain.Staff, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionSeniorStaff)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}

	staff, err := s.staff.FindByUserID(ctx, pctx.GuildID, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	if !staff.IsActive() {
		return nil, apperrors.NewNotFound("active staff member", map[string]any{"user_id": userID})
	}
	if domain.RoleLevel(staff.Role) >= domain.RoleLevel(domain.RoleManagingPartner) && !pctx.IsGuildOwner {
		return nil, apperrors.NewBusinessRuleError("Only the guild owner can fire the Managing Partner", nil)
	}

	oldRole := staff.Role
	staff.Status = domain.StaffStatusTerminated
	staff.PromotionHistory = append(staff.PromotionHistory, domain.PromotionRecord{
		FromRole:   oldRole,
		PromotedBy: pctx.UserID,
		PromotedAt: time.Now(),
		ActionType: domain.ActionFire,
		Reason:     reason,
	})
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	s.cascade.HandleRoleChange(ctx, cascade.RoleChangeEvent{
		GuildID:    pctx.GuildID,
		UserID:     userID,
		OldRole:    oldRole,
		ChangeType: domain.ActionFire,
	})
	s.recordAudit(ctx, pctx, domain.AuditStaffFired, userID, domain.AuditDetails{
		Before: map[string]any{"role": string(oldRole)},
		Reason: reason,
	})
	s.publish(ctx, pctx, events.EventStaffFired, events.StaffRoleChangedPayload{
		UserID:     userID,
		OldRole:    oldRole,
		ChangeType: domain.ActionFire,
	})
	return staff, nil
}

// ChangeRole promotes or demotes a staff member and runs the cascade.
func (s *StaffService) ChangeRole(ctx context.Context, pctx domain.PermissionContext, userID string, newRole domain.StaffRole, reason string, bypass bool) (*domain.Staff, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionSeniorStaff)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}
	if pctx.UserID == userID {
		return nil, apperrors.NewBusinessRuleError("Staff members cannot change their own role", nil)
	}

	staff, err := s.staff.FindByUserID(ctx, pctx.GuildID, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	if !staff.IsActive() {
		return nil, apperrors.NewNotFound("active staff member", map[string]any{"user_id": userID})
	}

	oldRole := staff.Role
	if oldRole == newRole {
		return staff, nil
	}

	actionType := domain.ActionPromotion
	if domain.RoleLevel(newRole) < domain.RoleLevel(oldRole) {
		actionType = domain.ActionDemotion
	}

	if actionType == domain.ActionPromotion {
		limit := s.validator.ValidateRoleLimit(ctx, pctx, newRole)
		if !limit.Valid {
			if !(bypass && limit.BypassAvailable) {
				return nil, apperrors.NewBusinessRuleError(strings.Join(limit.Errors, "; "), nil)
			}
			s.recordBypass(ctx, pctx, userID, limit.ValidationResult)
		}
	}

	staff.Role = newRole
	staff.PromotionHistory = append(staff.PromotionHistory, domain.PromotionRecord{
		FromRole:   oldRole,
		ToRole:     newRole,
		PromotedBy: pctx.UserID,
		PromotedAt: time.Now(),
		ActionType: actionType,
		Reason:     reason,
	})
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	s.cascade.HandleRoleChange(ctx, cascade.RoleChangeEvent{
		GuildID:    pctx.GuildID,
		UserID:     userID,
		OldRole:    oldRole,
		NewRole:    newRole,
		ChangeType: actionType,
	})

	auditAction := domain.AuditStaffPromoted
	if actionType == domain.ActionDemotion {
		auditAction = domain.AuditStaffDemoted
	}
	s.recordAudit(ctx, pctx, auditAction, userID, domain.AuditDetails{
		Before: map[string]any{"role": string(oldRole)},
		After:  map[string]any{"role": string(newRole)},
		Reason: reason,
	})
	s.publish(ctx, pctx, events.EventStaffRoleChanged, events.StaffRoleChangedPayload{
		UserID:     userID,
		OldRole:    oldRole,
		NewRole:    newRole,
		ChangeType: actionType,
	})
	return staff, nil
}

// List returns the guild's staff roster.
func (s *StaffService) List(ctx context.Context, guildID string, filter repository.StaffFilter) ([]domain.Staff, error) {
	staff, err := s.staff.FindByGuildID(ctx, guildID, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	return staff, nil
}

// Info returns one staff record, nil when the user is not staff.
func (s *StaffService) Info(ctx context.Context, guildID, userID string) (*domain.Staff, error) {
	staff, err := s.staff.FindByUserID(ctx, guildID, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	return staff, nil
}

func (s *StaffService) recordBypass(ctx context.Context, pctx domain.PermissionContext, targetID string, result domain.ValidationResult) {
	entry := &domain.AuditLog{
		GuildID:  pctx.GuildID,
		Action:   domain.AuditValidationBypass,
		ActorID:  pctx.UserID,
		TargetID: targetID,
		Details: domain.AuditDetails{
			Reason: strings.Join(result.Errors, "; "),
			Metadata: map[string]any{
				"bypassType": string(result.BypassType),
			},
		},
	}
	if err := s.audit.Add(ctx, entry); err != nil {
		s.logger.Warn("bypass audit write failed", zap.Error(err))
	}
}

func (s *StaffService) recordAudit(ctx context.Context, pctx domain.PermissionContext, action domain.AuditAction, targetID string, details domain.AuditDetails) {
	entry := &domain.AuditLog{
		GuildID:  pctx.GuildID,
		Action:   action,
		ActorID:  pctx.UserID,
		TargetID: targetID,
		Details:  details,
	}
	if err := s.audit.Add(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *StaffService) publish(ctx context.Context, pctx domain.PermissionContext, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		GuildID:   pctx.GuildID,
		ActorID:   pctx.UserID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
