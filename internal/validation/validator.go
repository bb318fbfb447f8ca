package validation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/permission"
)

// StaffReader is the staff lookup surface the validator needs.
type StaffReader interface {
	FindByUserID(ctx context.Context, guildID, userID string) (*domain.Staff, error)
	CountActiveByRole(ctx context.Context, guildID string, role domain.StaffRole) (int, error)
}

// CaseReader is the case lookup surface the validator needs.
type CaseReader interface {
	FindByClient(ctx context.Context, clientID string) ([]domain.Case, error)
}

// OutcomeRecorder counts validation outcomes for the ops metrics endpoint.
type OutcomeRecorder interface {
	RecordValidation(check string, valid bool)
}

// Validator implements the firm's business-rule checks. Expected failure
// modes (limit exceeded, permission denied, entity missing) come back as
// invalid results, never as errors; repository failures are normalized into
// failed results at this boundary too.
type Validator struct {
	evaluator *permission.Evaluator
	staff     StaffReader
	cases     CaseReader
	metrics   OutcomeRecorder
	logger    *zap.Logger
}

// NewValidator creates the validator. metrics may be nil.
func NewValidator(evaluator *permission.Evaluator, staff StaffReader, cases CaseReader, metrics OutcomeRecorder, logger *zap.Logger) *Validator {
	return &Validator{
		evaluator: evaluator,
		staff:     staff,
		cases:     cases,
		metrics:   metrics,
		logger:    logger,
	}
}

func (v *Validator) record(check string, valid bool) {
	if v.metrics != nil {
		v.metrics.RecordValidation(check, valid)
	}
}

// ValidateRoleLimit checks the per-guild active-staff limit for a role. The
// guild owner may bypass a failed check.
func (v *Validator) ValidateRoleLimit(ctx context.Context, pctx domain.PermissionContext, role domain.StaffRole) domain.RoleLimitValidationResult {
	result := domain.RoleLimitValidationResult{Role: role}
	defer func() { v.record("role-limit", result.Valid) }()

	current, err := v.staff.CountActiveByRole(ctx, pctx.GuildID, role)
	if err != nil {
		v.logger.Error("role limit lookup failed",
			zap.String("guild_id", pctx.GuildID),
			zap.String("role", string(role)),
			zap.Error(err))
		result.Errors = append(result.Errors, "Failed to validate role limits")
		return result
	}

	max := domain.RoleHireLimit(role)
	result.CurrentCount = current
	result.MaxCount = max
	result.Valid = current < max
	if !result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Cannot hire %s. Maximum limit of %d reached (current: %d)",
			domain.RoleDisplayName(role), max, current))
		if pctx.IsGuildOwner {
			result.BypassAvailable = true
			result.BypassType = domain.BypassGuildOwner
		}
	}
	return result
}

// ValidateClientCaseLimit checks the per-client active-case cap. The limit
// is never bypassable, by the guild owner or anyone else. The count is
// computed fresh per call; the check and any subsequent case-creation write
// are not serialized against concurrent callers.
func (v *Validator) ValidateClientCaseLimit(ctx context.Context, clientID, guildID string) domain.CaseLimitValidationResult {
	result := domain.CaseLimitValidationResult{
		ClientID: clientID,
		MaxCases: domain.MaxActiveCasesPerClient,
	}
	defer func() { v.record("client-case-limit", result.Valid) }()

	cases, err := v.cases.FindByClient(ctx, clientID)
	if err != nil {
		v.logger.Error("case limit lookup failed",
			zap.String("client_id", clientID),
			zap.String("guild_id", guildID),
			zap.Error(err))
		result.Errors = append(result.Errors, "Failed to validate client case limits")
		return result
	}

	active := 0
	for i := range cases {
		if cases[i].GuildID == guildID && cases[i].IsActive() {
			active++
		}
	}
	result.ActiveCases = active
	result.Valid = active < result.MaxCases
	if !result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Client has reached the maximum of %d active cases", result.MaxCases))
	} else if active == result.MaxCases-1 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Client has %d active cases (limit: %d)", active, result.MaxCases))
	}
	return result
}

// ValidateStaffMember checks that the target is an active staff member and,
// when requiredPermissions is non-empty, that their role's baseline
// capability set covers each one. The capability set comes from the static
// seniority table, not the guild's configurable Discord-role mapping.
func (v *Validator) ValidateStaffMember(ctx context.Context, pctx domain.PermissionContext, userID string, requiredPermissions ...domain.PermissionAction) domain.StaffValidationResult {
	result := domain.StaffValidationResult{}
	defer func() { v.record("staff-member", result.Valid) }()

	staff, err := v.staff.FindByUserID(ctx, pctx.GuildID, userID)
	if err != nil {
		v.logger.Error("staff lookup failed",
			zap.String("guild_id", pctx.GuildID),
			zap.String("user_id", userID),
			zap.Error(err))
		result.Errors = append(result.Errors, "Failed to validate staff member")
		return result
	}

	result.IsActiveStaff = staff.IsActive()
	if !result.IsActiveStaff {
		result.Errors = append(result.Errors, "User is not an active staff member")
		if pctx.IsGuildOwner {
			result.BypassAvailable = true
			result.BypassType = domain.BypassGuildOwner
		}
		return result
	}

	result.Role = staff.Role
	result.HasRequiredPermissions = true
	var missing []string
	for _, perm := range requiredPermissions {
		if !RoleGrantsCapability(staff.Role, perm) {
			missing = append(missing, string(perm))
		}
	}
	if len(missing) > 0 {
		result.HasRequiredPermissions = false
		result.Errors = append(result.Errors, fmt.Sprintf(
			"User lacks required permissions: %s", strings.Join(missing, ", ")))
		return result
	}

	result.Valid = true
	return result
}

// ValidatePermission checks a single named permission for the invoker. The
// guild owner short-circuits to valid with bypass metadata set.
func (v *Validator) ValidatePermission(ctx context.Context, pctx domain.PermissionContext, required domain.PermissionAction) domain.PermissionValidationResult {
	result := domain.PermissionValidationResult{Permission: required}
	defer func() { v.record("permission:"+string(required), result.Valid) }()

	if pctx.IsGuildOwner {
		result.Valid = true
		result.BypassAvailable = true
		result.BypassType = domain.BypassGuildOwner
		return result
	}

	granted := false
	switch required {
	case domain.PermissionSeniorStaff:
		granted = v.evaluator.HasSeniorStaffPermission(ctx, pctx)
	case domain.PermissionLawyer:
		granted = v.evaluator.HasLawyerPermission(ctx, pctx)
	case domain.PermissionLeadAttorney:
		granted = v.evaluator.HasLeadAttorneyPermission(ctx, pctx)
	default:
		granted = v.evaluator.HasActionPermission(ctx, pctx, required)
	}

	if !granted {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Missing required permission: %s", required))
		return result
	}
	result.Valid = true
	return result
}

// RoleGrantsCapability is the static role-implies-capability floor keyed by
// seniority. Kept deliberately separate from the guild's Discord-role
// permission map.
func RoleGrantsCapability(role domain.StaffRole, action domain.PermissionAction) bool {
	level := domain.RoleLevel(role)
	switch action {
	case domain.PermissionLawyer, domain.PermissionCase:
		return domain.IsLawyerRole(role)
	case domain.PermissionLeadAttorney:
		return domain.IsLeadAttorneyRole(role)
	case domain.PermissionSeniorStaff:
		return level >= domain.RoleLevel(domain.RoleSeniorPartner)
	case domain.PermissionAdmin, domain.PermissionConfig, domain.PermissionRepair:
		return level >= domain.RoleLevel(domain.RoleManagingPartner)
	}
	return false
}
