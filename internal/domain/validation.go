package domain

// BypassType names who may override a failed validation.
type BypassType string

// BypassGuildOwner is the only supported bypass. Always audit-logged.
const BypassGuildOwner BypassType = "guild-owner"

// ValidationResult is the common outcome shape for business-rule checks.
// Produced fresh per call, never persisted.
type ValidationResult struct {
	Valid           bool
	Errors          []string
	Warnings        []string
	BypassAvailable bool
	BypassType      BypassType
}

// RoleLimitValidationResult reports a hiring-limit check.
type RoleLimitValidationResult struct {
	ValidationResult
	Role         StaffRole
	CurrentCount int
	MaxCount     int
}

// CaseLimitValidationResult reports a per-client active-case-limit check.
type CaseLimitValidationResult struct {
	ValidationResult
	ClientID    string
	ActiveCases int
	MaxCases    int
}

// StaffValidationResult reports an active-staff/capability check.
type StaffValidationResult struct {
	ValidationResult
	IsActiveStaff          bool
	Role                   StaffRole
	HasRequiredPermissions bool
}

// PermissionValidationResult reports a single permission check.
type PermissionValidationResult struct {
	ValidationResult
	Permission PermissionAction
}

// MergeResults aggregates validation outcomes: Valid is the conjunction,
// Errors and Warnings concatenate in input order, BypassAvailable is the
// disjunction, and the guild-owner bypass type surfaces when any input
// carried it.
func MergeResults(results ...ValidationResult) ValidationResult {
	merged := ValidationResult{Valid: true}
	for _, r := range results {
		merged.Valid = merged.Valid && r.Valid
		merged.Errors = append(merged.Errors, r.Errors...)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
		if r.BypassAvailable {
			merged.BypassAvailable = true
			if r.BypassType != "" {
				merged.BypassType = r.BypassType
			}
		}
	}
	return merged
}
