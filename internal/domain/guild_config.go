package domain

import "time"

// PermissionAction enumerates the closed set of grantable permissions.
type PermissionAction string

const (
	PermissionAdmin        PermissionAction = "admin"
	PermissionSeniorStaff  PermissionAction = "senior-staff"
	PermissionCase         PermissionAction = "case"
	PermissionConfig       PermissionAction = "config"
	PermissionLawyer       PermissionAction = "lawyer"
	PermissionLeadAttorney PermissionAction = "lead-attorney"
	PermissionRepair       PermissionAction = "repair"
)

// AllPermissionActions lists every known action.
func AllPermissionActions() []PermissionAction {
	return []PermissionAction{
		PermissionAdmin,
		PermissionSeniorStaff,
		PermissionCase,
		PermissionConfig,
		PermissionLawyer,
		PermissionLeadAttorney,
		PermissionRepair,
	}
}

// ParsePermissionAction maps an external string to a known action. Unknown
// strings parse to false and grant nothing.
func ParsePermissionAction(raw string) (PermissionAction, bool) {
	switch PermissionAction(raw) {
	case PermissionAdmin, PermissionSeniorStaff, PermissionCase, PermissionConfig,
		PermissionLawyer, PermissionLeadAttorney, PermissionRepair:
		return PermissionAction(raw), true
	}
	return "", false
}

// GuildConfig holds per-guild bot configuration.
type GuildConfig struct {
	ID                    string                        `bson:"_id,omitempty"`
	GuildID               string                        `bson:"guildId"`
	Permissions           map[PermissionAction][]string `bson:"permissions"`
	AdminUsers            []string                      `bson:"adminUsers"`
	AdminRoles            []string                      `bson:"adminRoles"`
	FeedbackChannelID     string                        `bson:"feedbackChannelId,omitempty"`
	RetainerChannelID     string                        `bson:"retainerChannelId,omitempty"`
	CaseReviewCategoryID  string                        `bson:"caseReviewCategoryId,omitempty"`
	CaseArchiveCategoryID string                        `bson:"caseArchiveCategoryId,omitempty"`
	ModlogChannelID       string                        `bson:"modlogChannelId,omitempty"`
	ClientRoleID          string                        `bson:"clientRoleId,omitempty"`
	CreatedAt             time.Time                     `bson:"createdAt"`
	UpdatedAt             time.Time                     `bson:"updatedAt"`
}

// DefaultGuildConfig returns an empty configuration for a guild. Absent keys
// behave as empty grant lists.
func DefaultGuildConfig(guildID string) *GuildConfig {
	now := time.Now()
	return &GuildConfig{
		GuildID:     guildID,
		Permissions: map[PermissionAction][]string{},
		AdminUsers:  []string{},
		AdminRoles:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RolesForAction returns the role ids granting the action, never nil.
func (g *GuildConfig) RolesForAction(action PermissionAction) []string {
	if g == nil || g.Permissions == nil {
		return nil
	}
	return g.Permissions[action]
}

// PermissionContext carries the identity facts for one command invocation.
// Transient, never persisted.
type PermissionContext struct {
	GuildID      string
	UserID       string
	UserRoles    []string
	IsGuildOwner bool
}

// HasRole reports whether the invoker holds the Discord role.
func (p PermissionContext) HasRole(roleID string) bool {
	for _, r := range p.UserRoles {
		if r == roleID {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the invoker holds any of the Discord roles.
func (p PermissionContext) HasAnyRole(roleIDs []string) bool {
	for _, id := range roleIDs {
		if p.HasRole(id) {
			return true
		}
	}
	return false
}
