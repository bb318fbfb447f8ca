package domain

import "time"

// StaffRole enumerates firm positions in seniority order.
type StaffRole string

const (
	RoleParalegal       StaffRole = "PARALEGAL"
	RoleJuniorAssociate StaffRole = "JUNIOR_ASSOCIATE"
	RoleSeniorAssociate StaffRole = "SENIOR_ASSOCIATE"
	RoleJuniorPartner   StaffRole = "JUNIOR_PARTNER"
	RoleSeniorPartner   StaffRole = "SENIOR_PARTNER"
	RoleManagingPartner StaffRole = "MANAGING_PARTNER"
)

// RoleInfo describes the static properties of a firm position.
type RoleInfo struct {
	Role           StaffRole
	DisplayName    string
	Level          int
	HireLimit      int
	LawyerEligible bool
	LeadEligible   bool
}

// roleTable orders seniority and fixes per-guild hiring limits. Built once,
// never mutated.
var roleTable = map[StaffRole]RoleInfo{
	RoleParalegal:       {Role: RoleParalegal, DisplayName: "Paralegal", Level: 1, HireLimit: 10},
	RoleJuniorAssociate: {Role: RoleJuniorAssociate, DisplayName: "Junior Associate", Level: 2, HireLimit: 10, LawyerEligible: true},
	RoleSeniorAssociate: {Role: RoleSeniorAssociate, DisplayName: "Senior Associate", Level: 3, HireLimit: 10, LawyerEligible: true},
	RoleJuniorPartner:   {Role: RoleJuniorPartner, DisplayName: "Junior Partner", Level: 4, HireLimit: 5, LawyerEligible: true, LeadEligible: true},
	RoleSeniorPartner:   {Role: RoleSeniorPartner, DisplayName: "Senior Partner", Level: 5, HireLimit: 3, LawyerEligible: true, LeadEligible: true},
	RoleManagingPartner: {Role: RoleManagingPartner, DisplayName: "Managing Partner", Level: 6, HireLimit: 1, LawyerEligible: true, LeadEligible: true},
}

// rolesByLevel lists roles ascending by seniority.
var rolesByLevel = []StaffRole{
	RoleParalegal,
	RoleJuniorAssociate,
	RoleSeniorAssociate,
	RoleJuniorPartner,
	RoleSeniorPartner,
	RoleManagingPartner,
}

// AllRoles returns the firm positions ascending by seniority.
func AllRoles() []StaffRole {
	out := make([]StaffRole, len(rolesByLevel))
	copy(out, rolesByLevel)
	return out
}

// InfoForRole returns the static role descriptor.
func InfoForRole(role StaffRole) (RoleInfo, bool) {
	info, ok := roleTable[role]
	return info, ok
}

// RoleLevel returns the seniority level, 0 for unknown roles.
func RoleLevel(role StaffRole) int {
	return roleTable[role].Level
}

// RoleHireLimit returns the per-guild active-staff limit for the role.
func RoleHireLimit(role StaffRole) int {
	return roleTable[role].HireLimit
}

// RoleDisplayName renders the human-facing role name.
func RoleDisplayName(role StaffRole) string {
	if info, ok := roleTable[role]; ok {
		return info.DisplayName
	}
	return string(role)
}

// IsLawyerRole reports whether the role may be assigned to cases.
func IsLawyerRole(role StaffRole) bool {
	return roleTable[role].LawyerEligible
}

// IsLeadAttorneyRole reports whether the role may hold lead attorney.
func IsLeadAttorneyRole(role StaffRole) bool {
	return roleTable[role].LeadEligible
}

// ParseStaffRole maps an external string to a known role.
func ParseStaffRole(raw string) (StaffRole, bool) {
	role := StaffRole(raw)
	_, ok := roleTable[role]
	return role, ok
}

// NextRole returns the next role up the ladder, false at the top.
func NextRole(role StaffRole) (StaffRole, bool) {
	for i, r := range rolesByLevel {
		if r == role && i+1 < len(rolesByLevel) {
			return rolesByLevel[i+1], true
		}
	}
	return "", false
}

// PreviousRole returns the next role down the ladder, false at the bottom.
func PreviousRole(role StaffRole) (StaffRole, bool) {
	for i, r := range rolesByLevel {
		if r == role && i > 0 {
			return rolesByLevel[i-1], true
		}
	}
	return "", false
}

// StaffStatus enumerates employment lifecycle states.
type StaffStatus string

const (
	StaffStatusActive     StaffStatus = "ACTIVE"
	StaffStatusInactive   StaffStatus = "INACTIVE"
	StaffStatusTerminated StaffStatus = "TERMINATED"
)

// PromotionActionType records the kind of role transition.
type PromotionActionType string

const (
	ActionHire      PromotionActionType = "HIRE"
	ActionFire      PromotionActionType = "FIRE"
	ActionPromotion PromotionActionType = "PROMOTION"
	ActionDemotion  PromotionActionType = "DEMOTION"
)

// PromotionRecord captures one role transition in a staff member's history.
type PromotionRecord struct {
	FromRole   StaffRole           `bson:"fromRole"`
	ToRole     StaffRole           `bson:"toRole"`
	PromotedBy string              `bson:"promotedBy"`
	PromotedAt time.Time           `bson:"promotedAt"`
	ActionType PromotionActionType `bson:"actionType"`
	Reason     string              `bson:"reason,omitempty"`
}

// Staff models one employed member of the firm within a guild.
type Staff struct {
	ID               string            `bson:"_id,omitempty"`
	GuildID          string            `bson:"guildId"`
	UserID           string            `bson:"userId"`
	RobloxUsername   string            `bson:"robloxUsername,omitempty"`
	Role             StaffRole         `bson:"role"`
	Status           StaffStatus       `bson:"status"`
	HiredAt          time.Time         `bson:"hiredAt"`
	HiredBy          string            `bson:"hiredBy"`
	PromotionHistory []PromotionRecord `bson:"promotionHistory"`
	CreatedAt        time.Time         `bson:"createdAt"`
	UpdatedAt        time.Time         `bson:"updatedAt"`
}

// IsActive reports whether the member currently holds their position.
func (s *Staff) IsActive() bool {
	return s != nil && s.Status == StaffStatusActive
}
