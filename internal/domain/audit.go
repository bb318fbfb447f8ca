package domain

import "time"

// AuditAction enumerates consequential actions worth a trail entry.
type AuditAction string

const (
	AuditStaffHired          AuditAction = "STAFF_HIRED"
	AuditStaffFired          AuditAction = "STAFF_FIRED"
	AuditStaffPromoted       AuditAction = "STAFF_PROMOTED"
	AuditStaffDemoted        AuditAction = "STAFF_DEMOTED"
	AuditCaseOpened          AuditAction = "CASE_OPENED"
	AuditCaseAssigned        AuditAction = "CASE_ASSIGNED"
	AuditCaseClosed          AuditAction = "CASE_CLOSED"
	AuditRetainerSigned      AuditAction = "RETAINER_SIGNED"
	AuditRoleChangeCascade   AuditAction = "ROLE_CHANGE_CASCADE"
	AuditRoleConflictResolve AuditAction = "ROLE_CONFLICT_RESOLVED"
	AuditIntegrityRepair     AuditAction = "INTEGRITY_REPAIR"
	AuditValidationBypass    AuditAction = "VALIDATION_BYPASS"
	AuditConfigChanged       AuditAction = "CONFIG_CHANGED"
)

// AuditDetails holds the before/after picture of a mutation.
type AuditDetails struct {
	Before   map[string]any `bson:"before,omitempty"`
	After    map[string]any `bson:"after,omitempty"`
	Reason   string         `bson:"reason,omitempty"`
	Metadata map[string]any `bson:"metadata,omitempty"`
}

// AuditLog is one structured record of a consequential action. Write failure
// never rolls back the underlying mutation.
type AuditLog struct {
	ID        string       `bson:"_id,omitempty"`
	GuildID   string       `bson:"guildId"`
	Action    AuditAction  `bson:"action"`
	ActorID   string       `bson:"actorId"`
	TargetID  string       `bson:"targetId,omitempty"`
	Details   AuditDetails `bson:"details"`
	Timestamp time.Time    `bson:"timestamp"`
}
