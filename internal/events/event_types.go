package events

import (
	"time"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventStaffHired       EventType = "staff_hired"
	EventStaffRoleChanged EventType = "staff_role_changed"
	EventStaffFired       EventType = "staff_fired"
	EventCaseOpened       EventType = "case_opened"
	EventCaseAssigned     EventType = "case_assigned"
	EventCaseClosed       EventType = "case_closed"
	EventRetainerSigned   EventType = "retainer_signed"
	EventIntegrityRepair  EventType = "integrity_repair"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	GuildID   string      `json:"guild_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StaffHiredPayload payload.
type StaffHiredPayload struct {
	UserID string           `json:"user_id"`
	Role   domain.StaffRole `json:"role"`
}

// StaffRoleChangedPayload payload.
type StaffRoleChangedPayload struct {
	UserID     string                     `json:"user_id"`
	OldRole    domain.StaffRole           `json:"old_role"`
	NewRole    domain.StaffRole           `json:"new_role"`
	ChangeType domain.PromotionActionType `json:"change_type"`
}

// CaseOpenedPayload payload.
type CaseOpenedPayload struct {
	CaseNumber string              `json:"case_number"`
	ClientID   string              `json:"client_id"`
	Priority   domain.CasePriority `json:"priority"`
}

// CaseAssignedPayload payload.
type CaseAssignedPayload struct {
	CaseNumber     string   `json:"case_number"`
	LawyerIDs      []string `json:"lawyer_ids"`
	LeadAttorneyID string   `json:"lead_attorney_id,omitempty"`
}

// CaseClosedPayload payload.
type CaseClosedPayload struct {
	CaseNumber string            `json:"case_number"`
	Result     domain.CaseResult `json:"result"`
}

// RetainerSignedPayload payload.
type RetainerSignedPayload struct {
	ClientID string `json:"client_id"`
	LawyerID string `json:"lawyer_id"`
}

// IntegrityRepairPayload payload.
type IntegrityRepairPayload struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	RuleName   string `json:"rule_name"`
	DryRun     bool   `json:"dry_run"`
}
