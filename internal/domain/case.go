package domain

import (
	"fmt"
	"time"
)

// CaseStatus enumerates lifecycle states for cases.
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "PENDING"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusClosed     CaseStatus = "CLOSED"
)

// CasePriority enumerates client-facing urgency.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "LOW"
	CasePriorityMedium CasePriority = "MEDIUM"
	CasePriorityHigh   CasePriority = "HIGH"
	CasePriorityUrgent CasePriority = "URGENT"
)

// CaseResult records the outcome of a closed case.
type CaseResult string

const (
	CaseResultWin        CaseResult = "WIN"
	CaseResultLoss       CaseResult = "LOSS"
	CaseResultSettlement CaseResult = "SETTLEMENT"
	CaseResultDismissed  CaseResult = "DISMISSED"
	CaseResultWithdrawn  CaseResult = "WITHDRAWN"
)

// MaxActiveCasesPerClient bounds concurrent PENDING/IN_PROGRESS cases.
const MaxActiveCasesPerClient = 5

// Case is the aggregate for client legal matters.
type Case struct {
	ID                string       `bson:"_id,omitempty"`
	GuildID           string       `bson:"guildId"`
	CaseNumber        string       `bson:"caseNumber"`
	ClientID          string       `bson:"clientId"`
	ClientUsername    string       `bson:"clientUsername"`
	Title             string       `bson:"title"`
	Description       string       `bson:"description,omitempty"`
	Status            CaseStatus   `bson:"status"`
	Priority          CasePriority `bson:"priority"`
	AssignedLawyerIDs []string     `bson:"assignedLawyerIds"`
	LeadAttorneyID    string       `bson:"leadAttorneyId,omitempty"`
	ChannelID         string       `bson:"channelId,omitempty"`
	Result            CaseResult   `bson:"result,omitempty"`
	ResultNotes       string       `bson:"resultNotes,omitempty"`
	ClosedAt          *time.Time   `bson:"closedAt,omitempty"`
	ClosedBy          string       `bson:"closedBy,omitempty"`
	CreatedAt         time.Time    `bson:"createdAt"`
	UpdatedAt         time.Time    `bson:"updatedAt"`
}

// IsActive reports whether the case counts toward the client's limit.
func (c *Case) IsActive() bool {
	return c != nil && (c.Status == CaseStatusPending || c.Status == CaseStatusInProgress)
}

// HasLawyer reports whether the given user is assigned to the case.
func (c *Case) HasLawyer(userID string) bool {
	for _, id := range c.AssignedLawyerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AssignLawyer adds a lawyer to the case. The first lawyer assigned becomes
// lead attorney. Idempotent for already-assigned lawyers.
func (c *Case) AssignLawyer(userID string) {
	if !c.HasLawyer(userID) {
		c.AssignedLawyerIDs = append(c.AssignedLawyerIDs, userID)
	}
	if c.LeadAttorneyID == "" {
		c.LeadAttorneyID = userID
	}
	if c.Status == CaseStatusPending {
		c.Status = CaseStatusInProgress
	}
}

// UnassignLawyer removes a lawyer from the case. Removing the lead attorney
// promotes the first remaining lawyer, or clears the lead when none remain.
// Unassigning a lawyer not on the case is a no-op.
func (c *Case) UnassignLawyer(userID string) {
	if !c.HasLawyer(userID) {
		return
	}
	remaining := make([]string, 0, len(c.AssignedLawyerIDs))
	for _, id := range c.AssignedLawyerIDs {
		if id != userID {
			remaining = append(remaining, id)
		}
	}
	c.AssignedLawyerIDs = remaining
	if c.LeadAttorneyID == userID {
		if len(remaining) > 0 {
			c.LeadAttorneyID = remaining[0]
		} else {
			c.LeadAttorneyID = ""
		}
	}
}

// SetLeadAttorney designates a lead, assigning them first if needed.
func (c *Case) SetLeadAttorney(userID string) {
	if !c.HasLawyer(userID) {
		c.AssignedLawyerIDs = append(c.AssignedLawyerIDs, userID)
	}
	c.LeadAttorneyID = userID
}

// Close marks the case closed with the given outcome.
func (c *Case) Close(result CaseResult, notes, closedBy string, at time.Time) {
	c.Status = CaseStatusClosed
	c.Result = result
	c.ResultNotes = notes
	c.ClosedBy = closedBy
	c.ClosedAt = &at
}

// FormatCaseNumber renders the firm's case numbering scheme,
// e.g. "2026-0042-johndoe".
func FormatCaseNumber(year int, sequence int, clientUsername string) string {
	return fmt.Sprintf("%d-%04d-%s", year, sequence, clientUsername)
}
