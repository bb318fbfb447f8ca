package integrity

import (
	"context"
	"fmt"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// EntityType names a scanned collection.
type EntityType string

const (
	EntityStaff       EntityType = "staff"
	EntityCase        EntityType = "case"
	EntityApplication EntityType = "application"
	EntityJob         EntityType = "job"
	EntityRetainer    EntityType = "retainer"
	EntityFeedback    EntityType = "feedback"
	EntityReminder    EntityType = "reminder"
)

// Severity ranks an integrity issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Issue is one detected violation of a cross-entity invariant.
type Issue struct {
	RuleName      string
	EntityType    EntityType
	EntityID      string
	Severity      Severity
	Message       string
	CanAutoRepair bool
	Repair        func(ctx context.Context) error
}

// Rule is one named catalog entry run against entities of its type.
type Rule struct {
	Name       string
	EntityType EntityType
	Priority   int
	Validate   func(ctx context.Context, sc *scanContext, entity any) []Issue
}

// defaultRules builds the firm's integrity rule catalog. Lower priority runs
// (and repairs) first.
func defaultRules() []Rule {
	return []Rule{
		{
			Name:       "case-lawyers-must-be-active-staff",
			EntityType: EntityCase,
			Priority:   1,
			Validate:   validateCaseLawyerReferences,
		},
		{
			Name:       "case-channel-must-exist",
			EntityType: EntityCase,
			Priority:   2,
			Validate:   validateCaseChannel,
		},
		{
			Name:       "case-closed-after-created",
			EntityType: EntityCase,
			Priority:   3,
			Validate:   validateCaseTemporal,
		},
		{
			Name:       "case-lawyer-hired-before-case",
			EntityType: EntityCase,
			Priority:   4,
			Validate:   validateLawyerHiredBeforeCase,
		},
		{
			Name:       "staff-no-self-promotion",
			EntityType: EntityStaff,
			Priority:   1,
			Validate:   validateNoSelfPromotion,
		},
		{
			Name:       "application-job-must-exist",
			EntityType: EntityApplication,
			Priority:   1,
			Validate:   validateApplicationJob,
		},
		{
			Name:       "retainer-parties-must-exist",
			EntityType: EntityRetainer,
			Priority:   1,
			Validate:   validateRetainerParties,
		},
		{
			Name:       "feedback-target-must-exist",
			EntityType: EntityFeedback,
			Priority:   1,
			Validate:   validateFeedbackTarget,
		},
		{
			Name:       "reminder-channel-must-exist",
			EntityType: EntityReminder,
			Priority:   1,
			Validate:   validateReminderChannel,
		},
	}
}

func validateCaseLawyerReferences(ctx context.Context, sc *scanContext, entity any) []Issue {
	c, ok := entity.(*domain.Case)
	if !ok {
		return nil
	}
	var issues []Issue

	check := func(userID, roleLabel string) {
		staff, exists := sc.staffByUserID[userID]
		if !exists {
			caseCopy := *c
			issues = append(issues, Issue{
				RuleName:      "case-lawyers-must-be-active-staff",
				EntityType:    EntityCase,
				EntityID:      c.ID,
				Severity:      SeverityCritical,
				Message:       fmt.Sprintf("case %s references %s %s with no staff record", c.CaseNumber, roleLabel, userID),
				CanAutoRepair: true,
				Repair: func(ctx context.Context) error {
					caseCopy.UnassignLawyer(userID)
					return sc.cases.Update(ctx, &caseCopy)
				},
			})
			return
		}
		if !staff.IsActive() {
			issues = append(issues, Issue{
				RuleName:   "case-lawyers-must-be-active-staff",
				EntityType: EntityCase,
				EntityID:   c.ID,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("case %s references inactive staff %s as %s", c.CaseNumber, userID, roleLabel),
			})
		}
	}

	for _, id := range c.AssignedLawyerIDs {
		check(id, "assigned lawyer")
	}
	if c.LeadAttorneyID != "" && !c.HasLawyer(c.LeadAttorneyID) {
		caseCopy := *c
		issues = append(issues, Issue{
			RuleName:      "case-lawyers-must-be-active-staff",
			EntityType:    EntityCase,
			EntityID:      c.ID,
			Severity:      SeverityCritical,
			Message:       fmt.Sprintf("case %s lead attorney %s is not in the assigned lawyer list", c.CaseNumber, c.LeadAttorneyID),
			CanAutoRepair: true,
			Repair: func(ctx context.Context) error {
				if len(caseCopy.AssignedLawyerIDs) > 0 {
					caseCopy.LeadAttorneyID = caseCopy.AssignedLawyerIDs[0]
				} else {
					caseCopy.LeadAttorneyID = ""
				}
				return sc.cases.Update(ctx, &caseCopy)
			},
		})
	}
	return issues
}

func validateCaseChannel(ctx context.Context, sc *scanContext, entity any) []Issue {
	c, ok := entity.(*domain.Case)
	if !ok || c.ChannelID == "" || sc.channels == nil {
		return nil
	}
	if sc.channels.ChannelExists(c.ChannelID) {
		return nil
	}
	caseCopy := *c
	return []Issue{{
		RuleName:      "case-channel-must-exist",
		EntityType:    EntityCase,
		EntityID:      c.ID,
		Severity:      SeverityWarning,
		Message:       fmt.Sprintf("case %s references missing channel %s", c.CaseNumber, c.ChannelID),
		CanAutoRepair: true,
		Repair: func(ctx context.Context) error {
			caseCopy.ChannelID = ""
			return sc.cases.Update(ctx, &caseCopy)
		},
	}}
}

func validateCaseTemporal(ctx context.Context, sc *scanContext, entity any) []Issue {
	c, ok := entity.(*domain.Case)
	if !ok || c.ClosedAt == nil {
		return nil
	}
	if !c.ClosedAt.Before(c.CreatedAt) {
		return nil
	}
	caseCopy := *c
	return []Issue{{
		RuleName:      "case-closed-after-created",
		EntityType:    EntityCase,
		EntityID:      c.ID,
		Severity:      SeverityCritical,
		Message:       fmt.Sprintf("case %s closedAt precedes createdAt", c.CaseNumber),
		CanAutoRepair: true,
		Repair: func(ctx context.Context) error {
			created := caseCopy.CreatedAt
			caseCopy.ClosedAt = &created
			return sc.cases.Update(ctx, &caseCopy)
		},
	}}
}

func validateLawyerHiredBeforeCase(ctx context.Context, sc *scanContext, entity any) []Issue {
	c, ok := entity.(*domain.Case)
	if !ok {
		return nil
	}
	var issues []Issue
	for _, id := range c.AssignedLawyerIDs {
		staff, exists := sc.staffByUserID[id]
		if !exists {
			continue
		}
		if staff.HiredAt.After(c.CreatedAt) {
			issues = append(issues, Issue{
				RuleName:   "case-lawyer-hired-before-case",
				EntityType: EntityCase,
				EntityID:   c.ID,
				Severity:   SeverityInfo,
				Message:    fmt.Sprintf("case %s lawyer %s was hired after the case was opened", c.CaseNumber, id),
			})
		}
	}
	return issues
}

func validateNoSelfPromotion(ctx context.Context, sc *scanContext, entity any) []Issue {
	staff, ok := entity.(*domain.Staff)
	if !ok {
		return nil
	}
	for _, record := range staff.PromotionHistory {
		if record.PromotedBy == staff.UserID && record.ActionType == domain.ActionPromotion {
			return []Issue{{
				RuleName:   "staff-no-self-promotion",
				EntityType: EntityStaff,
				EntityID:   staff.ID,
				Severity:   SeverityCritical,
				Message:    fmt.Sprintf("staff %s has a self-promotion record to %s", staff.UserID, record.ToRole),
			}}
		}
	}
	return nil
}

func validateApplicationJob(ctx context.Context, sc *scanContext, entity any) []Issue {
	app, ok := entity.(*domain.Application)
	if !ok {
		return nil
	}
	if _, exists := sc.jobsByID[app.JobID]; exists {
		return nil
	}
	return []Issue{{
		RuleName:   "application-job-must-exist",
		EntityType: EntityApplication,
		EntityID:   app.ID,
		Severity:   SeverityWarning,
		Message:    fmt.Sprintf("application %s references missing job %s", app.ID, app.JobID),
	}}
}

func validateRetainerParties(ctx context.Context, sc *scanContext, entity any) []Issue {
	retainer, ok := entity.(*domain.Retainer)
	if !ok {
		return nil
	}
	var issues []Issue
	if _, exists := sc.staffByUserID[retainer.LawyerID]; !exists {
		issues = append(issues, Issue{
			RuleName:   "retainer-parties-must-exist",
			EntityType: EntityRetainer,
			EntityID:   retainer.ID,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("retainer %s references lawyer %s with no staff record", retainer.ID, retainer.LawyerID),
		})
	}
	return issues
}

func validateFeedbackTarget(ctx context.Context, sc *scanContext, entity any) []Issue {
	fb, ok := entity.(*domain.Feedback)
	if !ok || fb.TargetStaffID == "" {
		return nil
	}
	if _, exists := sc.staffByUserID[fb.TargetStaffID]; exists {
		return nil
	}
	return []Issue{{
		RuleName:   "feedback-target-must-exist",
		EntityType: EntityFeedback,
		EntityID:   fb.ID,
		Severity:   SeverityInfo,
		Message:    fmt.Sprintf("feedback %s targets %s with no staff record", fb.ID, fb.TargetStaffID),
	}}
}

func validateReminderChannel(ctx context.Context, sc *scanContext, entity any) []Issue {
	reminder, ok := entity.(*domain.Reminder)
	if !ok || reminder.ChannelID == "" || sc.channels == nil {
		return nil
	}
	if reminder.DeliveredAt != nil || sc.channels.ChannelExists(reminder.ChannelID) {
		return nil
	}
	return []Issue{{
		RuleName:   "reminder-channel-must-exist",
		EntityType: EntityReminder,
		EntityID:   reminder.ID,
		Severity:   SeverityWarning,
		Message:    fmt.Sprintf("reminder %s targets missing channel %s", reminder.ID, reminder.ChannelID),
	}}
}
