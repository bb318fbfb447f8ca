package cascade

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/notify"
)

// RoleChangeEvent describes one staff role transition.
type RoleChangeEvent struct {
	GuildID    string
	UserID     string
	OldRole    domain.StaffRole
	NewRole    domain.StaffRole
	ChangeType domain.PromotionActionType
}

// StepOutcome labels one fan-out step's result.
type StepOutcome string

const (
	OutcomeOK    StepOutcome = "ok"
	OutcomeError StepOutcome = "error"
)

// StepResult records one independently-caught cascade step.
type StepResult struct {
	Target  string
	Outcome StepOutcome
	Err     error
}

// Report summarizes one cascade run for inspection and tests.
type Report struct {
	Event         RoleChangeEvent
	CasesAffected int
	Escalations   int
	Steps         []StepResult
}

// CaseStore is the case surface the cascade needs.
type CaseStore interface {
	FindByLawyer(ctx context.Context, guildID, userID string) ([]domain.Case, error)
	Update(ctx context.Context, c *domain.Case) error
}

// StaffStore is the staff surface the cascade needs.
type StaffStore interface {
	FindActiveByRoles(ctx context.Context, guildID string, roles []domain.StaffRole) ([]domain.Staff, error)
}

// AuditSink records the cascade's single summary entry.
type AuditSink interface {
	Add(ctx context.Context, entry *domain.AuditLog) error
}

// ChannelPermissionSyncer updates Discord channel ACLs after a role change.
type ChannelPermissionSyncer interface {
	SyncMemberPermissions(ctx context.Context, guildID, userID string, newRole domain.StaffRole) error
}

// RunRecorder counts cascade fan-out volume for the ops metrics endpoint.
type RunRecorder interface {
	RecordCascade(changeType string, casesAffected int)
}

// Handler propagates the downstream consequences of a staff role change.
// Fan-out across cases is sequential so partial failure stays attributable;
// every step is independently caught and the top-level entry point never
// returns an error to the command path.
type Handler struct {
	cases   CaseStore
	staff   StaffStore
	notify  notify.Notifier
	audit   AuditSink
	sync    ChannelPermissionSyncer
	metrics RunRecorder
	logger  *zap.Logger
}

// Dependencies bundles collaborators. Metrics may be nil.
type Dependencies struct {
	Cases    CaseStore
	Staff    StaffStore
	Notifier notify.Notifier
	Audit    AuditSink
	Syncer   ChannelPermissionSyncer
	Metrics  RunRecorder
	Logger   *zap.Logger
}

// NewHandler creates the cascade handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		cases:   deps.Cases,
		staff:   deps.Staff,
		notify:  deps.Notifier,
		audit:   deps.Audit,
		sync:    deps.Syncer,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// HandleRoleChange classifies the transition and applies consequences.
func (h *Handler) HandleRoleChange(ctx context.Context, event RoleChangeEvent) Report {
	report := Report{Event: event}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("role change cascade panicked",
				zap.String("guild_id", event.GuildID),
				zap.String("user_id", event.UserID),
				zap.Any("panic", r))
		}
	}()

	hadLawyer := domain.IsLawyerRole(event.OldRole)
	hasLawyer := domain.IsLawyerRole(event.NewRole)
	hadLead := domain.IsLeadAttorneyRole(event.OldRole)
	hasLead := domain.IsLeadAttorneyRole(event.NewRole)

	switch {
	case hadLawyer && !hasLawyer:
		h.handleLostLawyerEligibility(ctx, event, &report)
	case hadLead && !hasLead && hasLawyer:
		h.handleLostLeadEligibility(ctx, event, &report)
	}

	if h.sync != nil {
		if err := h.sync.SyncMemberPermissions(ctx, event.GuildID, event.UserID, event.NewRole); err != nil {
			h.logger.Warn("channel permission sync failed",
				zap.String("user_id", event.UserID), zap.Error(err))
			report.Steps = append(report.Steps, StepResult{Target: "permission-sync", Outcome: OutcomeError, Err: err})
		} else {
			report.Steps = append(report.Steps, StepResult{Target: "permission-sync", Outcome: OutcomeOK})
		}
	}

	if h.metrics != nil {
		h.metrics.RecordCascade(string(event.ChangeType), report.CasesAffected)
	}
	return report
}

// handleLostLawyerEligibility unassigns the member from every case they
// touch, promotes or clears lead attorney, and escalates cases left with
// zero lawyers.
func (h *Handler) handleLostLawyerEligibility(ctx context.Context, event RoleChangeEvent, report *Report) {
	affected, err := h.cases.FindByLawyer(ctx, event.GuildID, event.UserID)
	if err != nil {
		h.logger.Error("cascade case lookup failed",
			zap.String("user_id", event.UserID), zap.Error(err))
		report.Steps = append(report.Steps, StepResult{Target: "case-lookup", Outcome: OutcomeError, Err: err})
		return
	}
	if len(affected) == 0 {
		return
	}

	h.step(report, "dm:"+event.UserID, func() error {
		return h.notify.DMUser(event.UserID, lostEligibilityDM(event, affected))
	})

	for i := range affected {
		c := &affected[i]
		wasLead := c.LeadAttorneyID == event.UserID
		c.UnassignLawyer(event.UserID)

		h.step(report, "case:"+c.CaseNumber, func() error {
			return h.cases.Update(ctx, c)
		})
		report.CasesAffected++

		if c.ChannelID != "" {
			h.step(report, "channel:"+c.ChannelID, func() error {
				return h.notify.SendToChannel(c.ChannelID, caseUpdateNotice(event, c, wasLead))
			})
		}
		if len(c.AssignedLawyerIDs) == 0 {
			h.escalateOrphanedCase(ctx, event.GuildID, c, report)
		}
	}

	h.recordAudit(ctx, event, report)
}

// handleLostLeadEligibility clears lead attorney on cases the member leads
// while keeping them assigned.
func (h *Handler) handleLostLeadEligibility(ctx context.Context, event RoleChangeEvent, report *Report) {
	cases, err := h.cases.FindByLawyer(ctx, event.GuildID, event.UserID)
	if err != nil {
		h.logger.Error("cascade case lookup failed",
			zap.String("user_id", event.UserID), zap.Error(err))
		report.Steps = append(report.Steps, StepResult{Target: "case-lookup", Outcome: OutcomeError, Err: err})
		return
	}

	var leading []domain.Case
	for _, c := range cases {
		if c.LeadAttorneyID == event.UserID {
			leading = append(leading, c)
		}
	}
	if len(leading) == 0 {
		return
	}

	h.step(report, "dm:"+event.UserID, func() error {
		return h.notify.DMUser(event.UserID, lostLeadDM(event, leading))
	})

	for i := range leading {
		c := &leading[i]
		c.LeadAttorneyID = ""

		h.step(report, "case:"+c.CaseNumber, func() error {
			return h.cases.Update(ctx, c)
		})
		report.CasesAffected++

		if c.ChannelID != "" {
			h.step(report, "channel:"+c.ChannelID, func() error {
				return h.notify.SendToChannel(c.ChannelID, fmt.Sprintf(
					"Case `%s` no longer has a lead attorney. A new lead should be designated with `/case setlead`.",
					c.CaseNumber))
			})
		}
	}

	h.recordAudit(ctx, event, report)
}

// escalateOrphanedCase alerts active Managing and Senior Partners that a
// case has no assigned lawyers left.
func (h *Handler) escalateOrphanedCase(ctx context.Context, guildID string, c *domain.Case, report *Report) {
	partners, err := h.staff.FindActiveByRoles(ctx, guildID,
		[]domain.StaffRole{domain.RoleManagingPartner, domain.RoleSeniorPartner})
	if err != nil {
		h.logger.Error("escalation partner lookup failed",
			zap.String("case", c.CaseNumber), zap.Error(err))
		report.Steps = append(report.Steps, StepResult{Target: "escalation-lookup", Outcome: OutcomeError, Err: err})
		return
	}
	report.Escalations++

	if c.ChannelID != "" {
		h.step(report, "escalation-channel:"+c.ChannelID, func() error {
			return h.notify.SendEmbedToChannel(c.ChannelID, orphanedCaseEmbed(c, partners))
		})
	}
	for _, partner := range partners {
		userID := partner.UserID
		h.step(report, "escalation-dm:"+userID, func() error {
			return h.notify.DMUser(userID, fmt.Sprintf(
				"Urgent: case `%s` has no assigned lawyers and needs immediate attention.",
				c.CaseNumber))
		})
	}
}

// step runs one fan-out operation, catching its failure so remaining steps
// still run.
func (h *Handler) step(report *Report, target string, fn func() error) {
	if err := fn(); err != nil {
		h.logger.Warn("cascade step failed", zap.String("target", target), zap.Error(err))
		report.Steps = append(report.Steps, StepResult{Target: target, Outcome: OutcomeError, Err: err})
		return
	}
	report.Steps = append(report.Steps, StepResult{Target: target, Outcome: OutcomeOK})
}

// recordAudit writes the single summary entry for the run. Failure here is
// logged, never propagated.
func (h *Handler) recordAudit(ctx context.Context, event RoleChangeEvent, report *Report) {
	entry := &domain.AuditLog{
		GuildID:  event.GuildID,
		Action:   domain.AuditRoleChangeCascade,
		ActorID:  event.UserID,
		TargetID: event.UserID,
		Details: domain.AuditDetails{
			Before: map[string]any{"role": string(event.OldRole)},
			After:  map[string]any{"role": string(event.NewRole)},
			Metadata: map[string]any{
				"changeType":    string(event.ChangeType),
				"casesAffected": report.CasesAffected,
				"escalations":   report.Escalations,
			},
		},
	}
	if err := h.audit.Add(ctx, entry); err != nil {
		h.logger.Warn("cascade audit write failed", zap.Error(err))
		report.Steps = append(report.Steps, StepResult{Target: "audit", Outcome: OutcomeError, Err: err})
	} else {
		report.Steps = append(report.Steps, StepResult{Target: "audit", Outcome: OutcomeOK})
	}
}

func lostEligibilityDM(event RoleChangeEvent, cases []domain.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your role change (%s) means you can no longer be assigned to cases. You have been unassigned from:\n",
		strings.ToLower(string(event.ChangeType)))
	for _, c := range cases {
		fmt.Fprintf(&b, "• `%s` %s\n", c.CaseNumber, c.Title)
	}
	return b.String()
}

func lostLeadDM(event RoleChangeEvent, cases []domain.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your role change (%s) means you can no longer serve as lead attorney. You remain assigned, but lead has been cleared on:\n",
		strings.ToLower(string(event.ChangeType)))
	for _, c := range cases {
		fmt.Fprintf(&b, "• `%s` %s\n", c.CaseNumber, c.Title)
	}
	return b.String()
}

func caseUpdateNotice(event RoleChangeEvent, c *domain.Case, wasLead bool) string {
	if wasLead && c.LeadAttorneyID != "" {
		return fmt.Sprintf("<@%s> has been unassigned from case `%s`. <@%s> is now lead attorney.",
			event.UserID, c.CaseNumber, c.LeadAttorneyID)
	}
	return fmt.Sprintf("<@%s> has been unassigned from case `%s`.", event.UserID, c.CaseNumber)
}

func orphanedCaseEmbed(c *domain.Case, partners []domain.Staff) *discordgo.MessageEmbed {
	mentions := make([]string, 0, len(partners))
	for _, p := range partners {
		mentions = append(mentions, fmt.Sprintf("<@%s>", p.UserID))
	}
	return &discordgo.MessageEmbed{
		Title:       "⚠️ Case Requires Immediate Attention",
		Description: fmt.Sprintf("Case `%s` has no assigned lawyers.\n%s", c.CaseNumber, strings.Join(mentions, " ")),
		Color:       0xED4245,
	}
}
