package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/events"
	"github.com/kongdonovan/anarchy-and-associates/internal/notify"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
	"github.com/kongdonovan/anarchy-and-associates/internal/validation"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// ChannelLifecycle owns Discord channel creation and archiving for cases.
type ChannelLifecycle interface {
	CreateCaseChannel(ctx context.Context, guildID, caseNumber string) (string, error)
	ArchiveCaseChannel(ctx context.Context, guildID, channelID string) error
}

// CaseService orchestrates case intake, assignment and closure.
type CaseService struct {
	cases      repository.CaseRepository
	audit      repository.AuditRepository
	validator  *validation.Validator
	channels   ChannelLifecycle
	notifier   notify.Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CaseDependencies bundles collaborators.
type CaseDependencies struct {
	CaseRepo   repository.CaseRepository
	AuditRepo  repository.AuditRepository
	Validator  *validation.Validator
	Channels   ChannelLifecycle
	Notifier   notify.Notifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewCaseService creates the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	return &CaseService{
		cases:      deps.CaseRepo,
		audit:      deps.AuditRepo,
		validator:  deps.Validator,
		channels:   deps.Channels,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// OpenRequest carries one case intake.
type OpenRequest struct {
	ClientID       string
	ClientUsername string
	Title          string
	Description    string
	Priority       domain.CasePriority
}

// Open validates the client's case limit and creates a pending case with its
// Discord channel. The limit check and the create are two round trips; two
// concurrent opens can both pass the check.
func (s *CaseService) Open(ctx context.Context, pctx domain.PermissionContext, req OpenRequest) (*domain.Case, error) {
	limit := s.validator.ValidateClientCaseLimit(ctx, req.ClientID, pctx.GuildID)
	if !limit.Valid {
		return nil, apperrors.NewBusinessRuleError(strings.Join(limit.Errors, "; "), map[string]any{
			"client_id": req.ClientID,
			"active":    limit.ActiveCases,
			"max":       limit.MaxCases,
		})
	}
	for _, warning := range limit.Warnings {
		s.logger.Info("case limit warning",
			zap.String("client_id", req.ClientID),
			zap.String("warning", warning))
	}

	year := time.Now().Year()
	sequence, err := s.cases.CountByGuildAndYear(ctx, pctx.GuildID, year)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.CasePriorityMedium
	}
	c := &domain.Case{
		GuildID:           pctx.GuildID,
		CaseNumber:        domain.FormatCaseNumber(year, sequence+1, req.ClientUsername),
		ClientID:          req.ClientID,
		ClientUsername:    req.ClientUsername,
		Title:             req.Title,
		Description:       req.Description,
		Status:            domain.CaseStatusPending,
		Priority:          priority,
		AssignedLawyerIDs: []string{},
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	if s.channels != nil {
		channelID, err := s.channels.CreateCaseChannel(ctx, pctx.GuildID, c.CaseNumber)
		if err != nil {
			s.logger.Warn("case channel creation failed",
				zap.String("case", c.CaseNumber), zap.Error(err))
		} else {
			c.ChannelID = channelID
			if err := s.cases.Update(ctx, c); err != nil {
				s.logger.Warn("case channel id persist failed",
					zap.String("case", c.CaseNumber), zap.Error(err))
			}
		}
	}

	s.recordAudit(ctx, pctx, domain.AuditCaseOpened, req.ClientID, domain.AuditDetails{
		After: map[string]any{"caseNumber": c.CaseNumber, "title": c.Title},
	})
	s.publish(ctx, pctx, events.EventCaseOpened, events.CaseOpenedPayload{
		CaseNumber: c.CaseNumber,
		ClientID:   req.ClientID,
		Priority:   priority,
	})
	return c, nil
}

// Assign adds a lawyer to a case. The first assignment makes them lead and
// moves the case in progress.
func (s *CaseService) Assign(ctx context.Context, pctx domain.PermissionContext, caseID, lawyerID string) (*domain.Case, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionCase)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}
	staffCheck := s.validator.ValidateStaffMember(ctx, pctx, lawyerID, domain.PermissionLawyer)
	if !staffCheck.Valid {
		return nil, apperrors.NewBusinessRuleError(strings.Join(staffCheck.Errors, "; "), map[string]any{"user_id": lawyerID})
	}

	c, err := s.loadCase(ctx, pctx.GuildID, caseID)
	if err != nil {
		return nil, err
	}
	c.AssignLawyer(lawyerID)
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	if c.ChannelID != "" && s.notifier != nil {
		if err := s.notifier.SendToChannel(c.ChannelID, "<@"+lawyerID+"> has been assigned to this case."); err != nil {
			s.logger.Warn("assignment notice failed", zap.String("case", c.CaseNumber), zap.Error(err))
		}
	}
	s.recordAudit(ctx, pctx, domain.AuditCaseAssigned, lawyerID, domain.AuditDetails{
		After: map[string]any{"caseNumber": c.CaseNumber, "leadAttorneyId": c.LeadAttorneyID},
	})
	s.publish(ctx, pctx, events.EventCaseAssigned, events.CaseAssignedPayload{
		CaseNumber:     c.CaseNumber,
		LawyerIDs:      c.AssignedLawyerIDs,
		LeadAttorneyID: c.LeadAttorneyID,
	})
	return c, nil
}

// Unassign removes a lawyer from a case. Removing a lawyer who is not
// assigned is a no-op, not an error.
func (s *CaseService) Unassign(ctx context.Context, pctx domain.PermissionContext, caseID, lawyerID string) (*domain.Case, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionCase)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}

	c, err := s.loadCase(ctx, pctx.GuildID, caseID)
	if err != nil {
		return nil, err
	}
	if !c.HasLawyer(lawyerID) {
		return c, nil
	}
	c.UnassignLawyer(lawyerID)
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	s.recordAudit(ctx, pctx, domain.AuditCaseAssigned, lawyerID, domain.AuditDetails{
		After:  map[string]any{"caseNumber": c.CaseNumber, "leadAttorneyId": c.LeadAttorneyID},
		Reason: "unassigned",
	})
	return c, nil
}

// SetLead designates the case's lead attorney. The target must hold a
// lead-eligible role.
func (s *CaseService) SetLead(ctx context.Context, pctx domain.PermissionContext, caseID, lawyerID string) (*domain.Case, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionCase)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}
	staffCheck := s.validator.ValidateStaffMember(ctx, pctx, lawyerID, domain.PermissionLeadAttorney)
	if !staffCheck.Valid {
		return nil, apperrors.NewBusinessRuleError(strings.Join(staffCheck.Errors, "; "), map[string]any{"user_id": lawyerID})
	}

	c, err := s.loadCase(ctx, pctx.GuildID, caseID)
	if err != nil {
		return nil, err
	}
	c.SetLeadAttorney(lawyerID)
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	if c.ChannelID != "" && s.notifier != nil {
		if err := s.notifier.SendToChannel(c.ChannelID, "<@"+lawyerID+"> is now lead attorney on this case."); err != nil {
			s.logger.Warn("lead notice failed", zap.String("case", c.CaseNumber), zap.Error(err))
		}
	}
	return c, nil
}

// Close marks the case closed and archives its channel. Channel archiving is
// best-effort and owned by the Discord layer.
func (s *CaseService) Close(ctx context.Context, pctx domain.PermissionContext, caseID string, result domain.CaseResult, notes string) (*domain.Case, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionCase)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}

	c, err := s.loadCase(ctx, pctx.GuildID, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.CaseStatusClosed {
		return nil, apperrors.NewBusinessRuleError("Case is already closed", map[string]any{"case": c.CaseNumber})
	}

	c.Close(result, notes, pctx.UserID, time.Now())
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	if c.ChannelID != "" && s.channels != nil {
		if err := s.channels.ArchiveCaseChannel(ctx, pctx.GuildID, c.ChannelID); err != nil {
			s.logger.Warn("case channel archive failed",
				zap.String("case", c.CaseNumber), zap.Error(err))
		}
	}

	s.recordAudit(ctx, pctx, domain.AuditCaseClosed, c.ClientID, domain.AuditDetails{
		After:  map[string]any{"caseNumber": c.CaseNumber, "result": string(result)},
		Reason: notes,
	})
	s.publish(ctx, pctx, events.EventCaseClosed, events.CaseClosedPayload{
		CaseNumber: c.CaseNumber,
		Result:     result,
	})
	return c, nil
}

// Info returns a case by its firm case number.
func (s *CaseService) Info(ctx context.Context, guildID, caseNumber string) (*domain.Case, error) {
	c, err := s.cases.FindByCaseNumber(ctx, guildID, caseNumber)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	if c == nil {
		return nil, apperrors.NewNotFound("case", map[string]any{"case_number": caseNumber})
	}
	return c, nil
}

func (s *CaseService) loadCase(ctx context.Context, guildID, caseID string) (*domain.Case, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	if c == nil || c.GuildID != guildID {
		return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
	}
	return c, nil
}

func (s *CaseService) recordAudit(ctx context.Context, pctx domain.PermissionContext, action domain.AuditAction, targetID string, details domain.AuditDetails) {
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

func (s *CaseService) publish(ctx context.Context, pctx domain.PermissionContext, eventType events.EventType, payload any) {
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
