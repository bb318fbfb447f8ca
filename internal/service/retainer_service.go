package service

import (
	"context"
	"fmt"
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

const defaultAgreementText = "I agree to be represented by Anarchy & Associates in the matters described, " +
	"and understand the terms of representation as communicated by my assigned lawyer."

// RetainerService orchestrates retainer agreements between the firm and
// clients.
type RetainerService struct {
	retainers  repository.RetainerRepository
	guildCfg   repository.GuildConfigRepository
	audit      repository.AuditRepository
	validator  *validation.Validator
	notifier   notify.Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RetainerDependencies bundles collaborators.
type RetainerDependencies struct {
	RetainerRepo repository.RetainerRepository
	GuildCfgRepo repository.GuildConfigRepository
	AuditRepo    repository.AuditRepository
	Validator    *validation.Validator
	Notifier     notify.Notifier
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewRetainerService creates the service.
func NewRetainerService(deps RetainerDependencies) *RetainerService {
	return &RetainerService{
		retainers:  deps.RetainerRepo,
		guildCfg:   deps.GuildCfgRepo,
		audit:      deps.AuditRepo,
		validator:  deps.Validator,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Create opens a pending retainer and DMs the client for signature. Only
// lawyers may create retainers.
func (s *RetainerService) Create(ctx context.Context, pctx domain.PermissionContext, clientID string) (*domain.Retainer, error) {
	perm := s.validator.ValidatePermission(ctx, pctx, domain.PermissionLawyer)
	if !perm.Valid {
		return nil, apperrors.NewPermissionError(strings.Join(perm.Errors, "; "), nil)
	}

	existing, err := s.retainers.FindByClient(ctx, pctx.GuildID, clientID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	for _, r := range existing {
		if r.Status == domain.RetainerPending {
			return nil, apperrors.NewBusinessRuleError("Client already has a pending retainer", map[string]any{"client_id": clientID})
		}
	}

	retainer := &domain.Retainer{
		GuildID:       pctx.GuildID,
		ClientID:      clientID,
		LawyerID:      pctx.UserID,
		Status:        domain.RetainerPending,
		AgreementText: defaultAgreementText,
	}
	if err := s.retainers.Create(ctx, retainer); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	if s.notifier != nil {
		if err := s.notifier.DMUser(clientID, fmt.Sprintf(
			"Anarchy & Associates has sent you a retainer agreement. Reply with `/retainer sign` in the server to sign.\n\n%s",
			retainer.AgreementText)); err != nil {
			s.logger.Warn("retainer DM failed", zap.String("client_id", clientID), zap.Error(err))
		}
	}
	return retainer, nil
}

// Sign records the client's digital signature and posts the signed agreement
// to the configured retainer channel.
func (s *RetainerService) Sign(ctx context.Context, guildID, retainerID, signerID, signature string) (*domain.Retainer, error) {
	retainer, err := s.retainers.FindByID(ctx, retainerID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}
	if retainer == nil || retainer.GuildID != guildID {
		return nil, apperrors.NewNotFound("retainer", map[string]any{"retainer_id": retainerID})
	}
	if retainer.ClientID != signerID {
		return nil, apperrors.NewPermissionError("Only the named client may sign this retainer", nil)
	}
	if retainer.Status != domain.RetainerPending {
		return nil, apperrors.NewBusinessRuleError("Retainer is not pending signature", map[string]any{"status": string(retainer.Status)})
	}
	if strings.TrimSpace(signature) == "" {
		return nil, apperrors.NewValidationError("A signature is required", nil)
	}

	now := time.Now()
	retainer.Status = domain.RetainerSigned
	retainer.DigitalSignature = signature
	retainer.SignedAt = &now
	if err := s.retainers.Update(ctx, retainer); err != nil {
		return nil, apperrors.NewDatabaseError(err, true)
	}

	cfg, err := s.guildCfg.Ensure(ctx, guildID)
	if err == nil && cfg.RetainerChannelID != "" && s.notifier != nil {
		if err := s.notifier.SendToChannel(cfg.RetainerChannelID, fmt.Sprintf(
			"Retainer signed: client <@%s>, lawyer <@%s>, signature `%s`.",
			retainer.ClientID, retainer.LawyerID, signature)); err != nil {
			s.logger.Warn("retainer channel notice failed", zap.Error(err))
		}
	}

	entry := &domain.AuditLog{
		GuildID:  guildID,
		Action:   domain.AuditRetainerSigned,
		ActorID:  signerID,
		TargetID: retainer.LawyerID,
		Details: domain.AuditDetails{
			After: map[string]any{"status": string(domain.RetainerSigned)},
		},
	}
	if err := s.audit.Add(ctx, entry); err != nil {
		s.logger.Warn("retainer audit write failed", zap.Error(err))
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRetainerSigned,
			GuildID:   guildID,
			ActorID:   signerID,
			Timestamp: now,
			Payload: events.RetainerSignedPayload{
				ClientID: retainer.ClientID,
				LawyerID: retainer.LawyerID,
			},
		})
	}
	return retainer, nil
}
