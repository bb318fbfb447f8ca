package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/events"
	"github.com/kongdonovan/anarchy-and-associates/internal/notify"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
)

// NotificationService forwards domain events to the guild's modlog channel.
type NotificationService struct {
	dispatcher events.Dispatcher
	guildCfg   repository.GuildConfigRepository
	notifier   notify.Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, guildCfg repository.GuildConfigRepository, notifier notify.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		guildCfg:   guildCfg,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventStaffHired, n.handleStaffHired)
	n.dispatcher.Subscribe(events.EventStaffRoleChanged, n.handleStaffRoleChanged)
	n.dispatcher.Subscribe(events.EventStaffFired, n.handleStaffFired)
	n.dispatcher.Subscribe(events.EventCaseOpened, n.handleCaseOpened)
	n.dispatcher.Subscribe(events.EventCaseClosed, n.handleCaseClosed)
	n.dispatcher.Subscribe(events.EventRetainerSigned, n.handleRetainerSigned)
}

func (n *NotificationService) handleStaffHired(ctx context.Context, event events.Event) error {
	n.logger.Info("StaffHired", zap.String("guild_id", event.GuildID), zap.Any("payload", event.Payload))
	if p, ok := event.Payload.(events.StaffHiredPayload); ok {
		n.modlog(ctx, event.GuildID, fmt.Sprintf("<@%s> hired <@%s> as %s.", event.ActorID, p.UserID, domain.RoleDisplayName(p.Role)))
	}
	return nil
}

func (n *NotificationService) handleStaffRoleChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("StaffRoleChanged", zap.String("guild_id", event.GuildID), zap.Any("payload", event.Payload))
	if p, ok := event.Payload.(events.StaffRoleChangedPayload); ok {
		n.modlog(ctx, event.GuildID, fmt.Sprintf("<@%s> changed <@%s> from %s to %s.",
			event.ActorID, p.UserID, domain.RoleDisplayName(p.OldRole), domain.RoleDisplayName(p.NewRole)))
	}
	return nil
}

func (n *NotificationService) handleStaffFired(ctx context.Context, event events.Event) error {
	n.logger.Info("StaffFired", zap.String("guild_id", event.GuildID), zap.Any("payload", event.Payload))
	if p, ok := event.Payload.(events.StaffRoleChangedPayload); ok {
		n.modlog(ctx, event.GuildID, fmt.Sprintf("<@%s> fired <@%s>.", event.ActorID, p.UserID))
	}
	return nil
}

func (n *NotificationService) handleCaseOpened(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseOpened", zap.String("guild_id", event.GuildID), zap.Any("payload", event.Payload))
	if p, ok := event.Payload.(events.CaseOpenedPayload); ok {
		n.modlog(ctx, event.GuildID, fmt.Sprintf("Case `%s` opened for <@%s>.", p.CaseNumber, p.ClientID))
	}
	return nil
}

func (n *NotificationService) handleCaseClosed(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseClosed", zap.String("guild_id", event.GuildID), zap.Any("payload", event.Payload))
	if p, ok := event.Payload.(events.CaseClosedPayload); ok {
		n.modlog(ctx, event.GuildID, fmt.Sprintf("Case `%s` closed (%s).", p.CaseNumber, p.Result))
	}
	return nil
}

func (n *NotificationService) handleRetainerSigned(ctx context.Context, event events.Event) error {
	n.logger.Info("RetainerSigned", zap.String("guild_id", event.GuildID), zap.Any("payload", event.Payload))
	if p, ok := event.Payload.(events.RetainerSignedPayload); ok {
		n.modlog(ctx, event.GuildID, fmt.Sprintf("Retainer signed: client <@%s>, lawyer <@%s>.", p.ClientID, p.LawyerID))
	}
	return nil
}

// modlog posts to the guild's modlog channel when one is configured. Delivery
// is best effort.
func (n *NotificationService) modlog(ctx context.Context, guildID, message string) {
	if n.notifier == nil || n.guildCfg == nil {
		return
	}
	cfg, err := n.guildCfg.Ensure(ctx, guildID)
	if err != nil || cfg.ModlogChannelID == "" {
		return
	}
	if err := n.notifier.SendToChannel(cfg.ModlogChannelID, message); err != nil {
		n.logger.Warn("modlog notice failed", zap.String("guild_id", guildID), zap.Error(err))
	}
}
