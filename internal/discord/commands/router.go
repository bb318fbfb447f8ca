package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/observability"
	"github.com/kongdonovan/anarchy-and-associates/internal/persistence"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// Handler processes one slash-command interaction.
type Handler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error

// Router registers slash commands and dispatches interactions to handlers
// with a per-user Redis cooldown.
type Router struct {
	session     *discordgo.Session
	cooldowns   *persistence.Redis
	cooldownTTL time.Duration
	metrics     *observability.Metrics
	logger      *zap.Logger

	definitions []*discordgo.ApplicationCommand
	handlers    map[string]Handler
}

// NewRouter creates the router.
func NewRouter(session *discordgo.Session, cooldowns *persistence.Redis, cooldownTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Router {
	return &Router{
		session:     session,
		cooldowns:   cooldowns,
		cooldownTTL: cooldownTTL,
		metrics:     metrics,
		logger:      logger,
		handlers:    make(map[string]Handler),
	}
}

// Register adds a command definition and its handler.
func (r *Router) Register(def *discordgo.ApplicationCommand, handler Handler) {
	r.definitions = append(r.definitions, def)
	r.handlers[def.Name] = handler
}

// Sync bulk-overwrites the guild's application commands.
func (r *Router) Sync(guildID string) error {
	_, err := r.session.ApplicationCommandBulkOverwrite(r.session.State.User.ID, guildID, r.definitions)
	return err
}

// Listen attaches the interaction dispatcher to the session.
func (r *Router) Listen() {
	r.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		name := i.ApplicationCommandData().Name
		handler, ok := r.handlers[name]
		if !ok {
			return
		}

		ctx := context.Background()
		if i.Member != nil && !r.cooldowns.AcquireCooldown(ctx,
			fmt.Sprintf("cooldown:%s:%s:%s", i.GuildID, i.Member.User.ID, name), r.cooldownTTL) {
			_ = RespondEphemeral(s, i, "Slow down — that command is on cooldown.")
			return
		}

		if err := handler(ctx, s, i); err != nil {
			domainErr := apperrors.ToDomainError(err)
			r.metrics.RecordCommand(name, domainErr.Code)
			if domainErr.HTTPStatus >= 500 {
				r.logger.Error("command failed",
					zap.String("command", name),
					zap.String("guild_id", i.GuildID),
					zap.Error(domainErr))
			} else if domainErr.Code == "PERMISSION_DENIED" {
				r.logger.Warn("command denied",
					zap.String("command", name),
					zap.String("guild_id", i.GuildID),
					zap.String("user_id", interactionUserID(i)))
			}
			_ = RespondEphemeral(s, i, domainErr.Sanitized())
			return
		}
		r.metrics.RecordCommand(name, "ok")
	})
}

// BuildPermissionContext extracts the invoker's identity facts from the
// interaction. The owner flag comes from guild state, falling back to a
// REST lookup.
func (r *Router) BuildPermissionContext(s *discordgo.Session, i *discordgo.InteractionCreate) domain.PermissionContext {
	pctx := domain.PermissionContext{GuildID: i.GuildID}
	if i.Member == nil {
		return pctx
	}
	pctx.UserID = i.Member.User.ID
	pctx.UserRoles = i.Member.Roles

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		guild, err = s.Guild(i.GuildID)
	}
	if err == nil && guild != nil {
		pctx.IsGuildOwner = guild.OwnerID == pctx.UserID
	}
	return pctx
}

// RespondEmbed replies to the interaction with an embed.
func RespondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// RespondEphemeral replies with a message only the invoker can see.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// RespondEphemeralEmbed replies with an embed only the invoker can see.
func RespondEphemeralEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	return ""
}

// optionMap indexes a subcommand's options by name.
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func boolOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt, ok := m[name]; ok {
		return opt.BoolValue()
	}
	return false
}

func userOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, s *discordgo.Session) string {
	if opt, ok := m[name]; ok {
		if user := opt.UserValue(s); user != nil {
			return user.ID
		}
	}
	return ""
}

func roleOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, s *discordgo.Session, guildID string) string {
	if opt, ok := m[name]; ok {
		if role := opt.RoleValue(s, guildID); role != nil {
			return role.ID
		}
	}
	return ""
}

func channelOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		if ch := opt.ChannelValue(nil); ch != nil {
			return ch.ID
		}
	}
	return ""
}
