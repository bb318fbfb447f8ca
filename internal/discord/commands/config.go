package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/kongdonovan/anarchy-and-associates/internal/discord"
	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/service"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// ConfigCommands wires the /config command group.
type ConfigCommands struct {
	router *Router
	config *service.ConfigService
}

// RegisterConfigCommands registers /config and its subcommands.
func RegisterConfigCommands(router *Router, config *service.ConfigService) {
	c := &ConfigCommands{router: router, config: config}

	actionChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.AllPermissionActions()))
	for _, a := range domain.AllPermissionActions() {
		actionChoices = append(actionChoices, &discordgo.ApplicationCommandOptionChoice{
			Name: string(a), Value: string(a),
		})
	}
	channelChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "feedback", Value: string(service.ChannelFeedback)},
		{Name: "retainer", Value: string(service.ChannelRetainer)},
		{Name: "modlog", Value: string(service.ChannelModlog)},
		{Name: "case-review-category", Value: string(service.ChannelCaseReview)},
		{Name: "case-archive-category", Value: string(service.ChannelCaseArchive)},
	}

	router.Register(&discordgo.ApplicationCommand{
		Name:        "config",
		Description: "Configure the bot for this server",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "set-permission",
				Description: "Grant a permission action to a Discord role",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "action", Description: "Permission action", Type: discordgo.ApplicationCommandOptionString, Required: true, Choices: actionChoices},
					{Name: "role", Description: "Discord role", Type: discordgo.ApplicationCommandOptionRole, Required: true},
				},
			},
			{
				Name:        "clear-permission",
				Description: "Remove all role grants for a permission action",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "action", Description: "Permission action", Type: discordgo.ApplicationCommandOptionString, Required: true, Choices: actionChoices},
				},
			},
			{
				Name:        "set-channel",
				Description: "Point a configuration slot at a channel or category",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "setting", Description: "Which slot", Type: discordgo.ApplicationCommandOptionString, Required: true, Choices: channelChoices},
					{Name: "channel", Description: "Channel or category", Type: discordgo.ApplicationCommandOptionChannel, Required: true},
				},
			},
			{
				Name:        "set-client-role",
				Description: "Set the role granted to clients",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "role", Description: "Discord role", Type: discordgo.ApplicationCommandOptionRole, Required: true},
				},
			},
			{
				Name:        "view",
				Description: "Show the current configuration",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}, c.handle)
}

func (c *ConfigCommands) handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return apperrors.NewValidationError("a subcommand is required", nil)
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	pctx := c.router.BuildPermissionContext(s, i)

	switch sub.Name {
	case "set-permission":
		action := stringOption(opts, "action")
		roleID := roleOption(opts, "role", s, pctx.GuildID)
		if err := c.config.SetPermissionRole(ctx, pctx, action, roleID); err != nil {
			return err
		}
		return RespondEphemeral(s, i, fmt.Sprintf("Permission `%s` is now granted to <@&%s>.", action, roleID))

	case "clear-permission":
		action := stringOption(opts, "action")
		if err := c.config.ClearPermissionRoles(ctx, pctx, action); err != nil {
			return err
		}
		return RespondEphemeral(s, i, fmt.Sprintf("Permission `%s` now has no role grants.", action))

	case "set-channel":
		setting := service.ChannelSetting(stringOption(opts, "setting"))
		channelID := channelOption(opts, "channel")
		if err := c.config.SetChannel(ctx, pctx, setting, channelID); err != nil {
			return err
		}
		return RespondEphemeral(s, i, fmt.Sprintf("Channel slot `%s` set to <#%s>.", setting, channelID))

	case "set-client-role":
		roleID := roleOption(opts, "role", s, pctx.GuildID)
		if err := c.config.SetClientRole(ctx, pctx, roleID); err != nil {
			return err
		}
		return RespondEphemeral(s, i, fmt.Sprintf("Client role set to <@&%s>.", roleID))

	case "view":
		cfg, err := c.config.View(ctx, pctx)
		if err != nil {
			return err
		}
		return RespondEphemeralEmbed(s, i, discord.ConfigEmbed(cfg))
	}
	return apperrors.NewValidationError("unknown subcommand", nil)
}
