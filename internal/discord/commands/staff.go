package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/kongdonovan/anarchy-and-associates/internal/discord"
	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
	"github.com/kongdonovan/anarchy-and-associates/internal/service"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// StaffCommands wires the /staff command group.
type StaffCommands struct {
	router *Router
	staff  *service.StaffService
}

// RegisterStaffCommands registers /staff and its subcommands.
func RegisterStaffCommands(router *Router, staff *service.StaffService) {
	c := &StaffCommands{router: router, staff: staff}

	roleChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.AllRoles()))
	for _, role := range domain.AllRoles() {
		roleChoices = append(roleChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  domain.RoleDisplayName(role),
			Value: string(role),
		})
	}

	router.Register(&discordgo.ApplicationCommand{
		Name:        "staff",
		Description: "Manage the firm's staff",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "hire",
				Description: "Hire a new staff member",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "user", Description: "Member to hire", Type: discordgo.ApplicationCommandOptionUser, Required: true},
					{Name: "role", Description: "Position", Type: discordgo.ApplicationCommandOptionString, Required: true, Choices: roleChoices},
					{Name: "roblox_username", Description: "Roblox username", Type: discordgo.ApplicationCommandOptionString, Required: false},
					{Name: "reason", Description: "Reason", Type: discordgo.ApplicationCommandOptionString, Required: false},
					{Name: "bypass", Description: "Guild owner: bypass role limits", Type: discordgo.ApplicationCommandOptionBoolean, Required: false},
				},
			},
			{
				Name:        "fire",
				Description: "Terminate a staff member",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "user", Description: "Member to fire", Type: discordgo.ApplicationCommandOptionUser, Required: true},
					{Name: "reason", Description: "Reason", Type: discordgo.ApplicationCommandOptionString, Required: false},
				},
			},
			{
				Name:        "promote",
				Description: "Promote a staff member",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "user", Description: "Member to promote", Type: discordgo.ApplicationCommandOptionUser, Required: true},
					{Name: "role", Description: "New position", Type: discordgo.ApplicationCommandOptionString, Required: true, Choices: roleChoices},
					{Name: "reason", Description: "Reason", Type: discordgo.ApplicationCommandOptionString, Required: false},
					{Name: "bypass", Description: "Guild owner: bypass role limits", Type: discordgo.ApplicationCommandOptionBoolean, Required: false},
				},
			},
			{
				Name:        "demote",
				Description: "Demote a staff member",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "user", Description: "Member to demote", Type: discordgo.ApplicationCommandOptionUser, Required: true},
					{Name: "role", Description: "New position", Type: discordgo.ApplicationCommandOptionString, Required: true, Choices: roleChoices},
					{Name: "reason", Description: "Reason", Type: discordgo.ApplicationCommandOptionString, Required: false},
				},
			},
			{
				Name:        "list",
				Description: "Show the firm roster",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "info",
				Description: "Show a staff member's record",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "user", Description: "Member", Type: discordgo.ApplicationCommandOptionUser, Required: true},
				},
			},
		},
	}, c.handle)
}

func (c *StaffCommands) handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return apperrors.NewValidationError("a subcommand is required", nil)
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	pctx := c.router.BuildPermissionContext(s, i)

	switch sub.Name {
	case "hire":
		role, ok := domain.ParseStaffRole(stringOption(opts, "role"))
		if !ok {
			return apperrors.NewValidationError("unknown role", nil)
		}
		staff, err := c.staff.Hire(ctx, pctx, service.HireRequest{
			UserID:         userOption(opts, "user", s),
			RobloxUsername: stringOption(opts, "roblox_username"),
			Role:           role,
			Reason:         stringOption(opts, "reason"),
			Bypass:         boolOption(opts, "bypass"),
		})
		if err != nil {
			return err
		}
		return RespondEmbed(s, i, discord.StaffEmbed(staff))

	case "fire":
		staff, err := c.staff.Fire(ctx, pctx, userOption(opts, "user", s), stringOption(opts, "reason"))
		if err != nil {
			return err
		}
		return RespondEphemeral(s, i, fmt.Sprintf("<@%s> has been terminated.", staff.UserID))

	case "promote", "demote":
		role, ok := domain.ParseStaffRole(stringOption(opts, "role"))
		if !ok {
			return apperrors.NewValidationError("unknown role", nil)
		}
		staff, err := c.staff.ChangeRole(ctx, pctx, userOption(opts, "user", s), role,
			stringOption(opts, "reason"), boolOption(opts, "bypass"))
		if err != nil {
			return err
		}
		return RespondEmbed(s, i, discord.StaffEmbed(staff))

	case "list":
		roster, err := c.staff.List(ctx, pctx.GuildID, repository.StaffFilter{})
		if err != nil {
			return err
		}
		return RespondEmbed(s, i, discord.RosterEmbed(roster))

	case "info":
		staff, err := c.staff.Info(ctx, pctx.GuildID, userOption(opts, "user", s))
		if err != nil {
			return err
		}
		if staff == nil {
			return RespondEphemeral(s, i, "That user is not on record as staff.")
		}
		return RespondEmbed(s, i, discord.StaffEmbed(staff))
	}
	return apperrors.NewValidationError("unknown subcommand", nil)
}
