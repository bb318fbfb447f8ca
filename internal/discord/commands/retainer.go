package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/kongdonovan/anarchy-and-associates/internal/service"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// RetainerCommands wires the /retainer command group.
type RetainerCommands struct {
	router    *Router
	retainers *service.RetainerService
}

// RegisterRetainerCommands registers /retainer and its subcommands.
func RegisterRetainerCommands(router *Router, retainers *service.RetainerService) {
	c := &RetainerCommands{router: router, retainers: retainers}

	router.Register(&discordgo.ApplicationCommand{
		Name:        "retainer",
		Description: "Manage retainer agreements",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "create",
				Description: "Send a retainer agreement to a client",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "client", Description: "Client", Type: discordgo.ApplicationCommandOptionUser, Required: true},
				},
			},
			{
				Name:        "sign",
				Description: "Sign a retainer agreement sent to you",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "retainer_id", Description: "Retainer id", Type: discordgo.ApplicationCommandOptionString, Required: true},
					{Name: "signature", Description: "Your Roblox username as signature", Type: discordgo.ApplicationCommandOptionString, Required: true},
				},
			},
		},
	}, c.handle)
}

func (c *RetainerCommands) handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return apperrors.NewValidationError("a subcommand is required", nil)
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	pctx := c.router.BuildPermissionContext(s, i)

	switch sub.Name {
	case "create":
		retainer, err := c.retainers.Create(ctx, pctx, userOption(opts, "client", s))
		if err != nil {
			return err
		}
		return RespondEphemeral(s, i, fmt.Sprintf(
			"Retainer `%s` sent to <@%s> for signature.", retainer.ID, retainer.ClientID))

	case "sign":
		retainer, err := c.retainers.Sign(ctx, pctx.GuildID,
			stringOption(opts, "retainer_id"), pctx.UserID, stringOption(opts, "signature"))
		if err != nil {
			return err
		}
		return RespondEphemeral(s, i, fmt.Sprintf(
			"Retainer signed. You are now represented by <@%s>.", retainer.LawyerID))
	}
	return apperrors.NewValidationError("unknown subcommand", nil)
}
