package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/kongdonovan/anarchy-and-associates/internal/discord"
	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/service"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// CaseCommands wires the /case command group.
type CaseCommands struct {
	router *Router
	cases  *service.CaseService
}

// RegisterCaseCommands registers /case and its subcommands.
func RegisterCaseCommands(router *Router, cases *service.CaseService) {
	c := &CaseCommands{router: router, cases: cases}

	resultChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Win", Value: string(domain.CaseResultWin)},
		{Name: "Loss", Value: string(domain.CaseResultLoss)},
		{Name: "Settlement", Value: string(domain.CaseResultSettlement)},
		{Name: "Dismissed", Value: string(domain.CaseResultDismissed)},
		{Name: "Withdrawn", Value: string(domain.CaseResultWithdrawn)},
	}
	priorityChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Low", Value: string(domain.CasePriorityLow)},
		{Name: "Medium", Value: string(domain.CasePriorityMedium)},
		{Name: "High", Value: string(domain.CasePriorityHigh)},
		{Name: "Urgent", Value: string(domain.CasePriorityUrgent)},
	}

	router.Register(&discordgo.ApplicationCommand{
		Name:        "case",
		Description: "Manage client cases",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "open",
				Description: "Open a case for a client",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "client", Description: "Client", Type: discordgo.ApplicationCommandOptionUser, Required: true},
					{Name: "title", Description: "Case title", Type: discordgo.ApplicationCommandOptionString, Required: true},
					{Name: "description", Description: "Details", Type: discordgo.ApplicationCommandOptionString, Required: false},
					{Name: "priority", Description: "Priority", Type: discordgo.ApplicationCommandOptionString, Required: false, Choices: priorityChoices},
				},
			},
			{
				Name:        "assign",
				Description: "Assign a lawyer to a case",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "case_number", Description: "Case number", Type: discordgo.ApplicationCommandOptionString, Required: true},
					{Name: "lawyer", Description: "Lawyer", Type: discordgo.ApplicationCommandOptionUser, Required: true},
				},
			},
			{
				Name:        "unassign",
				Description: "Remove a lawyer from a case",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "case_number", Description: "Case number", Type: discordgo.ApplicationCommandOptionString, Required: true},
					{Name: "lawyer", Description: "Lawyer", Type: discordgo.ApplicationCommandOptionUser, Required: true},
				},
			},
			{
				Name:        "setlead",
				Description: "Designate the lead attorney",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "case_number", Description: "Case number", Type: discordgo.ApplicationCommandOptionString, Required: true},
					{Name: "lawyer", Description: "Lead attorney", Type: discordgo.ApplicationCommandOptionUser, Required: true},
				},
			},
			{
				Name:        "close",
				Description: "Close a case",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "case_number", Description: "Case number", Type: discordgo.ApplicationCommandOptionString, Required: true},
					{Name: "result", Description: "Outcome", Type: discordgo.ApplicationCommandOptionString, Required: true, Choices: resultChoices},
					{Name: "notes", Description: "Closing notes", Type: discordgo.ApplicationCommandOptionString, Required: false},
				},
			},
			{
				Name:        "info",
				Description: "Show a case",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "case_number", Description: "Case number", Type: discordgo.ApplicationCommandOptionString, Required: true},
				},
			},
		},
	}, c.handle)
}

func (c *CaseCommands) handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return apperrors.NewValidationError("a subcommand is required", nil)
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	pctx := c.router.BuildPermissionContext(s, i)

	switch sub.Name {
	case "open":
		clientID := userOption(opts, "client", s)
		username := clientID
		if opt, ok := opts["client"]; ok {
			if user := opt.UserValue(s); user != nil {
				username = user.Username
			}
		}
		opened, err := c.cases.Open(ctx, pctx, service.OpenRequest{
			ClientID:       clientID,
			ClientUsername: username,
			Title:          stringOption(opts, "title"),
			Description:    stringOption(opts, "description"),
			Priority:       domain.CasePriority(stringOption(opts, "priority")),
		})
		if err != nil {
			return err
		}
		return RespondEmbed(s, i, discord.CaseEmbed(opened))

	case "assign":
		return c.withCase(ctx, s, i, pctx, opts, func(caseID string) (*domain.Case, error) {
			return c.cases.Assign(ctx, pctx, caseID, userOption(opts, "lawyer", s))
		})

	case "unassign":
		return c.withCase(ctx, s, i, pctx, opts, func(caseID string) (*domain.Case, error) {
			return c.cases.Unassign(ctx, pctx, caseID, userOption(opts, "lawyer", s))
		})

	case "setlead":
		return c.withCase(ctx, s, i, pctx, opts, func(caseID string) (*domain.Case, error) {
			return c.cases.SetLead(ctx, pctx, caseID, userOption(opts, "lawyer", s))
		})

	case "close":
		return c.withCase(ctx, s, i, pctx, opts, func(caseID string) (*domain.Case, error) {
			return c.cases.Close(ctx, pctx, caseID,
				domain.CaseResult(stringOption(opts, "result")), stringOption(opts, "notes"))
		})

	case "info":
		found, err := c.cases.Info(ctx, pctx.GuildID, stringOption(opts, "case_number"))
		if err != nil {
			return err
		}
		return RespondEmbed(s, i, discord.CaseEmbed(found))
	}
	return apperrors.NewValidationError("unknown subcommand", nil)
}

// withCase resolves the case number to an id and renders the mutated case.
func (c *CaseCommands) withCase(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate,
	pctx domain.PermissionContext, opts map[string]*discordgo.ApplicationCommandInteractionDataOption,
	op func(caseID string) (*domain.Case, error)) error {

	found, err := c.cases.Info(ctx, pctx.GuildID, stringOption(opts, "case_number"))
	if err != nil {
		return err
	}
	mutated, err := op(found.ID)
	if err != nil {
		return err
	}
	return RespondEmbed(s, i, discord.CaseEmbed(mutated))
}
