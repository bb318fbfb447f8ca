package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/kongdonovan/anarchy-and-associates/internal/discord"
	"github.com/kongdonovan/anarchy-and-associates/internal/integrity"
	"github.com/kongdonovan/anarchy-and-associates/internal/service"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// RepairCommands wires the /repair command group.
type RepairCommands struct {
	router *Router
	svc    *service.IntegrityService
}

// RegisterRepairCommands registers /repair and its subcommands.
func RegisterRepairCommands(router *Router, svc *service.IntegrityService) {
	c := &RepairCommands{router: router, svc: svc}

	router.Register(&discordgo.ApplicationCommand{
		Name:        "repair",
		Description: "Scan and repair data integrity",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "scan",
				Description: "Scan for integrity issues without changing anything",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "run",
				Description: "Scan and auto-repair integrity issues",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{Name: "dry_run", Description: "Report repairs without applying them", Type: discordgo.ApplicationCommandOptionBoolean},
				},
			},
		},
	}, c.handle)
}

func (c *RepairCommands) handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return apperrors.NewValidationError("a subcommand is required", nil)
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	pctx := c.router.BuildPermissionContext(s, i)

	switch sub.Name {
	case "scan":
		report, err := c.svc.Scan(ctx, pctx)
		if err != nil {
			return err
		}
		return RespondEphemeralEmbed(s, i, scanEmbed(report))

	case "run":
		dryRun := boolOption(opts, "dry_run")
		scan, repair, err := c.svc.Repair(ctx, pctx, dryRun)
		if err != nil {
			return err
		}
		return RespondEphemeral(s, i, repairSummary(scan, repair))
	}
	return apperrors.NewValidationError("unknown subcommand", nil)
}

func scanEmbed(report *integrity.ScanReport) *discordgo.MessageEmbed {
	return discord.IntegrityReportEmbed(
		report.EntitiesScanned,
		len(report.Issues),
		report.CountsBySeverity[integrity.SeverityCritical],
		report.CountsBySeverity[integrity.SeverityWarning],
		report.CountsBySeverity[integrity.SeverityInfo],
	)
}

func repairSummary(scan *integrity.ScanReport, repair *integrity.RepairReport) string {
	var b strings.Builder
	if repair.DryRun {
		b.WriteString("**Dry run** — no changes applied.\n")
	}
	fmt.Fprintf(&b, "Scanned %d entities, found %d issues.\n", scan.EntitiesScanned, len(scan.Issues))
	fmt.Fprintf(&b, "Repairs attempted: %d, applied: %d, failed: %d, not auto-repairable: %d.",
		repair.Attempted, len(repair.Repaired), len(repair.FailedRepairs), repair.Skipped)
	for _, f := range repair.FailedRepairs {
		fmt.Fprintf(&b, "\n- `%s` on `%s`: %v", f.Issue.RuleName, f.Issue.EntityID, f.Err)
	}
	return b.String()
}
