package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kongdonovan/anarchy-and-associates/internal/integrity"
	"github.com/kongdonovan/anarchy-and-associates/internal/service"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

// IntegrityHandler exposes integrity scans to operators.
type IntegrityHandler struct {
	svc *service.IntegrityService
}

// NewIntegrityHandler returns a new handler instance.
func NewIntegrityHandler(svc *service.IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{svc: svc}
}

// Scan runs a scan-and-repair sweep for one guild. With dry_run=true the
// repairs are reported but not applied.
func (h *IntegrityHandler) Scan(c *fiber.Ctx) error {
	guildID := c.Query("guild_id")
	if guildID == "" {
		return apperrors.NewValidationError("guild_id is required", nil)
	}

	dryRun := c.QueryBool("dry_run")
	scan, repair, err := h.svc.SweepGuild(c.UserContext(), guildID, dryRun)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"guild_id":         guildID,
		"dry_run":          dryRun,
		"entities_scanned": scan.EntitiesScanned,
		"issues":           issuesJSON(scan.Issues),
		"repairs": fiber.Map{
			"attempted": repair.Attempted,
			"applied":   len(repair.Repaired),
			"failed":    len(repair.FailedRepairs),
			"skipped":   repair.Skipped,
		},
	})
}

func issuesJSON(issues []integrity.Issue) []fiber.Map {
	out := make([]fiber.Map, 0, len(issues))
	for _, issue := range issues {
		out = append(out, fiber.Map{
			"rule":        issue.RuleName,
			"entity_type": string(issue.EntityType),
			"entity_id":   issue.EntityID,
			"severity":    string(issue.Severity),
			"message":     issue.Message,
			"auto_repair": issue.CanAutoRepair,
		})
	}
	return out
}
