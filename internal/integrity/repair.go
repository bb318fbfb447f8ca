package integrity

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

// RepairReport summarizes one repair pass.
type RepairReport struct {
	DryRun        bool
	Attempted     int
	Repaired      []Issue
	FailedRepairs []FailedRepair
	Skipped       int
}

// FailedRepair records an issue whose repair exhausted its retries.
type FailedRepair struct {
	Issue Issue
	Err   error
}

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// RepairIssues applies auto-repair actions critical-first. Each repair is
// retried with backoff up to the configured bound; failures are collected
// without aborting the batch. The result cache is flushed after a non-dry
// pass so the next scan observes repaired state.
func (ch *Checker) RepairIssues(ctx context.Context, guildID, actorID string, issues []Issue, dryRun bool) *RepairReport {
	report := &RepairReport{DryRun: dryRun}

	repairable := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.CanAutoRepair && issue.Repair != nil {
			repairable = append(repairable, issue)
		} else {
			report.Skipped++
		}
	}
	sort.SliceStable(repairable, func(i, j int) bool {
		return severityRank[repairable[i].Severity] < severityRank[repairable[j].Severity]
	})

	for _, issue := range repairable {
		report.Attempted++
		if dryRun {
			report.Repaired = append(report.Repaired, issue)
			continue
		}

		if err := ch.repairWithRetry(ctx, issue); err != nil {
			report.FailedRepairs = append(report.FailedRepairs, FailedRepair{Issue: issue, Err: err})
			ch.logger.Error("integrity repair failed",
				zap.String("rule", issue.RuleName),
				zap.String("entity_id", issue.EntityID),
				zap.Error(err))
			continue
		}
		report.Repaired = append(report.Repaired, issue)
		ch.auditRepair(ctx, guildID, actorID, issue)
	}

	if !dryRun {
		ch.cache.Flush()
	}
	return report
}

func (ch *Checker) repairWithRetry(ctx context.Context, issue Issue) error {
	var lastErr error
	for attempt := 1; attempt <= ch.repairMaxAttempts; attempt++ {
		if lastErr = issue.Repair(ctx); lastErr == nil {
			return nil
		}
		if attempt < ch.repairMaxAttempts {
			select {
			case <-time.After(ch.repairBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// auditRepair writes one trail entry per applied repair. Failure is logged,
// never propagated.
func (ch *Checker) auditRepair(ctx context.Context, guildID, actorID string, issue Issue) {
	entry := &domain.AuditLog{
		GuildID:  guildID,
		Action:   domain.AuditIntegrityRepair,
		ActorID:  actorID,
		TargetID: issue.EntityID,
		Details: domain.AuditDetails{
			Reason: issue.Message,
			Metadata: map[string]any{
				"rule":       issue.RuleName,
				"entityType": string(issue.EntityType),
				"severity":   string(issue.Severity),
			},
		},
	}
	if err := ch.audit.Add(ctx, entry); err != nil {
		ch.logger.Warn("repair audit write failed", zap.Error(err))
	}
}
