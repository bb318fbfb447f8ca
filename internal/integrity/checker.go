package integrity

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
)

// ChannelChecker answers whether a Discord channel still exists.
type ChannelChecker interface {
	ChannelExists(channelID string) bool
}

// ScanReport aggregates one guild sweep.
type ScanReport struct {
	GuildID          string
	ScannedAt        time.Time
	EntitiesScanned  int
	Issues           []Issue
	CountsBySeverity map[Severity]int
	CountsByEntity   map[EntityType]int
}

// scanContext carries the entities and collaborators rules validate against.
type scanContext struct {
	guildID       string
	staffByUserID map[string]*domain.Staff
	jobsByID      map[string]*domain.Job
	cases         CaseUpdater
	channels      ChannelChecker
}

// CaseUpdater is the mutation surface repair actions need.
type CaseUpdater interface {
	Update(ctx context.Context, c *domain.Case) error
}

// Repositories bundles the read surfaces the checker sweeps.
type Repositories struct {
	Staff        repository.StaffRepository
	Cases        repository.CaseRepository
	Applications repository.ApplicationRepository
	Jobs         repository.JobRepository
	Retainers    repository.RetainerRepository
	Feedback     repository.FeedbackRepository
	Reminders    repository.ReminderRepository
}

// Checker sweeps a guild's entities for referential-integrity violations.
// Per-entity results are cached with a short TTL to bound repeated-scan
// cost; the cache is flushed wholesale after any repair pass.
type Checker struct {
	repos    Repositories
	audit    AuditSink
	channels ChannelChecker
	rules    []Rule
	cache    *gocache.Cache
	logger   *zap.Logger

	repairMaxAttempts int
	repairBackoff     time.Duration
}

// AuditSink records repair actions.
type AuditSink interface {
	Add(ctx context.Context, entry *domain.AuditLog) error
}

// Options tunes checker behavior.
type Options struct {
	CacheTTL          time.Duration
	RepairMaxAttempts int
	RepairBackoff     time.Duration
}

// NewChecker creates a checker with the default rule catalog.
func NewChecker(repos Repositories, audit AuditSink, channels ChannelChecker, opts Options, logger *zap.Logger) *Checker {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	attempts := opts.RepairMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := opts.RepairBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Checker{
		repos:             repos,
		audit:             audit,
		channels:          channels,
		rules:             defaultRules(),
		cache:             gocache.New(ttl, 2*ttl),
		logger:            logger,
		repairMaxAttempts: attempts,
		repairBackoff:     backoff,
	}
}

// ScanGuild runs every matching rule over every entity in the guild.
func (ch *Checker) ScanGuild(ctx context.Context, guildID string) (*ScanReport, error) {
	report := &ScanReport{
		GuildID:          guildID,
		ScannedAt:        time.Now(),
		CountsBySeverity: make(map[Severity]int),
		CountsByEntity:   make(map[EntityType]int),
	}

	sc, entities, err := ch.loadGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	for _, e := range entities {
		report.EntitiesScanned++
		issues := ch.checkEntity(ctx, sc, e)
		for _, issue := range issues {
			report.Issues = append(report.Issues, issue)
			report.CountsBySeverity[issue.Severity]++
			report.CountsByEntity[issue.EntityType]++
		}
	}

	ch.logger.Info("integrity scan complete",
		zap.String("guild_id", guildID),
		zap.Int("entities", report.EntitiesScanned),
		zap.Int("issues", len(report.Issues)))
	return report, nil
}

type scannedEntity struct {
	entityType EntityType
	entityID   string
	value      any
}

func (ch *Checker) loadGuild(ctx context.Context, guildID string) (*scanContext, []scannedEntity, error) {
	staff, err := ch.repos.Staff.FindByGuildID(ctx, guildID, repository.StaffFilter{})
	if err != nil {
		return nil, nil, err
	}
	cases, err := ch.repos.Cases.FindByFilters(ctx, repository.CaseFilter{GuildID: guildID})
	if err != nil {
		return nil, nil, err
	}
	applications, err := ch.repos.Applications.FindByGuildID(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := ch.repos.Jobs.FindByGuildID(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	retainers, err := ch.repos.Retainers.FindByGuildID(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	feedback, err := ch.repos.Feedback.FindByGuildID(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	reminders, err := ch.repos.Reminders.FindByGuildID(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}

	sc := &scanContext{
		guildID:       guildID,
		staffByUserID: make(map[string]*domain.Staff, len(staff)),
		jobsByID:      make(map[string]*domain.Job, len(jobs)),
		cases:         ch.repos.Cases,
		channels:      ch.channels,
	}
	for i := range staff {
		sc.staffByUserID[staff[i].UserID] = &staff[i]
	}
	for i := range jobs {
		sc.jobsByID[jobs[i].ID] = &jobs[i]
	}

	var entities []scannedEntity
	for i := range staff {
		entities = append(entities, scannedEntity{EntityStaff, staff[i].ID, &staff[i]})
	}
	for i := range cases {
		entities = append(entities, scannedEntity{EntityCase, cases[i].ID, &cases[i]})
	}
	for i := range applications {
		entities = append(entities, scannedEntity{EntityApplication, applications[i].ID, &applications[i]})
	}
	for i := range jobs {
		entities = append(entities, scannedEntity{EntityJob, jobs[i].ID, &jobs[i]})
	}
	for i := range retainers {
		entities = append(entities, scannedEntity{EntityRetainer, retainers[i].ID, &retainers[i]})
	}
	for i := range feedback {
		entities = append(entities, scannedEntity{EntityFeedback, feedback[i].ID, &feedback[i]})
	}
	for i := range reminders {
		entities = append(entities, scannedEntity{EntityReminder, reminders[i].ID, &reminders[i]})
	}
	return sc, entities, nil
}

// checkEntity runs the matching rules for one entity, consulting the TTL
// cache first.
func (ch *Checker) checkEntity(ctx context.Context, sc *scanContext, e scannedEntity) []Issue {
	cacheKey := string(e.entityType) + ":" + e.entityID
	if cached, found := ch.cache.Get(cacheKey); found {
		if issues, ok := cached.([]Issue); ok {
			return issues
		}
	}

	var issues []Issue
	for _, rule := range ch.rulesFor(e.entityType) {
		issues = append(issues, rule.Validate(ctx, sc, e.value)...)
	}
	ch.cache.SetDefault(cacheKey, issues)
	return issues
}

func (ch *Checker) rulesFor(entityType EntityType) []Rule {
	var matched []Rule
	for _, rule := range ch.rules {
		if rule.EntityType == entityType {
			matched = append(matched, rule)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority < matched[j].Priority
	})
	return matched
}
