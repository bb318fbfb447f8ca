package integrity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
)

// In-memory fakes over the repository interfaces. Only the read surface the
// checker sweeps has behavior; writes are recorded for assertions.

type fakeStaffRepo struct {
	staff []domain.Staff
}

func (f *fakeStaffRepo) Create(ctx context.Context, s *domain.Staff) error { return nil }
func (f *fakeStaffRepo) Update(ctx context.Context, s *domain.Staff) error { return nil }
func (f *fakeStaffRepo) FindByUserID(ctx context.Context, guildID, userID string) (*domain.Staff, error) {
	return nil, nil
}
func (f *fakeStaffRepo) FindByGuildID(ctx context.Context, guildID string, filter repository.StaffFilter) ([]domain.Staff, error) {
	return f.staff, nil
}
func (f *fakeStaffRepo) CountActiveByRole(ctx context.Context, guildID string, role domain.StaffRole) (int, error) {
	return 0, nil
}
func (f *fakeStaffRepo) FindActiveByRoles(ctx context.Context, guildID string, roles []domain.StaffRole) ([]domain.Staff, error) {
	return nil, nil
}

type fakeCaseRepo struct {
	cases   []domain.Case
	updated []domain.Case
}

func (f *fakeCaseRepo) Create(ctx context.Context, c *domain.Case) error { return nil }
func (f *fakeCaseRepo) Update(ctx context.Context, c *domain.Case) error {
	f.updated = append(f.updated, *c)
	return nil
}
func (f *fakeCaseRepo) FindByID(ctx context.Context, id string) (*domain.Case, error) {
	return nil, nil
}
func (f *fakeCaseRepo) FindByCaseNumber(ctx context.Context, guildID, caseNumber string) (*domain.Case, error) {
	return nil, nil
}
func (f *fakeCaseRepo) FindByClient(ctx context.Context, clientID string) ([]domain.Case, error) {
	return nil, nil
}
func (f *fakeCaseRepo) FindByFilters(ctx context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	return f.cases, nil
}
func (f *fakeCaseRepo) FindByLawyer(ctx context.Context, guildID, userID string) ([]domain.Case, error) {
	return nil, nil
}
func (f *fakeCaseRepo) CountByGuildAndYear(ctx context.Context, guildID string, year int) (int, error) {
	return 0, nil
}

type fakeApplicationRepo struct{ apps []domain.Application }

func (f *fakeApplicationRepo) Create(ctx context.Context, a *domain.Application) error { return nil }
func (f *fakeApplicationRepo) Update(ctx context.Context, a *domain.Application) error { return nil }
func (f *fakeApplicationRepo) FindByGuildID(ctx context.Context, guildID string) ([]domain.Application, error) {
	return f.apps, nil
}

type fakeJobRepo struct{ jobs []domain.Job }

func (f *fakeJobRepo) Create(ctx context.Context, j *domain.Job) error { return nil }
func (f *fakeJobRepo) Update(ctx context.Context, j *domain.Job) error { return nil }
func (f *fakeJobRepo) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	return nil, nil
}
func (f *fakeJobRepo) FindByGuildID(ctx context.Context, guildID string) ([]domain.Job, error) {
	return f.jobs, nil
}

type fakeRetainerRepo struct{ retainers []domain.Retainer }

func (f *fakeRetainerRepo) Create(ctx context.Context, r *domain.Retainer) error { return nil }
func (f *fakeRetainerRepo) Update(ctx context.Context, r *domain.Retainer) error { return nil }
func (f *fakeRetainerRepo) FindByID(ctx context.Context, id string) (*domain.Retainer, error) {
	return nil, nil
}
func (f *fakeRetainerRepo) FindByClient(ctx context.Context, guildID, clientID string) ([]domain.Retainer, error) {
	return nil, nil
}
func (f *fakeRetainerRepo) FindByGuildID(ctx context.Context, guildID string) ([]domain.Retainer, error) {
	return f.retainers, nil
}

type fakeFeedbackRepo struct{ feedback []domain.Feedback }

func (f *fakeFeedbackRepo) Create(ctx context.Context, fb *domain.Feedback) error { return nil }
func (f *fakeFeedbackRepo) FindByGuildID(ctx context.Context, guildID string) ([]domain.Feedback, error) {
	return f.feedback, nil
}

type fakeReminderRepo struct{ reminders []domain.Reminder }

func (f *fakeReminderRepo) Create(ctx context.Context, r *domain.Reminder) error { return nil }
func (f *fakeReminderRepo) Update(ctx context.Context, r *domain.Reminder) error { return nil }
func (f *fakeReminderRepo) FindByGuildID(ctx context.Context, guildID string) ([]domain.Reminder, error) {
	return f.reminders, nil
}
func (f *fakeReminderRepo) FindDue(ctx context.Context, before time.Time) ([]domain.Reminder, error) {
	return nil, nil
}

type fakeAuditSink struct{ entries []domain.AuditLog }

func (f *fakeAuditSink) Add(ctx context.Context, entry *domain.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

type fakeChannels struct{ existing map[string]bool }

func (f *fakeChannels) ChannelExists(channelID string) bool { return f.existing[channelID] }

func newTestChecker(cases *fakeCaseRepo, staff *fakeStaffRepo, apps *fakeApplicationRepo, jobs *fakeJobRepo, retainers *fakeRetainerRepo, feedback *fakeFeedbackRepo, reminders *fakeReminderRepo, audit *fakeAuditSink, channels *fakeChannels) *Checker {
	return NewChecker(Repositories{
		Staff:        staff,
		Cases:        cases,
		Applications: apps,
		Jobs:         jobs,
		Retainers:    retainers,
		Feedback:     feedback,
		Reminders:    reminders,
	}, audit, channels, Options{
		CacheTTL:          time.Minute,
		RepairMaxAttempts: 3,
		RepairBackoff:     time.Millisecond,
	}, zap.NewNop())
}

func emptyFakes() (*fakeCaseRepo, *fakeStaffRepo, *fakeApplicationRepo, *fakeJobRepo, *fakeRetainerRepo, *fakeFeedbackRepo, *fakeReminderRepo, *fakeAuditSink, *fakeChannels) {
	return &fakeCaseRepo{}, &fakeStaffRepo{}, &fakeApplicationRepo{}, &fakeJobRepo{}, &fakeRetainerRepo{},
		&fakeFeedbackRepo{}, &fakeReminderRepo{}, &fakeAuditSink{}, &fakeChannels{existing: map[string]bool{}}
}

func TestScanGuildDetectsDanglingLawyer(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	cases.cases = []domain.Case{{
		ID:                "case-1",
		GuildID:           "g",
		CaseNumber:        "2026-0001-x",
		Status:            domain.CaseStatusInProgress,
		AssignedLawyerIDs: []string{"ghost"},
		LeadAttorneyID:    "ghost",
	}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	report, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, "case-lawyers-must-be-active-staff", issue.RuleName)
	assert.Equal(t, SeverityCritical, issue.Severity)
	assert.True(t, issue.CanAutoRepair)
	assert.Equal(t, 1, report.CountsBySeverity[SeverityCritical])
	assert.Equal(t, 1, report.CountsByEntity[EntityCase])
}

func TestScanGuildDetectsInactiveLawyerAsWarning(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	staff.staff = []domain.Staff{{
		ID: "s1", GuildID: "g", UserID: "fired", Role: domain.RoleJuniorAssociate,
		Status: domain.StaffStatusTerminated,
	}}
	cases.cases = []domain.Case{{
		ID:                "case-1",
		GuildID:           "g",
		Status:            domain.CaseStatusInProgress,
		AssignedLawyerIDs: []string{"fired"},
		LeadAttorneyID:    "fired",
	}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	report, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, SeverityWarning, report.Issues[0].Severity)
	assert.False(t, report.Issues[0].CanAutoRepair)
}

func TestScanGuildDetectsMissingChannelAndTemporal(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	created := time.Now()
	closed := created.Add(-time.Hour)
	cases.cases = []domain.Case{{
		ID:        "case-1",
		GuildID:   "g",
		Status:    domain.CaseStatusClosed,
		ChannelID: "gone",
		CreatedAt: created,
		ClosedAt:  &closed,
	}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	report, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)

	names := make(map[string]Severity)
	for _, issue := range report.Issues {
		names[issue.RuleName] = issue.Severity
	}
	assert.Equal(t, SeverityWarning, names["case-channel-must-exist"])
	assert.Equal(t, SeverityCritical, names["case-closed-after-created"])
}

func TestScanGuildDetectsSelfPromotion(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	staff.staff = []domain.Staff{{
		ID: "s1", GuildID: "g", UserID: "sneaky", Role: domain.RoleSeniorPartner,
		Status: domain.StaffStatusActive,
		PromotionHistory: []domain.PromotionRecord{{
			FromRole:   domain.RoleJuniorPartner,
			ToRole:     domain.RoleSeniorPartner,
			PromotedBy: "sneaky",
			ActionType: domain.ActionPromotion,
		}},
	}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	report, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, "staff-no-self-promotion", issue.RuleName)
	assert.Equal(t, SeverityCritical, issue.Severity)
	assert.False(t, issue.CanAutoRepair, "self-promotion needs human review")
}

func TestScanGuildDetectsOrphanApplication(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	apps.apps = []domain.Application{{ID: "app-1", GuildID: "g", JobID: "missing-job"}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	report, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, "application-job-must-exist", report.Issues[0].RuleName)
}

func TestScanGuildCleanWhenConsistent(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	hired := time.Now().Add(-24 * time.Hour)
	staff.staff = []domain.Staff{{
		ID: "s1", GuildID: "g", UserID: "lawyer", Role: domain.RoleJuniorPartner,
		Status: domain.StaffStatusActive, HiredAt: hired,
	}}
	channels.existing["chan-1"] = true
	cases.cases = []domain.Case{{
		ID:                "case-1",
		GuildID:           "g",
		Status:            domain.CaseStatusInProgress,
		AssignedLawyerIDs: []string{"lawyer"},
		LeadAttorneyID:    "lawyer",
		ChannelID:         "chan-1",
		CreatedAt:         time.Now(),
	}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	report, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)

	assert.Empty(t, report.Issues)
	assert.Equal(t, 2, report.EntitiesScanned)
}

func TestRepairIssuesCriticalFirst(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)

	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	issues := []Issue{
		{RuleName: "w", Severity: SeverityWarning, CanAutoRepair: true, Repair: record("warning")},
		{RuleName: "c", Severity: SeverityCritical, CanAutoRepair: true, Repair: record("critical")},
		{RuleName: "i", Severity: SeverityInfo, CanAutoRepair: true, Repair: record("info")},
		{RuleName: "manual", Severity: SeverityCritical},
	}

	report := ch.RepairIssues(context.Background(), "g", "actor", issues, false)

	assert.Equal(t, []string{"critical", "warning", "info"}, order)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, report.Repaired, 3)
	assert.Len(t, audit.entries, 3, "every applied repair is audit-logged")
}

func TestRepairIssuesDryRunAppliesNothing(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)

	applied := false
	issues := []Issue{{
		RuleName: "c", Severity: SeverityCritical, CanAutoRepair: true,
		Repair: func(context.Context) error { applied = true; return nil },
	}}

	report := ch.RepairIssues(context.Background(), "g", "actor", issues, true)

	assert.True(t, report.DryRun)
	assert.False(t, applied)
	assert.Len(t, report.Repaired, 1, "dry run reports what would be repaired")
	assert.Empty(t, audit.entries)
}

func TestRepairIssuesRetriesWithBackoff(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)

	attempts := 0
	issues := []Issue{{
		RuleName: "flaky", Severity: SeverityCritical, CanAutoRepair: true,
		Repair: func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		},
	}}

	report := ch.RepairIssues(context.Background(), "g", "actor", issues, false)

	assert.Equal(t, 3, attempts)
	assert.Len(t, report.Repaired, 1)
	assert.Empty(t, report.FailedRepairs)
}

func TestRepairIssuesCollectsExhaustedFailures(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)

	sticky := errors.New("permanent")
	good := false
	issues := []Issue{
		{RuleName: "bad", Severity: SeverityCritical, CanAutoRepair: true,
			Repair: func(context.Context) error { return sticky }},
		{RuleName: "good", Severity: SeverityWarning, CanAutoRepair: true,
			Repair: func(context.Context) error { good = true; return nil }},
	}

	report := ch.RepairIssues(context.Background(), "g", "actor", issues, false)

	require.Len(t, report.FailedRepairs, 1)
	assert.ErrorIs(t, report.FailedRepairs[0].Err, sticky)
	assert.True(t, good, "failure of one repair must not block the rest")
	assert.Len(t, report.Repaired, 1)
}

func TestScanCacheFlushedAfterRepair(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	cases.cases = []domain.Case{{
		ID:                "case-1",
		GuildID:           "g",
		Status:            domain.CaseStatusInProgress,
		AssignedLawyerIDs: []string{"ghost"},
		LeadAttorneyID:    "ghost",
	}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	first, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)
	require.Len(t, first.Issues, 1)

	report := ch.RepairIssues(context.Background(), "g", "actor", first.Issues, false)
	require.Len(t, report.Repaired, 1)
	require.Len(t, cases.updated, 1)

	// The repaired copy removed the dangling lawyer; serve it on rescan.
	cases.cases = []domain.Case{cases.updated[0]}

	second, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)
	assert.Empty(t, second.Issues, "cache must not serve pre-repair results")
}

func TestScanCacheFlushedEvenWhenRepairsFail(t *testing.T) {
	cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels := emptyFakes()
	cases.cases = []domain.Case{{
		ID:                "case-1",
		GuildID:           "g",
		Status:            domain.CaseStatusInProgress,
		AssignedLawyerIDs: []string{"ghost"},
		LeadAttorneyID:    "ghost",
	}}

	ch := newTestChecker(cases, staff, apps, jobs, retainers, feedback, reminders, audit, channels)
	first, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)
	require.Len(t, first.Issues, 1)

	failing := []Issue{{
		RuleName: "bad", Severity: SeverityCritical, CanAutoRepair: true,
		Repair: func(context.Context) error { return errors.New("permanent") },
	}}
	report := ch.RepairIssues(context.Background(), "g", "actor", failing, false)
	require.Empty(t, report.Repaired)

	// The operator fixes the document out of band; a rescan must see it.
	cases.cases = []domain.Case{{
		ID:      "case-1",
		GuildID: "g",
		Status:  domain.CaseStatusInProgress,
	}}

	second, err := ch.ScanGuild(context.Background(), "g")
	require.NoError(t, err)
	assert.Empty(t, second.Issues, "non-dry pass flushes the cache regardless of outcome")
}
