package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/events"
	"github.com/kongdonovan/anarchy-and-associates/internal/permission"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
	"github.com/kongdonovan/anarchy-and-associates/internal/validation"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

type MockCaseRepository struct{ mock.Mock }

func (m *MockCaseRepository) Create(ctx context.Context, c *domain.Case) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCaseRepository) Update(ctx context.Context, c *domain.Case) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCaseRepository) FindByID(ctx context.Context, id string) (*domain.Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}

func (m *MockCaseRepository) FindByCaseNumber(ctx context.Context, guildID, caseNumber string) (*domain.Case, error) {
	args := m.Called(ctx, guildID, caseNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}

func (m *MockCaseRepository) FindByClient(ctx context.Context, clientID string) ([]domain.Case, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Case), args.Error(1)
}

func (m *MockCaseRepository) FindByFilters(ctx context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Case), args.Error(1)
}

func (m *MockCaseRepository) FindByLawyer(ctx context.Context, guildID, userID string) ([]domain.Case, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Case), args.Error(1)
}

func (m *MockCaseRepository) CountByGuildAndYear(ctx context.Context, guildID string, year int) (int, error) {
	args := m.Called(ctx, guildID, year)
	return args.Int(0), args.Error(1)
}

type MockChannelLifecycle struct{ mock.Mock }

func (m *MockChannelLifecycle) CreateCaseChannel(ctx context.Context, guildID, caseNumber string) (string, error) {
	args := m.Called(ctx, guildID, caseNumber)
	return args.String(0), args.Error(1)
}

func (m *MockChannelLifecycle) ArchiveCaseChannel(ctx context.Context, guildID, channelID string) error {
	return m.Called(ctx, guildID, channelID).Error(0)
}

type caseFixture struct {
	svc      *CaseService
	cases    *MockCaseRepository
	staff    *MockStaffRepository
	audit    *MockAuditRepository
	configs  *MockGuildConfigProvider
	channels *MockChannelLifecycle
	notifier *MockNotifier
}

func newCaseFixture(t *testing.T) *caseFixture {
	t.Helper()
	f := &caseFixture{
		cases:    &MockCaseRepository{},
		staff:    &MockStaffRepository{},
		audit:    &MockAuditRepository{},
		configs:  &MockGuildConfigProvider{},
		channels: &MockChannelLifecycle{},
		notifier: &MockNotifier{},
	}
	logger := zap.NewNop()
	evaluator := permission.NewEvaluator(f.configs, logger)
	validator := validation.NewValidator(evaluator, f.staff, f.cases, nil, logger)
	f.svc = NewCaseService(CaseDependencies{
		CaseRepo:   f.cases,
		AuditRepo:  f.audit,
		Validator:  validator,
		Channels:   f.channels,
		Notifier:   f.notifier,
		Dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		Logger:     logger,
	})
	return f
}

func caseStaffCtx() domain.PermissionContext {
	return domain.PermissionContext{
		GuildID:   "g",
		UserID:    "caseworker",
		UserRoles: []string{"case-role"},
	}
}

func caseStaffConfig() *domain.GuildConfig {
	cfg := domain.DefaultGuildConfig("g")
	cfg.Permissions[domain.PermissionCase] = []string{"case-role"}
	return cfg
}

func activeCases(n int) []domain.Case {
	out := make([]domain.Case, n)
	for i := range out {
		out[i] = domain.Case{GuildID: "g", Status: domain.CaseStatusInProgress}
	}
	return out
}

func TestOpenCreatesNumberedCaseWithChannel(t *testing.T) {
	f := newCaseFixture(t)
	f.cases.On("FindByClient", mock.Anything, "client").Return(activeCases(1), nil)
	f.cases.On("CountByGuildAndYear", mock.Anything, "g", time.Now().Year()).Return(7, nil)
	f.cases.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cases.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.channels.On("CreateCaseChannel", mock.Anything, "g", mock.Anything).Return("chan-1", nil)
	f.audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.Open(context.Background(), caseStaffCtx(), OpenRequest{
		ClientID:       "client",
		ClientUsername: "lawless_larry",
		Title:          "The crown v. larry",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.FormatCaseNumber(time.Now().Year(), 8, "lawless_larry"), c.CaseNumber)
	assert.Equal(t, domain.CaseStatusPending, c.Status)
	assert.Equal(t, domain.CasePriorityMedium, c.Priority, "priority defaults to medium")
	assert.Equal(t, "chan-1", c.ChannelID)
	f.cases.AssertExpectations(t)
}

func TestOpenRejectedAtClientCaseLimit(t *testing.T) {
	f := newCaseFixture(t)
	f.cases.On("FindByClient", mock.Anything, "client").Return(activeCases(domain.MaxActiveCasesPerClient), nil)

	_, err := f.svc.Open(context.Background(), caseStaffCtx(), OpenRequest{ClientID: "client"})

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", de.Code)
	f.cases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOpenSucceedsWhenChannelCreationFails(t *testing.T) {
	f := newCaseFixture(t)
	f.cases.On("FindByClient", mock.Anything, "client").Return(activeCases(0), nil)
	f.cases.On("CountByGuildAndYear", mock.Anything, "g", time.Now().Year()).Return(0, nil)
	f.cases.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.channels.On("CreateCaseChannel", mock.Anything, "g", mock.Anything).Return("", errors.New("missing channel permission"))
	f.audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.Open(context.Background(), caseStaffCtx(), OpenRequest{
		ClientID:       "client",
		ClientUsername: "larry",
	})

	require.NoError(t, err, "channel creation is best-effort")
	assert.Empty(t, c.ChannelID)
	f.cases.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAssignFirstLawyerBecomesLead(t *testing.T) {
	f := newCaseFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(caseStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "lawyer").Return(&domain.Staff{
		UserID: "lawyer", Status: domain.StaffStatusActive, Role: domain.RoleJuniorAssociate,
	}, nil)
	f.cases.On("FindByID", mock.Anything, "case-1").Return(&domain.Case{
		ID: "case-1", GuildID: "g", CaseNumber: "2026-0001-larry",
		Status: domain.CaseStatusPending, ChannelID: "chan-1",
	}, nil)
	f.cases.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("SendToChannel", "chan-1", mock.Anything).Return(nil)
	f.audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.Assign(context.Background(), caseStaffCtx(), "case-1", "lawyer")

	require.NoError(t, err)
	assert.Equal(t, "lawyer", c.LeadAttorneyID)
	assert.Equal(t, domain.CaseStatusInProgress, c.Status)
	f.notifier.AssertExpectations(t)
}

func TestAssignRejectsNonLawyer(t *testing.T) {
	f := newCaseFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(caseStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "clerk").Return(&domain.Staff{
		UserID: "clerk", Status: domain.StaffStatusActive, Role: domain.RoleParalegal,
	}, nil)

	_, err := f.svc.Assign(context.Background(), caseStaffCtx(), "case-1", "clerk")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "lacks required permissions")
	f.cases.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAssignDeniedWithoutCasePermission(t *testing.T) {
	f := newCaseFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(domain.DefaultGuildConfig("g"), nil)

	_, err := f.svc.Assign(context.Background(), caseStaffCtx(), "case-1", "lawyer")

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "PERMISSION_DENIED", de.Code)
}

func TestUnassignUnknownLawyerIsNoop(t *testing.T) {
	f := newCaseFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(caseStaffConfig(), nil)
	f.cases.On("FindByID", mock.Anything, "case-1").Return(&domain.Case{
		ID: "case-1", GuildID: "g", Status: domain.CaseStatusInProgress,
		AssignedLawyerIDs: []string{"someone-else"},
	}, nil)

	c, err := f.svc.Unassign(context.Background(), caseStaffCtx(), "case-1", "stranger")

	require.NoError(t, err)
	assert.Equal(t, []string{"someone-else"}, c.AssignedLawyerIDs)
	f.cases.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCloseArchivesChannelAndRejectsDoubleClose(t *testing.T) {
	f := newCaseFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(caseStaffConfig(), nil)
	f.cases.On("FindByID", mock.Anything, "case-1").Return(&domain.Case{
		ID: "case-1", GuildID: "g", CaseNumber: "2026-0001-larry",
		ClientID: "client", Status: domain.CaseStatusInProgress, ChannelID: "chan-1",
	}, nil).Once()
	f.cases.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.channels.On("ArchiveCaseChannel", mock.Anything, "g", "chan-1").Return(nil)
	f.audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.Close(context.Background(), caseStaffCtx(), "case-1", domain.CaseResultWin, "settled on the courthouse steps")
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusClosed, c.Status)
	f.channels.AssertExpectations(t)

	f.cases.On("FindByID", mock.Anything, "case-1").Return(c, nil)
	_, err = f.svc.Close(context.Background(), caseStaffCtx(), "case-1", domain.CaseResultWin, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already closed")
}

func TestCaseLookupScopedToGuild(t *testing.T) {
	f := newCaseFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(caseStaffConfig(), nil)
	f.cases.On("FindByID", mock.Anything, "case-1").Return(&domain.Case{
		ID: "case-1", GuildID: "other-guild", Status: domain.CaseStatusInProgress,
	}, nil)

	_, err := f.svc.Unassign(context.Background(), caseStaffCtx(), "case-1", "lawyer")

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NOT_FOUND", de.Code)
}
