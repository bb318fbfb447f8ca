package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/cascade"
	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/events"
	"github.com/kongdonovan/anarchy-and-associates/internal/permission"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
	"github.com/kongdonovan/anarchy-and-associates/internal/validation"
	apperrors "github.com/kongdonovan/anarchy-and-associates/pkg/util"
)

type MockStaffRepository struct{ mock.Mock }

func (m *MockStaffRepository) Create(ctx context.Context, s *domain.Staff) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStaffRepository) Update(ctx context.Context, s *domain.Staff) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStaffRepository) FindByUserID(ctx context.Context, guildID, userID string) (*domain.Staff, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *MockStaffRepository) FindByGuildID(ctx context.Context, guildID string, filter repository.StaffFilter) ([]domain.Staff, error) {
	args := m.Called(ctx, guildID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Staff), args.Error(1)
}

func (m *MockStaffRepository) CountActiveByRole(ctx context.Context, guildID string, role domain.StaffRole) (int, error) {
	args := m.Called(ctx, guildID, role)
	return args.Int(0), args.Error(1)
}

func (m *MockStaffRepository) FindActiveByRoles(ctx context.Context, guildID string, roles []domain.StaffRole) ([]domain.Staff, error) {
	args := m.Called(ctx, guildID, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Staff), args.Error(1)
}

type MockAuditRepository struct{ mock.Mock }

func (m *MockAuditRepository) Add(ctx context.Context, entry *domain.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAuditRepository) ListRecent(ctx context.Context, guildID string, limit int64) ([]domain.AuditLog, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

type MockGuildConfigProvider struct{ mock.Mock }

func (m *MockGuildConfigProvider) Ensure(ctx context.Context, guildID string) (*domain.GuildConfig, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigProvider) Update(ctx context.Context, cfg *domain.GuildConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockGuildConfigProvider) SetPermissionRoles(ctx context.Context, guildID string, action domain.PermissionAction, roleIDs []string) error {
	return m.Called(ctx, guildID, action, roleIDs).Error(0)
}

type MockCaseStore struct{ mock.Mock }

func (m *MockCaseStore) FindByLawyer(ctx context.Context, guildID, userID string) ([]domain.Case, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Case), args.Error(1)
}

func (m *MockCaseStore) Update(ctx context.Context, c *domain.Case) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCaseStore) FindByClient(ctx context.Context, clientID string) ([]domain.Case, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Case), args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) DMUser(userID, content string) error {
	return m.Called(userID, content).Error(0)
}

func (m *MockNotifier) SendToChannel(channelID, content string) error {
	return m.Called(channelID, content).Error(0)
}

func (m *MockNotifier) SendEmbedToChannel(channelID string, embed *discordgo.MessageEmbed) error {
	return m.Called(channelID, embed).Error(0)
}

type MockSyncer struct{ mock.Mock }

func (m *MockSyncer) SyncMemberPermissions(ctx context.Context, guildID, userID string, newRole domain.StaffRole) error {
	return m.Called(ctx, guildID, userID, newRole).Error(0)
}

type staffFixture struct {
	svc      *StaffService
	staff    *MockStaffRepository
	audit    *MockAuditRepository
	configs  *MockGuildConfigProvider
	cases    *MockCaseStore
	notifier *MockNotifier
	syncer   *MockSyncer
	events   events.Dispatcher
}

func newStaffFixture(t *testing.T) *staffFixture {
	t.Helper()
	f := &staffFixture{
		staff:    &MockStaffRepository{},
		audit:    &MockAuditRepository{},
		configs:  &MockGuildConfigProvider{},
		cases:    &MockCaseStore{},
		notifier: &MockNotifier{},
		syncer:   &MockSyncer{},
		events:   events.NewInMemoryDispatcher(zap.NewNop()),
	}
	logger := zap.NewNop()
	evaluator := permission.NewEvaluator(f.configs, logger)
	validator := validation.NewValidator(evaluator, f.staff, f.cases, nil, logger)
	handler := cascade.NewHandler(cascade.Dependencies{
		Cases:    f.cases,
		Staff:    f.staff,
		Notifier: f.notifier,
		Audit:    f.audit,
		Syncer:   f.syncer,
		Logger:   logger,
	})
	f.svc = NewStaffService(StaffDependencies{
		StaffRepo:  f.staff,
		AuditRepo:  f.audit,
		Validator:  validator,
		Cascade:    handler,
		Dispatcher: f.events,
		Logger:     logger,
	})
	return f
}

func seniorStaffCtx() domain.PermissionContext {
	return domain.PermissionContext{
		GuildID:   "g",
		UserID:    "hr-user",
		UserRoles: []string{"senior-staff-role"},
	}
}

func seniorStaffConfig() *domain.GuildConfig {
	cfg := domain.DefaultGuildConfig("g")
	cfg.Permissions[domain.PermissionSeniorStaff] = []string{"senior-staff-role"}
	return cfg
}

func TestHireCreatesStaffRecord(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "recruit").Return(nil, nil)
	f.staff.On("CountActiveByRole", mock.Anything, "g", domain.RoleParalegal).Return(2, nil)
	f.staff.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Add", mock.Anything, mock.MatchedBy(func(e *domain.AuditLog) bool {
		return e.Action == domain.AuditStaffHired && e.TargetID == "recruit"
	})).Return(nil)

	var published []events.Event
	f.events.Subscribe(events.EventStaffHired, func(ctx context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	staff, err := f.svc.Hire(context.Background(), seniorStaffCtx(), HireRequest{
		UserID:         "recruit",
		RobloxUsername: "recruit_rblx",
		Role:           domain.RoleParalegal,
		Reason:         "passed the bar... eventually",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StaffStatusActive, staff.Status)
	assert.Equal(t, "hr-user", staff.HiredBy)
	require.Len(t, staff.PromotionHistory, 1)
	assert.Equal(t, domain.ActionHire, staff.PromotionHistory[0].ActionType)
	require.Len(t, published, 1)
	f.staff.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestHireDeniedWithoutPermission(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(domain.DefaultGuildConfig("g"), nil)

	_, err := f.svc.Hire(context.Background(), seniorStaffCtx(), HireRequest{
		UserID: "recruit",
		Role:   domain.RoleParalegal,
	})

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "PERMISSION_DENIED", de.Code)
	f.staff.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything, mock.Anything)
}

func TestHireRejectsActiveStaff(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "recruit").Return(&domain.Staff{
		UserID: "recruit", Status: domain.StaffStatusActive, Role: domain.RoleParalegal,
	}, nil)

	_, err := f.svc.Hire(context.Background(), seniorStaffCtx(), HireRequest{
		UserID: "recruit",
		Role:   domain.RoleParalegal,
	})

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", de.Code)
	f.staff.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHireAtRoleLimitFails(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "recruit").Return(nil, nil)
	f.staff.On("CountActiveByRole", mock.Anything, "g", domain.RoleManagingPartner).Return(1, nil)

	_, err := f.svc.Hire(context.Background(), seniorStaffCtx(), HireRequest{
		UserID: "recruit",
		Role:   domain.RoleManagingPartner,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Maximum limit of 1 reached")
	f.staff.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHireOwnerBypassesRoleLimitWithAudit(t *testing.T) {
	f := newStaffFixture(t)
	pctx := domain.PermissionContext{GuildID: "g", UserID: "owner", IsGuildOwner: true}
	f.staff.On("FindByUserID", mock.Anything, "g", "recruit").Return(nil, nil)
	f.staff.On("CountActiveByRole", mock.Anything, "g", domain.RoleManagingPartner).Return(1, nil)
	f.staff.On("Create", mock.Anything, mock.Anything).Return(nil)
	bypassLogged := false
	f.audit.On("Add", mock.Anything, mock.MatchedBy(func(e *domain.AuditLog) bool {
		if e.Action == domain.AuditValidationBypass {
			bypassLogged = true
		}
		return true
	})).Return(nil)

	staff, err := f.svc.Hire(context.Background(), pctx, HireRequest{
		UserID: "recruit",
		Role:   domain.RoleManagingPartner,
		Bypass: true,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleManagingPartner, staff.Role)
	assert.True(t, bypassLogged, "owner bypass must leave an audit entry")
}

func TestHireRehireKeepsHistory(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "boomerang").Return(&domain.Staff{
		ID:     "staff-1",
		UserID: "boomerang",
		Status: domain.StaffStatusTerminated,
		PromotionHistory: []domain.PromotionRecord{
			{ToRole: domain.RoleParalegal, ActionType: domain.ActionHire},
			{FromRole: domain.RoleParalegal, ActionType: domain.ActionFire},
		},
	}, nil)
	f.staff.On("CountActiveByRole", mock.Anything, "g", domain.RoleParalegal).Return(0, nil)
	f.staff.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	staff, err := f.svc.Hire(context.Background(), seniorStaffCtx(), HireRequest{
		UserID: "boomerang",
		Role:   domain.RoleParalegal,
	})

	require.NoError(t, err)
	assert.Equal(t, "staff-1", staff.ID, "rehire reuses the existing document")
	assert.Len(t, staff.PromotionHistory, 3)
	f.staff.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFireTerminatesAndCascades(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "target").Return(&domain.Staff{
		UserID: "target", Status: domain.StaffStatusActive, Role: domain.RoleParalegal,
	}, nil)
	f.staff.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.syncer.On("SyncMemberPermissions", mock.Anything, "g", "target", mock.Anything).Return(nil)
	f.audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	staff, err := f.svc.Fire(context.Background(), seniorStaffCtx(), "target", "repeated tardiness")

	require.NoError(t, err)
	assert.Equal(t, domain.StaffStatusTerminated, staff.Status)
	last := staff.PromotionHistory[len(staff.PromotionHistory)-1]
	assert.Equal(t, domain.ActionFire, last.ActionType)
	f.syncer.AssertExpectations(t)
}

func TestFireManagingPartnerRequiresOwner(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "boss").Return(&domain.Staff{
		UserID: "boss", Status: domain.StaffStatusActive, Role: domain.RoleManagingPartner,
	}, nil)

	_, err := f.svc.Fire(context.Background(), seniorStaffCtx(), "boss", "coup attempt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "guild owner")
	f.staff.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestChangeRoleRejectsSelfChange(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	pctx := seniorStaffCtx()

	_, err := f.svc.ChangeRole(context.Background(), pctx, pctx.UserID, domain.RoleManagingPartner, "", false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot change their own role")
}

func TestChangeRoleSameRoleIsNoop(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "target").Return(&domain.Staff{
		UserID: "target", Status: domain.StaffStatusActive, Role: domain.RoleJuniorPartner,
	}, nil)

	staff, err := f.svc.ChangeRole(context.Background(), seniorStaffCtx(), "target", domain.RoleJuniorPartner, "", false)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleJuniorPartner, staff.Role)
	f.staff.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestChangeRoleDemotionSkipsLimitCheck(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "target").Return(&domain.Staff{
		UserID: "target", Status: domain.StaffStatusActive, Role: domain.RoleSeniorAssociate,
	}, nil)
	f.staff.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.syncer.On("SyncMemberPermissions", mock.Anything, "g", "target", domain.RoleJuniorAssociate).Return(nil)
	f.audit.On("Add", mock.Anything, mock.MatchedBy(func(e *domain.AuditLog) bool {
		return e.Action == domain.AuditStaffDemoted
	})).Return(nil)

	staff, err := f.svc.ChangeRole(context.Background(), seniorStaffCtx(), "target", domain.RoleJuniorAssociate, "restructure", false)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleJuniorAssociate, staff.Role)
	f.staff.AssertNotCalled(t, "CountActiveByRole", mock.Anything, mock.Anything, mock.Anything)
	last := staff.PromotionHistory[len(staff.PromotionHistory)-1]
	assert.Equal(t, domain.ActionDemotion, last.ActionType)
}

func TestChangeRolePromotionEnforcesLimit(t *testing.T) {
	f := newStaffFixture(t)
	f.configs.On("Ensure", mock.Anything, "g").Return(seniorStaffConfig(), nil)
	f.staff.On("FindByUserID", mock.Anything, "g", "target").Return(&domain.Staff{
		UserID: "target", Status: domain.StaffStatusActive, Role: domain.RoleSeniorPartner,
	}, nil)
	f.staff.On("CountActiveByRole", mock.Anything, "g", domain.RoleManagingPartner).Return(1, nil)

	_, err := f.svc.ChangeRole(context.Background(), seniorStaffCtx(), "target", domain.RoleManagingPartner, "", false)

	require.Error(t, err)
	f.staff.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
