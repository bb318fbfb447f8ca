package rolesync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

type MockMemberSource struct{ mock.Mock }

func (m *MockMemberSource) GuildMembers(ctx context.Context, guildID string) ([]Member, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Member), args.Error(1)
}

type MockRoleManager struct{ mock.Mock }

func (m *MockRoleManager) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
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

type MockAuditSink struct{ mock.Mock }

func (m *MockAuditSink) Add(ctx context.Context, entry *domain.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

// testResolver treats role ids of the form "role:<staff role>" as staff roles.
func testResolver(guildID, roleID string) (domain.StaffRole, bool) {
	const prefix = "role:"
	if len(roleID) <= len(prefix) || roleID[:len(prefix)] != prefix {
		return "", false
	}
	return domain.ParseStaffRole(roleID[len(prefix):])
}

func newTestDetector(members *MockMemberSource, roles *MockRoleManager, notifier *MockNotifier, audit *MockAuditSink) *Detector {
	return NewDetector(members, roles, testResolver, notifier, audit, zap.NewNop())
}

func TestDetectMemberSingleStaffRoleNoConflict(t *testing.T) {
	d := newTestDetector(&MockMemberSource{}, &MockRoleManager{}, &MockNotifier{}, &MockAuditSink{})

	_, conflicted := d.DetectMember("g", "u", []string{"role:MANAGING_PARTNER", "plain-discord-role"})

	assert.False(t, conflicted)
	assert.Empty(t, d.History("g"))
}

func TestDetectMemberConflictRecorded(t *testing.T) {
	d := newTestDetector(&MockMemberSource{}, &MockRoleManager{}, &MockNotifier{}, &MockAuditSink{})

	record, conflicted := d.DetectMember("g", "u", []string{
		"role:MANAGING_PARTNER", "role:PARALEGAL", "unrelated",
	})

	require.True(t, conflicted)
	assert.Equal(t, domain.RoleManagingPartner, record.HighestRole)
	assert.Equal(t, domain.SeverityHigh, record.Severity)

	history := d.History("g")
	require.Len(t, history, 1)
	assert.Equal(t, "u", history[0].UserID)
}

func TestHistoryIsBoundedRing(t *testing.T) {
	d := newTestDetector(&MockMemberSource{}, &MockRoleManager{}, &MockNotifier{}, &MockAuditSink{})

	for i := 0; i < historyCapacity+10; i++ {
		_, ok := d.DetectMember("g", fmt.Sprintf("u%d", i), []string{
			"role:MANAGING_PARTNER", "role:PARALEGAL",
		})
		require.True(t, ok)
	}

	history := d.History("g")
	require.Len(t, history, historyCapacity)
	assert.Equal(t, "u10", history[0].UserID, "oldest entries are evicted first")
	assert.Equal(t, fmt.Sprintf("u%d", historyCapacity+9), history[len(history)-1].UserID)
}

func TestHistoryIsPerGuild(t *testing.T) {
	d := newTestDetector(&MockMemberSource{}, &MockRoleManager{}, &MockNotifier{}, &MockAuditSink{})

	_, ok := d.DetectMember("g1", "u", []string{"role:SENIOR_PARTNER", "role:PARALEGAL"})
	require.True(t, ok)

	assert.Len(t, d.History("g1"), 1)
	assert.Empty(t, d.History("g2"))
}

func TestScanGuildCollectsConflicts(t *testing.T) {
	members := &MockMemberSource{}
	members.On("GuildMembers", mock.Anything, "g").Return([]Member{
		{UserID: "clean", RoleIDs: []string{"role:PARALEGAL"}},
		{UserID: "conflicted", RoleIDs: []string{"role:MANAGING_PARTNER", "role:PARALEGAL"}},
	}, nil)

	d := newTestDetector(members, &MockRoleManager{}, &MockNotifier{}, &MockAuditSink{})
	conflicts, err := d.ScanGuild(context.Background(), "g")

	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "conflicted", conflicts[0].UserID)
	members.AssertExpectations(t)
}

func TestScanGuildPropagatesMemberListFailure(t *testing.T) {
	members := &MockMemberSource{}
	members.On("GuildMembers", mock.Anything, "g").Return(nil, errors.New("gateway down"))

	d := newTestDetector(members, &MockRoleManager{}, &MockNotifier{}, &MockAuditSink{})
	_, err := d.ScanGuild(context.Background(), "g")

	assert.Error(t, err)
}

func TestScanGuildStopsOnCanceledContext(t *testing.T) {
	guildMembers := make([]Member, scanBatchSize+1)
	for i := range guildMembers {
		guildMembers[i] = Member{UserID: fmt.Sprintf("u%d", i)}
	}
	members := &MockMemberSource{}
	members.On("GuildMembers", mock.Anything, "g").Return(guildMembers, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDetector(members, &MockRoleManager{}, &MockNotifier{}, &MockAuditSink{})
	_, err := d.ScanGuild(ctx, "g")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveRemovesAllButHighest(t *testing.T) {
	roles := &MockRoleManager{}
	roles.On("RemoveMemberRole", mock.Anything, "g", "u", "id-jp").Return(nil)
	roles.On("RemoveMemberRole", mock.Anything, "g", "u", "id-para").Return(nil)
	notifier := &MockNotifier{}
	notifier.On("DMUser", "u", mock.Anything).Return(nil)
	audit := &MockAuditSink{}
	audit.On("Add", mock.Anything, mock.MatchedBy(func(entry *domain.AuditLog) bool {
		return entry.Action == domain.AuditRoleConflictResolve && entry.TargetID == "u"
	})).Return(nil)

	d := newTestDetector(&MockMemberSource{}, roles, notifier, audit)
	record := domain.ConflictRecord{
		GuildID: "g", UserID: "u",
		ConflictingRoles: []domain.StaffRole{domain.RoleManagingPartner, domain.RoleJuniorPartner, domain.RoleParalegal},
		HighestRole:      domain.RoleManagingPartner,
		Severity:         domain.SeverityCritical,
	}
	roleIDs := map[domain.StaffRole]string{
		domain.RoleManagingPartner: "id-mp",
		domain.RoleJuniorPartner:   "id-jp",
		domain.RoleParalegal:       "id-para",
	}

	err := d.Resolve(context.Background(), record, roleIDs, "actor")

	require.NoError(t, err)
	roles.AssertNotCalled(t, "RemoveMemberRole", mock.Anything, "g", "u", "id-mp")
	roles.AssertExpectations(t)
	notifier.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestResolveContinuesPastRemovalFailure(t *testing.T) {
	roles := &MockRoleManager{}
	roles.On("RemoveMemberRole", mock.Anything, "g", "u", "id-jp").Return(errors.New("missing permission"))
	roles.On("RemoveMemberRole", mock.Anything, "g", "u", "id-para").Return(nil)
	notifier := &MockNotifier{}
	notifier.On("DMUser", "u", mock.Anything).Return(nil)
	audit := &MockAuditSink{}
	audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	d := newTestDetector(&MockMemberSource{}, roles, notifier, audit)
	record := domain.ConflictRecord{
		GuildID: "g", UserID: "u",
		ConflictingRoles: []domain.StaffRole{domain.RoleManagingPartner, domain.RoleJuniorPartner, domain.RoleParalegal},
		HighestRole:      domain.RoleManagingPartner,
	}
	roleIDs := map[domain.StaffRole]string{
		domain.RoleJuniorPartner: "id-jp",
		domain.RoleParalegal:     "id-para",
	}

	err := d.Resolve(context.Background(), record, roleIDs, "actor")

	require.NoError(t, err)
	roles.AssertExpectations(t)
}

func TestResolveDMFailureIsNotFatal(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("DMUser", "u", mock.Anything).Return(errors.New("dms closed"))
	audit := &MockAuditSink{}
	audit.On("Add", mock.Anything, mock.Anything).Return(nil)

	d := newTestDetector(&MockMemberSource{}, &MockRoleManager{}, notifier, audit)
	record := domain.ConflictRecord{
		GuildID: "g", UserID: "u",
		ConflictingRoles: []domain.StaffRole{domain.RoleSeniorPartner, domain.RoleParalegal},
		HighestRole:      domain.RoleSeniorPartner,
	}

	err := d.Resolve(context.Background(), record, nil, "actor")

	require.NoError(t, err)
	audit.AssertExpectations(t)
}
