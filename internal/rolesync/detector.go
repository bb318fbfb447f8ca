package rolesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/notify"
)

// Member is the slice of Discord member state the detector needs.
type Member struct {
	UserID  string
	RoleIDs []string
}

// MemberSource lists guild members from the gateway.
type MemberSource interface {
	GuildMembers(ctx context.Context, guildID string) ([]Member, error)
}

// RoleManager mutates a member's Discord roles.
type RoleManager interface {
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
}

// RoleResolver maps a Discord role id to a firm staff role, when it is one.
type RoleResolver func(guildID, roleID string) (domain.StaffRole, bool)

// AuditSink records conflict resolutions.
type AuditSink interface {
	Add(ctx context.Context, entry *domain.AuditLog) error
}

const (
	historyCapacity = 100
	scanBatchSize   = 50
	scanBatchPause  = time.Second
)

// Detector finds members holding multiple staff roles at once. Conflict
// history is a bounded per-guild ring buffer owned by the instance so tests
// can construct isolated detectors.
type Detector struct {
	members  MemberSource
	roles    RoleManager
	resolver RoleResolver
	notifier notify.Notifier
	audit    AuditSink
	logger   *zap.Logger

	mu      sync.Mutex
	history map[string][]domain.ConflictRecord
}

// NewDetector creates the detector.
func NewDetector(members MemberSource, roles RoleManager, resolver RoleResolver, notifier notify.Notifier, audit AuditSink, logger *zap.Logger) *Detector {
	return &Detector{
		members:  members,
		roles:    roles,
		resolver: resolver,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		history:  make(map[string][]domain.ConflictRecord),
	}
}

// DetectMember classifies one member's Discord roles. A detected conflict is
// recorded in the guild's history buffer.
func (d *Detector) DetectMember(guildID, userID string, roleIDs []string) (domain.ConflictRecord, bool) {
	var staffRoles []domain.StaffRole
	for _, roleID := range roleIDs {
		if role, ok := d.resolver(guildID, roleID); ok {
			staffRoles = append(staffRoles, role)
		}
	}
	record, conflicted := domain.ClassifyConflict(guildID, userID, staffRoles, time.Now())
	if conflicted {
		d.remember(record)
	}
	return record, conflicted
}

// ScanGuild sweeps every member in bounded batches, pausing between batches
// to respect Discord's rate limits. The pause is throttling only, not
// synchronization.
func (d *Detector) ScanGuild(ctx context.Context, guildID string) ([]domain.ConflictRecord, error) {
	members, err := d.members.GuildMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var conflicts []domain.ConflictRecord
	for i, member := range members {
		if i > 0 && i%scanBatchSize == 0 {
			select {
			case <-time.After(scanBatchPause):
			case <-ctx.Done():
				return conflicts, ctx.Err()
			}
		}
		if record, ok := d.DetectMember(guildID, member.UserID, member.RoleIDs); ok {
			conflicts = append(conflicts, record)
		}
	}

	d.logger.Info("role conflict scan complete",
		zap.String("guild_id", guildID),
		zap.Int("members", len(members)),
		zap.Int("conflicts", len(conflicts)))
	return conflicts, nil
}

// Resolve strips every conflicting Discord role except the highest, then
// notifies the member and records an audit entry. Individual role removals
// are best-effort.
func (d *Detector) Resolve(ctx context.Context, record domain.ConflictRecord, roleIDsByStaffRole map[domain.StaffRole]string, actorID string) error {
	var removed []domain.StaffRole
	for _, role := range record.ConflictingRoles {
		if role == record.HighestRole {
			continue
		}
		roleID, ok := roleIDsByStaffRole[role]
		if !ok {
			continue
		}
		if err := d.roles.RemoveMemberRole(ctx, record.GuildID, record.UserID, roleID); err != nil {
			d.logger.Warn("conflict role removal failed",
				zap.String("user_id", record.UserID),
				zap.String("role", string(role)),
				zap.Error(err))
			continue
		}
		removed = append(removed, role)
	}

	if err := d.notifier.DMUser(record.UserID, fmt.Sprintf(
		"Your staff roles were reconciled: you keep %s; %d conflicting role(s) were removed.",
		domain.RoleDisplayName(record.HighestRole), len(removed))); err != nil {
		d.logger.Warn("conflict resolution DM failed",
			zap.String("user_id", record.UserID), zap.Error(err))
	}

	entry := &domain.AuditLog{
		GuildID:  record.GuildID,
		Action:   domain.AuditRoleConflictResolve,
		ActorID:  actorID,
		TargetID: record.UserID,
		Details: domain.AuditDetails{
			Metadata: map[string]any{
				"severity":    string(record.Severity),
				"highestRole": string(record.HighestRole),
				"removed":     len(removed),
			},
		},
	}
	if err := d.audit.Add(ctx, entry); err != nil {
		d.logger.Warn("conflict audit write failed", zap.Error(err))
	}
	return nil
}

// History returns a copy of the guild's recorded conflicts, oldest first.
func (d *Detector) History(guildID string) []domain.ConflictRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := d.history[guildID]
	out := make([]domain.ConflictRecord, len(buf))
	copy(out, buf)
	return out
}

// remember appends to the bounded buffer, evicting the oldest entry at
// capacity.
func (d *Detector) remember(record domain.ConflictRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := append(d.history[record.GuildID], record)
	if len(buf) > historyCapacity {
		buf = buf[len(buf)-historyCapacity:]
	}
	d.history[record.GuildID] = buf
}
