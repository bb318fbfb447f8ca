package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
	"github.com/kongdonovan/anarchy-and-associates/internal/rolesync"
)

// SessionAdapter implements the gateway-facing collaborator interfaces over
// one discordgo session: channel lifecycle, channel existence checks,
// member listing, role mutation, and channel permission sync.
type SessionAdapter struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewSessionAdapter creates the adapter.
func NewSessionAdapter(session *discordgo.Session, logger *zap.Logger) *SessionAdapter {
	return &SessionAdapter{session: session, logger: logger}
}

// CreateCaseChannel creates the case's text channel, named after the case
// number.
func (a *SessionAdapter) CreateCaseChannel(ctx context.Context, guildID, caseNumber string) (string, error) {
	name := "case-" + strings.ToLower(strings.ReplaceAll(caseNumber, " ", "-"))
	channel, err := a.session.GuildChannelCreate(guildID, name, discordgo.ChannelTypeGuildText)
	if err != nil {
		return "", err
	}
	return channel.ID, nil
}

// ArchiveCaseChannel moves the channel under the guild's archive category
// when one is configured, otherwise renames it with an archived prefix.
func (a *SessionAdapter) ArchiveCaseChannel(ctx context.Context, guildID, channelID string) error {
	channel, err := a.session.Channel(channelID)
	if err != nil {
		return err
	}
	edit := &discordgo.ChannelEdit{Name: "archived-" + channel.Name}
	if categoryID := a.archiveCategoryID(guildID); categoryID != "" {
		edit.ParentID = categoryID
	}
	_, err = a.session.ChannelEdit(channelID, edit)
	return err
}

func (a *SessionAdapter) archiveCategoryID(guildID string) string {
	channels, err := a.session.GuildChannels(guildID)
	if err != nil {
		return ""
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(ch.Name, "Case Archive") {
			return ch.ID
		}
	}
	return ""
}

// ChannelExists reports whether the channel is still reachable.
func (a *SessionAdapter) ChannelExists(channelID string) bool {
	if channelID == "" {
		return false
	}
	_, err := a.session.Channel(channelID)
	return err == nil
}

// GuildIDs lists the guilds the bot is currently in, from gateway state.
func (a *SessionAdapter) GuildIDs() []string {
	if a.session.State == nil {
		return nil
	}
	ids := make([]string, 0, len(a.session.State.Guilds))
	for _, g := range a.session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// GuildMembers pages through the full member list.
func (a *SessionAdapter) GuildMembers(ctx context.Context, guildID string) ([]rolesync.Member, error) {
	var members []rolesync.Member
	after := ""
	for {
		page, err := a.session.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			members = append(members, rolesync.Member{UserID: m.User.ID, RoleIDs: m.Roles})
		}
		after = page[len(page)-1].User.ID
		if len(page) < 1000 {
			break
		}
	}
	return members, nil
}

// RemoveMemberRole strips one Discord role from a member.
func (a *SessionAdapter) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleRemove(guildID, userID, roleID)
}

// SyncMemberPermissions updates case-channel ACLs for a member after a role
// change: members holding a lawyer-eligible role keep read access to case
// channels they are assigned to; others are left to channel defaults.
func (a *SessionAdapter) SyncMemberPermissions(ctx context.Context, guildID, userID string, newRole domain.StaffRole) error {
	channels, err := a.session.GuildChannels(guildID)
	if err != nil {
		return err
	}
	allow := int64(0)
	deny := int64(0)
	if domain.IsLawyerRole(newRole) {
		allow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	} else {
		deny = discordgo.PermissionViewChannel
	}
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText || !strings.HasPrefix(ch.Name, "case-") {
			continue
		}
		if err := a.session.ChannelPermissionSet(ch.ID, userID, discordgo.PermissionOverwriteTypeMember, allow, deny); err != nil {
			a.logger.Warn("channel permission set failed",
				zap.String("channel_id", ch.ID),
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	return nil
}

// StaffRoleIDs maps each firm staff role to the guild's matching Discord
// role id, by display name.
func (a *SessionAdapter) StaffRoleIDs(guildID string) map[domain.StaffRole]string {
	out := make(map[domain.StaffRole]string)
	roles, err := a.session.GuildRoles(guildID)
	if err != nil {
		return out
	}
	for _, r := range roles {
		for _, staffRole := range domain.AllRoles() {
			if strings.EqualFold(r.Name, domain.RoleDisplayName(staffRole)) {
				out[staffRole] = r.ID
			}
		}
	}
	return out
}

// StaffRoleResolver builds a rolesync.RoleResolver that matches Discord role
// names against the firm's role display names.
func (a *SessionAdapter) StaffRoleResolver() rolesync.RoleResolver {
	return func(guildID, roleID string) (domain.StaffRole, bool) {
		roles, err := a.session.GuildRoles(guildID)
		if err != nil {
			return "", false
		}
		for _, r := range roles {
			if r.ID != roleID {
				continue
			}
			for _, staffRole := range domain.AllRoles() {
				if strings.EqualFold(r.Name, domain.RoleDisplayName(staffRole)) {
					return staffRole, true
				}
			}
		}
		return "", false
	}
}
