package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/kongdonovan/anarchy-and-associates/internal/domain"
)

const (
	colorBrand   = 0x000000
	colorSuccess = 0x57F287
	colorWarning = 0xFEE75C
	colorDanger  = 0xED4245
)

func brandFooter() *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: "Anarchy & Associates"}
}

// StaffEmbed renders one staff record.
func StaffEmbed(staff *domain.Staff) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Staff Record",
		Color: colorBrand,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: fmt.Sprintf("<@%s>", staff.UserID), Inline: true},
			{Name: "Position", Value: domain.RoleDisplayName(staff.Role), Inline: true},
			{Name: "Status", Value: string(staff.Status), Inline: true},
			{Name: "Hired", Value: staff.HiredAt.Format(time.RFC1123), Inline: false},
		},
		Footer: brandFooter(),
	}
}

// RosterEmbed renders the guild staff roster grouped by role.
func RosterEmbed(staff []domain.Staff) *discordgo.MessageEmbed {
	byRole := make(map[domain.StaffRole][]string)
	for _, s := range staff {
		if s.Status != domain.StaffStatusActive {
			continue
		}
		byRole[s.Role] = append(byRole[s.Role], fmt.Sprintf("<@%s>", s.UserID))
	}

	roles := domain.AllRoles()
	fields := make([]*discordgo.MessageEmbedField, 0, len(roles))
	for i := len(roles) - 1; i >= 0; i-- {
		role := roles[i]
		members := byRole[role]
		if len(members) == 0 {
			continue
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s (%d/%d)", domain.RoleDisplayName(role), len(members), domain.RoleHireLimit(role)),
			Value: strings.Join(members, "\n"),
		})
	}
	return &discordgo.MessageEmbed{
		Title:  "Firm Roster",
		Color:  colorBrand,
		Fields: fields,
		Footer: brandFooter(),
	}
}

// CaseEmbed renders one case.
func CaseEmbed(c *domain.Case) *discordgo.MessageEmbed {
	lead := "unassigned"
	if c.LeadAttorneyID != "" {
		lead = fmt.Sprintf("<@%s>", c.LeadAttorneyID)
	}
	lawyers := "none"
	if len(c.AssignedLawyerIDs) > 0 {
		mentions := make([]string, 0, len(c.AssignedLawyerIDs))
		for _, id := range c.AssignedLawyerIDs {
			mentions = append(mentions, fmt.Sprintf("<@%s>", id))
		}
		lawyers = strings.Join(mentions, ", ")
	}

	color := colorBrand
	if c.Status == domain.CaseStatusClosed {
		color = colorSuccess
	}
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Case %s", c.CaseNumber),
		Description: c.Title,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Client", Value: fmt.Sprintf("<@%s>", c.ClientID), Inline: true},
			{Name: "Status", Value: string(c.Status), Inline: true},
			{Name: "Priority", Value: string(c.Priority), Inline: true},
			{Name: "Lead Attorney", Value: lead, Inline: true},
			{Name: "Assigned Lawyers", Value: lawyers, Inline: false},
		},
		Footer: brandFooter(),
	}
	if c.Status == domain.CaseStatusClosed && c.Result != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Result", Value: string(c.Result), Inline: true,
		})
	}
	return embed
}

// ValidationFailureEmbed renders a failed validation for an ephemeral reply.
func ValidationFailureEmbed(result domain.ValidationResult) *discordgo.MessageEmbed {
	desc := strings.Join(result.Errors, "\n")
	if result.BypassAvailable {
		desc += fmt.Sprintf("\n\nAs %s you may repeat the command with `bypass:true` to override.", result.BypassType)
	}
	return &discordgo.MessageEmbed{
		Title:       "Action Not Permitted",
		Description: desc,
		Color:       colorDanger,
		Footer:      brandFooter(),
	}
}

// ConfigEmbed renders the guild configuration for /config view.
func ConfigEmbed(cfg *domain.GuildConfig) *discordgo.MessageEmbed {
	channel := func(id string) string {
		if id == "" {
			return "not set"
		}
		return fmt.Sprintf("<#%s>", id)
	}
	role := func(id string) string {
		if id == "" {
			return "not set"
		}
		return fmt.Sprintf("<@&%s>", id)
	}

	perms := make([]string, 0, len(domain.AllPermissionActions()))
	for _, action := range domain.AllPermissionActions() {
		roles := cfg.RolesForAction(action)
		if len(roles) == 0 {
			perms = append(perms, fmt.Sprintf("`%s`: none", action))
			continue
		}
		mentions := make([]string, len(roles))
		for i, id := range roles {
			mentions[i] = fmt.Sprintf("<@&%s>", id)
		}
		perms = append(perms, fmt.Sprintf("`%s`: %s", action, strings.Join(mentions, " ")))
	}

	return &discordgo.MessageEmbed{
		Title: "Server Configuration",
		Color: colorBrand,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Permissions", Value: strings.Join(perms, "\n")},
			{Name: "Feedback Channel", Value: channel(cfg.FeedbackChannelID), Inline: true},
			{Name: "Retainer Channel", Value: channel(cfg.RetainerChannelID), Inline: true},
			{Name: "Modlog Channel", Value: channel(cfg.ModlogChannelID), Inline: true},
			{Name: "Case Review Category", Value: channel(cfg.CaseReviewCategoryID), Inline: true},
			{Name: "Case Archive Category", Value: channel(cfg.CaseArchiveCategoryID), Inline: true},
			{Name: "Client Role", Value: role(cfg.ClientRoleID), Inline: true},
		},
		Footer: brandFooter(),
	}
}

// IntegrityReportEmbed summarizes an integrity scan.
func IntegrityReportEmbed(entities, issues, critical, warning, info int) *discordgo.MessageEmbed {
	color := colorSuccess
	if critical > 0 {
		color = colorDanger
	} else if warning > 0 {
		color = colorWarning
	}
	return &discordgo.MessageEmbed{
		Title: "Integrity Scan",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Entities Scanned", Value: fmt.Sprintf("%d", entities), Inline: true},
			{Name: "Issues", Value: fmt.Sprintf("%d", issues), Inline: true},
			{Name: "Critical", Value: fmt.Sprintf("%d", critical), Inline: true},
			{Name: "Warning", Value: fmt.Sprintf("%d", warning), Inline: true},
			{Name: "Info", Value: fmt.Sprintf("%d", info), Inline: true},
		},
		Footer: brandFooter(),
	}
}
