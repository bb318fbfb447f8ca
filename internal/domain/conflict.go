package domain

import (
	"sort"
	"time"
)

// ConflictSeverity ranks how badly a member's Discord roles disagree.
type ConflictSeverity string

const (
	SeverityLow      ConflictSeverity = "LOW"
	SeverityMedium   ConflictSeverity = "MEDIUM"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityCritical ConflictSeverity = "CRITICAL"
)

// ConflictRecord captures a member holding more than one staff role at once.
// Ephemeral, computed from live Discord membership.
type ConflictRecord struct {
	GuildID          string
	UserID           string
	ConflictingRoles []StaffRole
	HighestRole      StaffRole
	Severity         ConflictSeverity
	DetectedAt       time.Time
}

// ClassifyConflict builds a ConflictRecord for a member holding the given
// staff roles, or false when fewer than two roles are held. Severity is a
// function of the level gap between the two highest roles; holding three or
// more staff roles is CRITICAL regardless of gap.
func ClassifyConflict(guildID, userID string, roles []StaffRole, at time.Time) (ConflictRecord, bool) {
	if len(roles) < 2 {
		return ConflictRecord{}, false
	}
	sorted := make([]StaffRole, len(roles))
	copy(sorted, roles)
	sort.Slice(sorted, func(i, j int) bool {
		return RoleLevel(sorted[i]) > RoleLevel(sorted[j])
	})

	severity := SeverityLow
	if len(sorted) >= 3 {
		severity = SeverityCritical
	} else {
		gap := RoleLevel(sorted[0]) - RoleLevel(sorted[1])
		switch {
		case gap >= 3:
			severity = SeverityHigh
		case gap == 2:
			severity = SeverityMedium
		default:
			severity = SeverityLow
		}
	}

	return ConflictRecord{
		GuildID:          guildID,
		UserID:           userID,
		ConflictingRoles: sorted,
		HighestRole:      sorted[0],
		Severity:         severity,
		DetectedAt:       at,
	}, true
}
