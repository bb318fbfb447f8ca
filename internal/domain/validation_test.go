package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeResultsAllValid(t *testing.T) {
	merged := MergeResults(
		ValidationResult{Valid: true},
		ValidationResult{Valid: true, Warnings: []string{"heads up"}},
	)
	assert.True(t, merged.Valid)
	assert.Empty(t, merged.Errors)
	assert.Equal(t, []string{"heads up"}, merged.Warnings)
}

func TestMergeResultsAnyInvalid(t *testing.T) {
	merged := MergeResults(
		ValidationResult{Valid: true},
		ValidationResult{Valid: false, Errors: []string{"first"}},
		ValidationResult{Valid: false, Errors: []string{"second"}},
	)
	assert.False(t, merged.Valid)
	assert.Equal(t, []string{"first", "second"}, merged.Errors, "errors concatenate in input order")
}

func TestMergeResultsBypassDisjunction(t *testing.T) {
	merged := MergeResults(
		ValidationResult{Valid: false, Errors: []string{"limit"}},
		ValidationResult{Valid: false, BypassAvailable: true, BypassType: BypassGuildOwner},
	)
	assert.True(t, merged.BypassAvailable)
	assert.Equal(t, BypassGuildOwner, merged.BypassType)
}

func TestMergeResultsEmpty(t *testing.T) {
	merged := MergeResults()
	assert.True(t, merged.Valid)
	assert.False(t, merged.BypassAvailable)
}

func TestParsePermissionAction(t *testing.T) {
	for _, action := range AllPermissionActions() {
		parsed, ok := ParsePermissionAction(string(action))
		assert.True(t, ok)
		assert.Equal(t, action, parsed)
	}

	_, ok := ParsePermissionAction("superuser")
	assert.False(t, ok, "unknown actions must grant nothing")
}

func TestRolesForActionNilSafe(t *testing.T) {
	var nilCfg *GuildConfig
	assert.Nil(t, nilCfg.RolesForAction(PermissionCase))

	cfg := &GuildConfig{}
	assert.Nil(t, cfg.RolesForAction(PermissionCase))

	cfg = DefaultGuildConfig("guild")
	assert.Empty(t, cfg.RolesForAction(PermissionCase))
}

func TestPermissionContextRoles(t *testing.T) {
	pctx := PermissionContext{UserRoles: []string{"a", "b"}}
	assert.True(t, pctx.HasRole("a"))
	assert.False(t, pctx.HasRole("c"))
	assert.True(t, pctx.HasAnyRole([]string{"c", "b"}))
	assert.False(t, pctx.HasAnyRole([]string{"c", "d"}))
	assert.False(t, pctx.HasAnyRole(nil))
}
