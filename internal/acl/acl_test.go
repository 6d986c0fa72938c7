package acl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultUserAllowsEverything(t *testing.T) {
	table := NewTable()
	u, ok := table.Get("default")
	require.True(t, ok)
	require.True(t, u.CheckCommand("get", []string{"read"}))
	require.True(t, u.CheckKey("anything", KeyModeRead))
}

func TestSelectorGrantsKeyPattern(t *testing.T) {
	u := NewUser("u")
	require.NoError(t, u.ApplyRules([]string{
		"on", "nopass", "-@all",
		"(+get", "~read:*)",
		"(+set", "~write:*)",
	}))
	require.True(t, u.CheckCommand("get", []string{"read"}))
	require.True(t, u.CheckKey("read:x", KeyModeRead))
	require.False(t, u.CheckKey("write:x", KeyModeRead))
	require.False(t, u.CheckCommand("ping", []string{"connection"}))
}

func TestCommandRuleChainFlipsOnLaterAllow(t *testing.T) {
	p := &Permission{CommandRules: []CommandRule{
		{Allow: false, IsCategory: true, Name: "all"},
		{Allow: true, Name: "get"},
	}}
	require.True(t, p.CheckCommand("get", []string{"read"}))
	require.False(t, p.CheckCommand("set", []string{"write"}))
}
