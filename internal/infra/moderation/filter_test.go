package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterCensorsProfanity(t *testing.T) {
	filter := NewFilter(Config{AllowList: DefaultAllowList})

	require.True(t, filter.IsProfane("this is shit"))
	cleaned := filter.Clean("this is shit")
	require.NotContains(t, cleaned, "shit")
	require.Contains(t, cleaned, "this is")
	require.Contains(t, cleaned, "*")
}

func TestFilterLeavesCleanTextAlone(t *testing.T) {
	filter := NewFilter(Config{AllowList: DefaultAllowList})

	require.False(t, filter.IsProfane("summarize the quarterly report"))
	require.Equal(t, "summarize the quarterly report", filter.Clean("summarize the quarterly report"))
	require.Equal(t, "   ", filter.Clean("   "))
	require.False(t, filter.IsProfane(""))
}

func TestFilterAllowListAndExtraWords(t *testing.T) {
	filter := NewFilter(Config{AllowList: []string{"damn", "hell"}, Extra: []string{"confidential"}})

	require.False(t, filter.IsProfane("damn it"))
	require.True(t, filter.IsProfane("this is confidential"))
	require.NotContains(t, filter.Clean("this is confidential"), "confidential")
}

func TestBuildDictionary(t *testing.T) {
	got := buildDictionary(
		[]string{"Alpha", "damn", "beta", "alpha"},
		[]string{" DAMN "},
		[]string{"gamma", "", "beta"},
	)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, got)
}
