package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectAds_MultipleNetworks(t *testing.T) {
	t.Parallel()

	html := `<script src="https://connect.facebook.net/en_US/fbevents.js"></script>
	<script>ttq.load('ABC123');ttq.page();</script>
	<img src="https://example.com/landing?gclid=xyz">`

	got := DetectAds(pageFromHTML(html))
	require.True(t, got.Any)
	require.True(t, got.Networks[AdFacebook])
	require.True(t, got.Networks[AdTikTok])
	require.True(t, got.Networks[AdGoogle])
	require.False(t, got.Networks[AdPinterest])
	require.False(t, got.Networks[AdSnapchat])
	require.Equal(t, OutcomeOK, got.Signal.Outcome)
}

func TestDetectAds_InitCallPattern(t *testing.T) {
	t.Parallel()

	html := `<script>!function(f,b,e,v){/*...*/}(window);fbq('init','123456');fbq('track','PageView');</script>`
	got := DetectAds(pageFromHTML(html))
	require.True(t, got.Networks[AdFacebook])
	require.True(t, got.Any)
}

func TestDetectAds_CleanPage(t *testing.T) {
	t.Parallel()

	got := DetectAds(pageFromHTML(`<html><body><h1>No trackers here</h1></body></html>`))
	require.False(t, got.Any)
	for network, present := range got.Networks {
		require.False(t, present, network)
	}
}

func TestDetectAds_EmptyPageDegrades(t *testing.T) {
	t.Parallel()

	got := DetectAds(nil)
	require.Equal(t, OutcomeDegraded, got.Signal.Outcome)
	require.False(t, got.Any)
}

func TestRuleTableScoreClamped(t *testing.T) {
	t.Parallel()

	table := RuleTable{
		Rules: []Rule{
			{Pattern: "alpha", Weight: 0.8, Category: "app"},
			{Pattern: "beta", Weight: 0.8, Category: "app"},
			{Pattern: "gamma", Weight: 0.4, Category: "keyword"},
		},
		Caps: map[string]float64{"keyword": 0.2},
	}

	require.Equal(t, 1.0, table.Score("alpha beta gamma"))
	require.Equal(t, 0.2, table.Score("gamma"))
	require.Zero(t, table.Score("delta"))
	require.Equal(t, []string{"alpha", "gamma"}, table.Matches("alpha gamma"))
}

func TestContainsToken(t *testing.T) {
	t.Parallel()

	require.True(t, containsToken("built with dawn theme", "dawn"))
	require.True(t, containsToken("dawn", "dawn"))
	require.True(t, containsToken("theme:dawn;", "dawn"))
	require.False(t, containsToken("dawning of an era", "dawn"))
	require.False(t, containsToken("debutante", "debut"))
	require.True(t, containsToken("visit new york today", "new york"))
}
