package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

func TestDetectTheme_InlineThemeObject(t *testing.T) {
	t.Parallel()

	html := `<script>Shopify.theme = {"name":"Dawn","id":12345,"theme_store_id":887};</script>`
	got := DetectTheme(pageFromHTML(html))
	require.Equal(t, "Dawn", got.Theme.Name)
	require.Equal(t, catalog.ThemeTierFree, got.Theme.Tier)
	require.Equal(t, OutcomeOK, got.Signal.Outcome)
}

func TestDetectTheme_SchemaName(t *testing.T) {
	t.Parallel()

	html := `<script type="application/json">{"schema_name":"Prestige","schema_version":"7.1.0"}</script>`
	got := DetectTheme(pageFromHTML(html))
	require.Equal(t, "Prestige", got.Theme.Name)
	require.Equal(t, catalog.ThemeTierPaid, got.Theme.Tier)
}

func TestDetectTheme_AssetPath(t *testing.T) {
	t.Parallel()

	html := `<link rel="stylesheet" href="//cdn.shop.example/themes/impulse/assets/theme.css">`
	got := DetectTheme(pageFromHTML(html))
	require.Equal(t, "Impulse", got.Theme.Name)
	require.Equal(t, catalog.ThemeTierPaid, got.Theme.Tier)
}

func TestDetectTheme_WholeTokenOnly(t *testing.T) {
	t.Parallel()

	// "Debutante" must not match the short theme name "Debut".
	html := `<script>Shopify.theme = {"name":"Debutante Custom"};</script>`
	got := DetectTheme(pageFromHTML(html))
	require.NotEqual(t, "Debut", got.Theme.Name)
	require.Equal(t, OutcomeUnknown, got.Signal.Outcome)
}

func TestDetectTheme_TemplateComment(t *testing.T) {
	t.Parallel()

	html := `<html><head><!-- theme: empire --></head><body></body></html>`
	got := DetectTheme(pageFromHTML(html))
	require.Equal(t, "Empire", got.Theme.Name)
	require.Equal(t, catalog.ThemeTierPaid, got.Theme.Tier)
	require.Equal(t, "comment", got.Signal.Reason)
}

func TestDetectTheme_DOMHintsOutrankComments(t *testing.T) {
	t.Parallel()

	// A stale comment naming another theme loses to the live DOM prefix.
	html := `<!-- theme: empire --><div class="prestige--header"></div>`
	got := DetectTheme(pageFromHTML(html))
	require.Equal(t, "Prestige", got.Theme.Name)
	require.Equal(t, "dom_hints", got.Signal.Reason)
}

func TestDetectTheme_UnknownWhenNothingMatches(t *testing.T) {
	t.Parallel()

	got := DetectTheme(pageFromHTML(`<html><body>plain page</body></html>`))
	require.Equal(t, OutcomeUnknown, got.Signal.Outcome)
	require.Empty(t, got.Theme.Name)
	require.Equal(t, catalog.ThemeTierUnknown, got.Theme.Tier)
}
