package classify

import (
	"regexp"
	"strings"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// ThemeResult names the active storefront theme, validated against the
// known free/paid vocabularies.
type ThemeResult struct {
	Theme  catalog.Theme
	Signal Signal
}

// Known Shopify theme names, lowercase. Tier classification follows the
// theme store: the free first-party set versus everything else we track.
var (
	freeThemes = []string{
		"dawn", "debut", "brooklyn", "minimal", "supply", "boundless",
		"narrative", "venture", "simple", "express", "craft", "sense",
		"crave", "taste", "studio", "colorblock", "refresh", "origin",
		"ride", "spotlight", "publisher",
	}
	paidThemes = []string{
		"prestige", "impulse", "motion", "turbo", "impact", "symmetry",
		"streamline", "empire", "pipeline", "flex", "warehouse", "parallax",
		"testament", "district", "expanse", "broadcast", "kalles", "wokiee",
		"ella", "shella", "basel", "avone", "palo alto", "focal", "be yours",
	}
)

var (
	themeNamePattern   = regexp.MustCompile(`shopify\.theme\s*=?\s*{[^}]*?"name"\s*:\s*"([^"]+)"`)
	themeSchemaPattern = regexp.MustCompile(`"schema_name"\s*:\s*"([^"]+)"`)
	themeAssetPattern  = regexp.MustCompile(`/themes(?:/[0-9]+)?/([a-z0-9_-]+)/assets/`)
	themeCommentPattern = regexp.MustCompile(`<!--\s*(?:theme|built with)[:\s]+([a-z0-9 _-]+?)\s*-->`)
)

// DetectTheme runs the ordered extraction chain: the inline Shopify.theme
// object, the schema_name settings field, asset path conventions, DOM naming
// conventions, and finally template comment markers. Everything is read from
// the one fetched page; the theme metadata the settings endpoint would serve
// reaches us through the inline object, so that is the chain's first step.
// Whatever is extracted must validate against the vocabularies by whole-token
// containment; short names matching inside larger words do not count.
func DetectTheme(p *Page) ThemeResult {
	if p == nil || len(p.Body) == 0 {
		return ThemeResult{Signal: degradedSignal("empty page")}
	}
	body := p.BodyLower()

	for _, re := range []*regexp.Regexp{
		themeNamePattern,
		themeSchemaPattern,
		themeAssetPattern,
	} {
		m := re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		if theme, ok := lookupTheme(m[1]); ok {
			return ThemeResult{Theme: theme, Signal: okSignal("markup")}
		}
	}

	// Theme-specific class/id prefixes survive asset fingerprinting and
	// outrank freeform comments.
	if theme, ok := detectThemeByDOMHints(body); ok {
		return ThemeResult{Theme: theme, Signal: okSignal("dom_hints")}
	}

	if m := themeCommentPattern.FindStringSubmatch(body); m != nil {
		if theme, ok := lookupTheme(m[1]); ok {
			return ThemeResult{Theme: theme, Signal: okSignal("comment")}
		}
	}

	return ThemeResult{Signal: unknownSignal()}
}

// lookupTheme validates a raw extracted name against the vocabularies.
func lookupTheme(raw string) (catalog.Theme, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	cleaned = strings.ReplaceAll(cleaned, "-", " ")
	if cleaned == "" {
		return catalog.Theme{}, false
	}
	for _, name := range freeThemes {
		if containsToken(cleaned, name) {
			return catalog.Theme{Name: title(name), Tier: catalog.ThemeTierFree}, true
		}
	}
	for _, name := range paidThemes {
		if containsToken(cleaned, name) {
			return catalog.Theme{Name: title(name), Tier: catalog.ThemeTierPaid}, true
		}
	}
	return catalog.Theme{}, false
}

var domHints = []struct {
	marker string
	theme  string
}{
	{`class="template-index dawn`, "dawn"},
	{`id="shopify-section-header" class="shopify-section section-header"`, "dawn"},
	{`data-section-type="slideshow-section"`, "debut"},
	{`class="site-header site-header--`, "brooklyn"},
	{`class="prestige--`, "prestige"},
	{`data-turbo-frame`, "turbo"},
}

func detectThemeByDOMHints(body string) (catalog.Theme, bool) {
	for _, h := range domHints {
		if strings.Contains(body, h.marker) {
			if theme, ok := lookupTheme(h.theme); ok {
				return theme, true
			}
		}
	}
	return catalog.Theme{}, false
}

// title uppercases the first letter of each word; theme names are stored in
// display form.
func title(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
