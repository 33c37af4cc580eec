package classify

import (
	"regexp"
	"strings"

	"github.com/kelarsco/sneaklink-sub001/internal/canonical"
)

// CountryResult names the storefront's country, plus the method that found
// it. An empty Label with an unknown signal means no method was confident.
type CountryResult struct {
	Label  string
	Signal Signal
}

// countryMethod is one ordered detection step. Highest trust first; the
// first confident match wins and later methods never override it.
type countryMethod struct {
	name   string
	detect func(p *Page, canonicalURL string) string
}

var countryMethods = []countryMethod{
	{name: "shop_locale", detect: detectByShopLocale},
	{name: "currency", detect: detectByCurrency},
	{name: "language", detect: detectByLanguage},
	{name: "shipping_text", detect: detectByShippingText},
	{name: "phone_code", detect: detectByPhoneCode},
	{name: "city", detect: detectByCity},
	{name: "tld", detect: detectByTLD},
}

// DetectCountry runs the ordered method chain against the shared page. It
// never falls back to a random pick: when every method misses, the result
// is an explicit unknown.
func DetectCountry(p *Page, canonicalURL string) CountryResult {
	if p == nil {
		return CountryResult{Signal: degradedSignal("no page")}
	}
	for _, m := range countryMethods {
		if label := m.detect(p, canonicalURL); label != "" {
			return CountryResult{Label: label, Signal: okSignal(m.name)}
		}
	}
	return CountryResult{Signal: unknownSignal()}
}

var shopCountryPattern = regexp.MustCompile(`"country"\s*:\s*"([a-z]{2})"`)

// detectByShopLocale reads the country field Shopify embeds in its inline
// shop/analytics objects.
func detectByShopLocale(p *Page, _ string) string {
	if m := shopCountryPattern.FindStringSubmatch(p.BodyLower()); m != nil {
		return countryByISO[m[1]]
	}
	return ""
}

var currencyByCode = map[string]string{
	"usd": "United States",
	"cad": "Canada",
	"gbp": "United Kingdom",
	"eur": "", // ambiguous across the euro area, skip
	"aud": "Australia",
	"nzd": "New Zealand",
	"inr": "India",
	"jpy": "Japan",
	"sek": "Sweden",
	"nok": "Norway",
	"dkk": "Denmark",
	"chf": "Switzerland",
	"brl": "Brazil",
	"mxn": "Mexico",
	"sgd": "Singapore",
	"aed": "United Arab Emirates",
	"zar": "South Africa",
	"pln": "Poland",
}

var currencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"currency"\s*:\s*"([a-z]{3})"`),
	regexp.MustCompile(`property="og:price:currency"\s+content="([a-z]{3})"`),
	regexp.MustCompile(`itemprop="pricecurrency"\s+content="([a-z]{3})"`),
	regexp.MustCompile(`"pricecurrency"\s*:\s*"([a-z]{3})"`),
}

func detectByCurrency(p *Page, _ string) string {
	body := p.BodyLower()
	for _, re := range currencyPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			if label := currencyByCode[m[1]]; label != "" {
				return label
			}
		}
	}
	// Unambiguous price symbols in markup.
	switch {
	case strings.Contains(body, "c$") || strings.Contains(body, "cad $"):
		return "Canada"
	case strings.Contains(body, "a$") || strings.Contains(body, "aud $"):
		return "Australia"
	case strings.Contains(body, "nz$"):
		return "New Zealand"
	case strings.Contains(body, "&#8377;") || strings.Contains(body, "₹"):
		return "India"
	}
	return ""
}

var langRegionPattern = regexp.MustCompile(`<html[^>]+lang="[a-z]{2}-([a-z]{2})"`)

func detectByLanguage(p *Page, _ string) string {
	if m := langRegionPattern.FindStringSubmatch(p.BodyLower()); m != nil {
		return countryByISO[m[1]]
	}
	return ""
}

type phraseLabel struct {
	phrase string
	label  string
}

// Fixed iteration order keeps the detector deterministic when a page
// mentions more than one country.
var shippingPhrases = []phraseLabel{
	{"free shipping across the usa", "United States"},
	{"free shipping across the us", "United States"},
	{"ships from the united states", "United States"},
	{"free uk delivery", "United Kingdom"},
	{"ships from the uk", "United Kingdom"},
	{"free shipping australia wide", "Australia"},
	{"free shipping across australia", "Australia"},
	{"ships from canada", "Canada"},
	{"free shipping across canada", "Canada"},
	{"free shipping all over india", "India"},
	{"free delivery across india", "India"},
	{"ships from germany", "Germany"},
	{"free shipping within new zealand", "New Zealand"},
	{"free shipping across new zealand", "New Zealand"},
	{"free shipping within the uae", "United Arab Emirates"},
	{"free shipping across south africa", "South Africa"},
}

func detectByShippingText(p *Page, _ string) string {
	body := p.BodyLower()
	for _, pl := range shippingPhrases {
		if strings.Contains(body, pl.phrase) {
			return pl.label
		}
	}
	return ""
}

var phonePattern = regexp.MustCompile(`(?:tel:|phone[^+]{0,20})\+(\d{1,3})[\d\s().-]{6,}`)

var countryByPhoneCode = map[string]string{
	"1":  "United States",
	"44": "United Kingdom",
	"61": "Australia",
	"64": "New Zealand",
	"91": "India",
	"49": "Germany",
	"33": "France",
	"81": "Japan",
	"55": "Brazil",
	"27": "South Africa",
	"65": "Singapore",
	"971": "United Arab Emirates",
}

func detectByPhoneCode(p *Page, _ string) string {
	if m := phonePattern.FindStringSubmatch(p.BodyLower()); m != nil {
		return countryByPhoneCode[m[1]]
	}
	return ""
}

var cityMentions = []phraseLabel{
	{"los angeles", "United States"},
	{"new york", "United States"},
	{"london", "United Kingdom"},
	{"manchester", "United Kingdom"},
	{"melbourne", "Australia"},
	{"sydney", "Australia"},
	{"toronto", "Canada"},
	{"vancouver", "Canada"},
	{"auckland", "New Zealand"},
	{"mumbai", "India"},
	{"new delhi", "India"},
	{"bengaluru", "India"},
	{"berlin", "Germany"},
	{"tokyo", "Japan"},
	{"johannesburg", "South Africa"},
	{"dubai", "United Arab Emirates"},
	{"stockholm", "Sweden"},
	{"copenhagen", "Denmark"},
}

func detectByCity(p *Page, _ string) string {
	body := p.BodyLower()
	for _, pl := range cityMentions {
		if containsToken(body, pl.phrase) {
			return pl.label
		}
	}
	return ""
}

var countryByTLD = map[string]string{
	".co.uk": "United Kingdom",
	".uk":    "United Kingdom",
	".com.au": "Australia",
	".au":     "Australia",
	".co.nz":  "New Zealand",
	".nz":     "New Zealand",
	".ca":     "Canada",
	".in":     "India",
	".de":     "Germany",
	".fr":     "France",
	".jp":     "Japan",
	".co.za":  "South Africa",
	".se":     "Sweden",
	".dk":     "Denmark",
	".no":     "Norway",
	".ch":     "Switzerland",
	".sg":     "Singapore",
	".ae":     "United Arab Emirates",
	".mx":     "Mexico",
	".br":     "Brazil",
	".us":     "United States",
}

// tldOrder checks compound TLDs before their parents (.co.uk before .uk).
var tldOrder = []string{
	".co.uk", ".com.au", ".co.nz", ".co.za",
	".uk", ".au", ".nz", ".ca", ".in", ".de", ".fr", ".jp", ".se", ".dk",
	".no", ".ch", ".sg", ".ae", ".mx", ".br", ".us",
}

func detectByTLD(_ *Page, canonicalURL string) string {
	host := canonical.Host(canonicalURL)
	if strings.HasSuffix(host, canonical.HostedSuffix) {
		return ""
	}
	for _, tld := range tldOrder {
		if strings.HasSuffix(host, tld) {
			return countryByTLD[tld]
		}
	}
	return ""
}

var countryByISO = map[string]string{
	"us": "United States",
	"gb": "United Kingdom",
	"ca": "Canada",
	"au": "Australia",
	"nz": "New Zealand",
	"in": "India",
	"de": "Germany",
	"fr": "France",
	"jp": "Japan",
	"br": "Brazil",
	"mx": "Mexico",
	"se": "Sweden",
	"dk": "Denmark",
	"no": "Norway",
	"ch": "Switzerland",
	"sg": "Singapore",
	"ae": "United Arab Emirates",
	"za": "South Africa",
	"pl": "Poland",
	"nl": "Netherlands",
	"es": "Spain",
	"it": "Italy",
}
