package classify

import "strings"

// AdNetwork names one detected advertising/tracking network.
type AdNetwork string

// Networks the detector knows about.
const (
	AdFacebook  AdNetwork = "facebook"
	AdGoogle    AdNetwork = "google"
	AdTikTok    AdNetwork = "tiktok"
	AdPinterest AdNetwork = "pinterest"
	AdSnapchat  AdNetwork = "snapchat"
)

// AdsResult reports per-network presence plus the aggregate flag. Presence
// only: no attribution, and networks are not mutually exclusive.
type AdsResult struct {
	Networks map[AdNetwork]bool
	Any      bool
	Signal   Signal
}

// adMarkers holds, per network, the pixel/tag observables: script domains,
// init-call patterns in inline scripts, and click-ID query conventions.
var adMarkers = []struct {
	network AdNetwork
	markers []string
}{
	{AdFacebook, []string{"connect.facebook.net", "fbq('init'", `fbq("init"`, "facebook.com/tr?", "fbclid"}},
	{AdGoogle, []string{"googleadservices.com", "googletagmanager.com/gtag", "google-analytics.com", "gtag('config'", "gclid"}},
	{AdTikTok, []string{"analytics.tiktok.com", "ttq.load(", "ttq.page(", "ttclid"}},
	{AdPinterest, []string{"s.pinimg.com/ct", "pintrk('load'", `pintrk("load"`, "epik="}},
	{AdSnapchat, []string{"sc-static.net/scevent", "snaptr('init'", `snaptr("init"`, "sccid"}},
}

// DetectAds scans the shared page for ad-network pixels and tags.
func DetectAds(p *Page) AdsResult {
	result := AdsResult{Networks: make(map[AdNetwork]bool, len(adMarkers))}
	if p == nil || len(p.Body) == 0 {
		result.Signal = degradedSignal("empty page")
		return result
	}

	body := p.BodyLower()
	for _, entry := range adMarkers {
		hit := false
		for _, marker := range entry.markers {
			if strings.Contains(body, marker) {
				hit = true
				break
			}
		}
		result.Networks[entry.network] = hit
		result.Any = result.Any || hit
	}
	result.Signal = okSignal("markers")
	return result
}
