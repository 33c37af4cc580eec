package classify

import (
	"strings"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// Scoring thresholds for the business-model classifier.
const (
	// lowConfidenceScore is assigned to every label when nothing clears
	// lowConfidenceThreshold: an explicit "don't know", never a guess.
	lowConfidenceScore     = 0.1
	lowConfidenceThreshold = 0.2
	primaryThreshold       = 0.5
)

// Rule categories used by the business-model tables.
const (
	catApp        = "app"
	catKeyword    = "keyword"
	catStructural = "structural"
)

// businessTables maps each label to its rule table. App fingerprints carry
// enough weight that a single strong match dominates; keyword phrases are
// capped per category so keyword stuffing cannot fake a model.
var businessTables = map[catalog.BusinessModelLabel]RuleTable{
	catalog.LabelPrintOnDemand: {
		Caps: map[string]float64{catKeyword: 0.3, catStructural: 0.2},
		Rules: []Rule{
			{Pattern: "printful", Weight: 0.7, Category: catApp},
			{Pattern: "printify", Weight: 0.7, Category: catApp},
			{Pattern: "gooten", Weight: 0.6, Category: catApp},
			{Pattern: "teelaunch", Weight: 0.6, Category: catApp},
			{Pattern: "gelato.com", Weight: 0.6, Category: catApp},
			{Pattern: "print on demand", Weight: 0.15, Category: catKeyword},
			{Pattern: "printed when you order", Weight: 0.15, Category: catKeyword},
			{Pattern: "made to order", Weight: 0.1, Category: catKeyword},
			{Pattern: "unisex heavy cotton tee", Weight: 0.2, Category: catStructural},
			{Pattern: "s / m / l / xl / 2xl", Weight: 0.1, Category: catStructural},
		},
	},
	catalog.LabelDropshipping: {
		Caps: map[string]float64{catKeyword: 0.3, catStructural: 0.2},
		Rules: []Rule{
			{Pattern: "oberlo", Weight: 0.7, Category: catApp},
			{Pattern: "dsers", Weight: 0.7, Category: catApp},
			{Pattern: "zendrop", Weight: 0.7, Category: catApp},
			{Pattern: "spocket", Weight: 0.6, Category: catApp},
			{Pattern: "cjdropshipping", Weight: 0.6, Category: catApp},
			{Pattern: "aliexpress", Weight: 0.4, Category: catApp},
			{Pattern: "free worldwide shipping", Weight: 0.15, Category: catKeyword},
			{Pattern: "7-14 business days", Weight: 0.15, Category: catKeyword},
			{Pattern: "shipped from our warehouse", Weight: 0.1, Category: catKeyword},
			{Pattern: "50% off today only", Weight: 0.1, Category: catKeyword},
		},
	},
	catalog.LabelBrandedEcommerce: {
		Caps: map[string]float64{catKeyword: 0.3, catStructural: 0.25},
		Rules: []Rule{
			{Pattern: "our story", Weight: 0.15, Category: catKeyword},
			{Pattern: "our flagship store", Weight: 0.15, Category: catKeyword},
			{Pattern: "designed in-house", Weight: 0.2, Category: catKeyword},
			{Pattern: "press", Weight: 0.05, Category: catKeyword},
			{Pattern: "wholesale", Weight: 0.1, Category: catKeyword},
			{Pattern: "klaviyo", Weight: 0.2, Category: catApp},
			{Pattern: "yotpo", Weight: 0.2, Category: catApp},
			{Pattern: "gorgias", Weight: 0.15, Category: catApp},
		},
	},
	catalog.LabelMarketplace: {
		Caps: map[string]float64{catKeyword: 0.3, catStructural: 0.2},
		Rules: []Rule{
			{Pattern: "multi-vendor", Weight: 0.5, Category: catApp},
			{Pattern: "marketplace", Weight: 0.2, Category: catKeyword},
			{Pattern: "sell with us", Weight: 0.2, Category: catKeyword},
			{Pattern: "become a vendor", Weight: 0.25, Category: catKeyword},
			{Pattern: "sold by", Weight: 0.15, Category: catKeyword},
			{Pattern: "shop by brand", Weight: 0.1, Category: catKeyword},
		},
	},
}

// BusinessModelResult carries the scored labels plus the classifier signal.
type BusinessModelResult struct {
	catalog.BusinessModel
	Signal Signal
}

// ScoreBusinessModel scores the page against every label table. Identical
// HTML always yields identical scores; there is no randomized fallback.
// When nothing clears the low-confidence threshold every label is reset to
// the same low score and Primary stays empty.
func ScoreBusinessModel(p *Page) BusinessModelResult {
	if p == nil || len(p.Body) == 0 {
		return BusinessModelResult{
			BusinessModel: unknownBusinessModel(),
			Signal:        degradedSignal("empty page"),
		}
	}

	body := p.BodyLower()
	scores := make(map[catalog.BusinessModelLabel]float64, len(businessTables))
	for _, label := range catalog.Labels() {
		scores[label] = businessTables[label].Score(body)
	}

	best, bestScore, tied := bestLabel(scores)
	if bestScore < lowConfidenceThreshold {
		return BusinessModelResult{
			BusinessModel: unknownBusinessModel(),
			Signal:        unknownSignal(),
		}
	}

	bm := catalog.BusinessModel{Scores: scores, Confidence: bestScore}
	// Primary requires a strict winner above the primary threshold.
	if bestScore >= primaryThreshold && !tied {
		bm.Primary = best
	}
	return BusinessModelResult{BusinessModel: bm, Signal: okSignal("rules")}
}

func unknownBusinessModel() catalog.BusinessModel {
	scores := make(map[catalog.BusinessModelLabel]float64, 4)
	for _, label := range catalog.Labels() {
		scores[label] = lowConfidenceScore
	}
	return catalog.BusinessModel{Scores: scores, Confidence: lowConfidenceScore}
}

func bestLabel(scores map[catalog.BusinessModelLabel]float64) (catalog.BusinessModelLabel, float64, bool) {
	var best catalog.BusinessModelLabel
	bestScore := -1.0
	tied := false
	for _, label := range catalog.Labels() {
		s := scores[label]
		switch {
		case s > bestScore:
			best, bestScore, tied = label, s, false
		case s == bestScore:
			tied = true
		}
	}
	return best, bestScore, tied
}

// StoreName extracts a display name for the record from og:site_name, the
// Shopify shop object, or the <title>, in that order.
func StoreName(p *Page) string {
	if p == nil {
		return ""
	}
	doc, err := p.Document()
	if err != nil || doc == nil {
		return ""
	}
	if name, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		return strings.TrimSpace(name)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	// Titles like "Snowboards – Cool Store" keep only the site part.
	for _, sep := range []string{" – ", " — ", " | "} {
		if i := strings.LastIndex(title, sep); i >= 0 {
			title = strings.TrimSpace(title[i+len(sep):])
		}
	}
	return title
}
