package classify

import "strings"

// Rule is one data-driven scoring rule: a lowercase pattern searched for in
// the page, the weight it contributes, and the category it belongs to.
// Categories are capped independently so that e.g. keyword stuffing cannot
// outvote a hard app fingerprint.
type Rule struct {
	Pattern  string
	Weight   float64
	Category string
}

// RuleTable is an ordered set of rules scored uniformly, which keeps the
// tables unit-testable independent of the scoring engine.
type RuleTable struct {
	Rules []Rule
	// Caps limits the total contribution per category; categories absent
	// from the map are uncapped.
	Caps map[string]float64
}

// Score sums the weights of all matching rules against the lowercase
// haystack, applying per-category caps, and clamps the result to [0,1].
func (t RuleTable) Score(haystack string) float64 {
	perCategory := make(map[string]float64, 4)
	for _, r := range t.Rules {
		if !strings.Contains(haystack, r.Pattern) {
			continue
		}
		perCategory[r.Category] += r.Weight
	}

	total := 0.0
	for cat, sum := range perCategory {
		if limit, ok := t.Caps[cat]; ok && sum > limit {
			sum = limit
		}
		total += sum
	}
	return clamp01(total)
}

// Matches returns the patterns that hit, for fingerprint-style reporting.
func (t RuleTable) Matches(haystack string) []string {
	var hits []string
	for _, r := range t.Rules {
		if strings.Contains(haystack, r.Pattern) {
			hits = append(hits, r.Pattern)
		}
	}
	return hits
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// containsToken reports whether needle occurs in haystack as a whole token,
// delimited by non-alphanumeric characters. Substring matches on short
// names ("Debut" inside "debutante") must not count.
func containsToken(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		leftOK := start == 0 || !isWordByte(haystack[start-1])
		rightOK := end == len(haystack) || !isWordByte(haystack[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
