package classify

import "sync"

// Result bundles the output of all four classifiers for one page.
type Result struct {
	Name          string
	BusinessModel BusinessModelResult
	Country       CountryResult
	Theme         ThemeResult
	Ads           AdsResult
}

// All runs the four classifiers concurrently against the shared page. Each
// is a pure function of the page, so the only coordination needed is the
// wait. A degraded classifier never aborts the others.
func All(p *Page, canonicalURL string) Result {
	var (
		res Result
		wg  sync.WaitGroup
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		res.BusinessModel = ScoreBusinessModel(p)
	}()
	go func() {
		defer wg.Done()
		res.Country = DetectCountry(p, canonicalURL)
	}()
	go func() {
		defer wg.Done()
		res.Theme = DetectTheme(p)
	}()
	go func() {
		defer wg.Done()
		res.Ads = DetectAds(p)
	}()
	wg.Wait()

	res.Name = StoreName(p)
	return res
}
