package classify

import (
	"bytes"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// Page wraps one fetched storefront page. The goquery document and the
// lowercased body are built lazily and memoized so the four classifiers can
// share them without re-parsing.
type Page struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte

	docOnce sync.Once
	doc     *goquery.Document
	docErr  error

	lowerOnce sync.Once
	lower     string
}

// NewPage builds a Page from a fetch response.
func NewPage(resp catalog.FetchResponse) *Page {
	return &Page{
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

// Document parses the body as HTML once and returns the shared document.
func (p *Page) Document() (*goquery.Document, error) {
	p.docOnce.Do(func() {
		p.doc, p.docErr = goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	})
	return p.doc, p.docErr
}

// BodyLower returns the page body lowercased, computed once.
func (p *Page) BodyLower() string {
	p.lowerOnce.Do(func() {
		p.lower = strings.ToLower(string(p.Body))
	})
	return p.lower
}

// Header returns a response header value (canonical-case lookup).
func (p *Page) Header(name string) string {
	if p.Headers == nil {
		return ""
	}
	return p.Headers.Get(name)
}
