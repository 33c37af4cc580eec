// Package canonical maps raw URL strings to the canonical storefront
// identity used as the catalog key: https scheme plus lowercase host, no
// path, query, or fragment. It is a pure function with no network access;
// every dedup and uniqueness guarantee downstream rests on it.
package canonical

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalid is returned when no host can be extracted from the input.
var ErrInvalid = errors.New("canonical: invalid url")

// HostedSuffix is the suffix of platform-hosted storefront domains. Hosted
// subdomains are the store's actual identity and are preserved verbatim.
const HostedSuffix = ".myshopify.com"

var (
	// Best-effort host extraction when url.Parse gives up, e.g. on inputs
	// pasted out of chat logs or search snippets.
	hostPattern = regexp.MustCompile(`(?i)^(?:[a-z][a-z0-9+.-]*://)?([a-z0-9][a-z0-9.-]*\.[a-z]{2,})`)

	validHost = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)
)

// Canonicalize normalizes raw into the canonical form, or returns ErrInvalid
// when no plausible host can be recovered. The transform is idempotent:
// Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalid
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	host := ""
	if u, err := url.Parse(trimmed); err == nil {
		host = u.Hostname()
	}
	if host == "" {
		host = extractHost(raw)
	}
	if host == "" {
		return "", ErrInvalid
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	host = stripWWW(host)
	if !validHost.MatchString(host) {
		return "", ErrInvalid
	}

	return fmt.Sprintf("https://%s", host), nil
}

// IsHosted reports whether the canonical URL points at a platform-hosted
// subdomain.
func IsHosted(canonicalURL string) bool {
	return strings.HasSuffix(Host(canonicalURL), HostedSuffix)
}

// Host returns the host part of a canonical URL.
func Host(canonicalURL string) string {
	return strings.TrimPrefix(canonicalURL, "https://")
}

func stripWWW(host string) string {
	if strings.HasSuffix(host, HostedSuffix) {
		return host
	}
	return strings.TrimPrefix(host, "www.")
}

func extractHost(raw string) string {
	m := hostPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	host := m[1]
	// Drop a trailing port if the regex swallowed one via the path-free form.
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
