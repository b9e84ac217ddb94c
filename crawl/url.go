package crawl

import (
	"errors"
	"net/url"
	"strings"
)

var errNotCrawlable = errors.New("crawl: not a crawlable URL")

// normalize resolves raw against base, strips the fragment, and rejects
// non-http(s) schemes. The result is the canonical form used for visited
// set membership.
func normalize(raw string, base *url.URL) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u = base.ResolveReference(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errNotCrawlable
	}
	if u.Host == "" {
		return "", errNotCrawlable
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

// sameOrigin reports whether a normalised URL shares scheme and host with
// the seed origin.
func sameOrigin(norm string, origin *url.URL) bool {
	u, err := url.Parse(norm)
	if err != nil {
		return false
	}
	return u.Scheme == origin.Scheme && strings.EqualFold(u.Host, origin.Host)
}
