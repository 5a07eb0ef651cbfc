package validate

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultPlaceholders are sample domains that show up in templated or
// hallucinated postings; a config list extends them.
var defaultPlaceholders = []string{
	"example.com",
	"example.org",
	"test.com",
	"localhost",
}

// URLChecker validates candidate URLs syntactically and, when enabled,
// probes them with a cheap HEAD request.
type URLChecker struct {
	placeholders []string
	probeEnabled bool
	hc           *http.Client
}

func NewURLChecker(extraPlaceholders []string, probeEnabled bool, probeTimeout time.Duration) *URLChecker {
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}
	return &URLChecker{
		placeholders: append(append([]string{}, defaultPlaceholders...), extraPlaceholders...),
		probeEnabled: probeEnabled,
		hc:           &http.Client{Timeout: probeTimeout},
	}
}

// WellFormed rejects URLs with no scheme/host, fragment-only links, and
// known placeholder domains.
func (c *URLChecker) WellFormed(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range c.placeholders {
		if host == p || strings.HasSuffix(host, "."+p) {
			return false
		}
	}
	return true
}

// Reachable probes the URL with a HEAD request. A probe failure is a
// rejection of the record, not something to retry. Disabled probing passes
// everything.
func (c *URLChecker) Reachable(ctx context.Context, raw string) bool {
	if !c.probeEnabled {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return false
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode < 400
}
