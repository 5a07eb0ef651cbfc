package source

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalizeURL normalizes a candidate URL so the same posting reached
// through different tracking links keys identically: lowercase scheme/host,
// no fragment, tracking params dropped, deterministic query order.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "ref" {
			q.Del(k)
		}
	}
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// IsJunkURL spots template links that show up in boards and alert emails
// but never lead to a posting.
func IsJunkURL(u string) bool {
	lu := strings.ToLower(u)

	junks := []string{
		"unsubscribe",
		"preferences",
		"manage-preferences",
		"email-preferences",
		"privacy",
		"terms",
		"view-in-browser",
		"viewaswebpage",
		"tracking",
		"pixel",
		"beacon",
		"/alerts",
		"/settings",
		"/help",
		"/legal",
		"/login",
		"/signin",
	}
	for _, j := range junks {
		if strings.Contains(lu, j) {
			return true
		}
	}
	return false
}

// LooksLikeJobURL is a cheap prefilter for anchors scraped off board pages.
func LooksLikeJobURL(u string) bool {
	lu := strings.ToLower(u)
	indicators := []string{
		"viewjob",
		"/jobs/",
		"/job/",
		"/jobs/view/",
		"jobs/detail/",
		"/careers/",
		"/position/",
		"/opening",
		"/apply",
	}
	for _, in := range indicators {
		if strings.Contains(lu, in) {
			return true
		}
	}
	return false
}
