// Package extract turns a candidate URL into a RawRecord with a plain HTTP
// fetch and goquery heuristics. Board-specific selectors would slot in as
// alternative Extractor implementations; the dispatcher does not care.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/source"
)

const (
	userAgent   = "jobscout/1.0 (+local)"
	maxDescChar = 8000
)

type Generic struct {
	hc  *http.Client
	log *zap.Logger
}

func NewGeneric(log *zap.Logger) *Generic {
	return &Generic{
		hc:  &http.Client{Timeout: 20 * time.Second},
		log: log.Named("extract"),
	}
}

func (g *Generic) Extract(ctx context.Context, sourceID, pageURL string) (domain.RawRecord, error) {
	var rec domain.RawRecord

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return rec, source.Fatal(fmt.Errorf("build extract request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := g.hc.Do(req)
	if err != nil {
		return rec, source.ClassifyNetErr("extract page", err)
	}
	defer res.Body.Close()

	if cerr := source.ClassifyHTTP("extract page", res.StatusCode); cerr != nil {
		return rec, cerr
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return rec, source.Transient(fmt.Errorf("parse page: %w", err))
	}

	rec = domain.RawRecord{
		SourceID:  sourceID,
		URL:       pageURL,
		FetchedAt: time.Now().UTC(),
	}

	rec.Title = firstText(doc,
		`h1`,
		`[class*="job-title"]`,
		`[class*="jobTitle"]`,
	)
	if rec.Title == "" {
		rec.Title = metaContent(doc, "og:title")
	}
	if rec.Title == "" {
		return rec, source.ErrNotFound
	}

	rec.Company = firstText(doc,
		`[class*="company-name"]`,
		`[class*="companyName"]`,
		`[data-company]`,
	)
	if rec.Company == "" {
		rec.Company = metaContent(doc, "og:site_name")
	}
	if rec.Company == "" {
		rec.Company = hostAsCompany(pageURL)
	}

	rec.Location = firstText(doc,
		`.location`,
		`[class*="job-location"]`,
		`[class*="jobLocation"]`,
	)

	rec.SalaryText = firstText(doc,
		`[class*="salary"]`,
		`[class*="compensation"]`,
	)

	if t := firstAttr(doc, "time[datetime]", "datetime"); t != "" {
		if when, err := time.Parse(time.RFC3339, t); err == nil {
			rec.PostedAt = &when
		}
	}

	desc := firstText(doc,
		`#content`,
		`[class*="job-description"]`,
		`[class*="jobDescription"]`,
		`[class*="description"]`,
		`article`,
		`main`,
	)
	if desc == "" {
		desc = cleanText(doc.Find("body").Text())
	}
	if len(desc) > maxDescChar {
		desc = truncateRunes(desc, maxDescChar)
	}
	rec.Description = desc

	g.log.Debug("extracted",
		zap.String("url", pageURL), zap.String("title", rec.Title))
	return rec, nil
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if s := cleanText(doc.Find(sel).First().Text()); s != "" {
			return s
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, sel, attr string) string {
	v, _ := doc.Find(sel).First().Attr(attr)
	return strings.TrimSpace(v)
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return cleanText(v)
}

func hostAsCompany(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
