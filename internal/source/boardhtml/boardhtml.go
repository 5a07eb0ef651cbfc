// Package boardhtml implements a SearchProvider that scrapes a job board's
// HTML search page and harvests posting links from its anchors.
package boardhtml

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/source"
)

const userAgent = "jobscout/1.0 (+local)"

type Config struct {
	SourceID string
	Endpoint string // search page; keyword and location appended as q/l params
}

type Provider struct {
	cfg Config
	hc  *http.Client
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Provider {
	return &Provider{
		cfg: cfg,
		hc:  &http.Client{Timeout: 20 * time.Second},
		log: log.Named("boardhtml").With(zap.String("source", cfg.SourceID)),
	}
}

func (p *Provider) ID() string { return p.cfg.SourceID }

func (p *Provider) Search(ctx context.Context, q domain.JobQuery) ([]string, error) {
	base, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return nil, source.Fatal(fmt.Errorf("bad endpoint %q: %w", p.cfg.Endpoint, err))
	}
	v := base.Query()
	v.Set("q", q.Keyword)
	if q.Location != "" {
		v.Set("l", q.Location)
	}
	v.Set("fromage", fmt.Sprint(fromAge(q.Freshness)))
	base.RawQuery = v.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	req.Header.Set("User-Agent", userAgent)

	res, err := p.hc.Do(req)
	if err != nil {
		return nil, source.ClassifyNetErr("board search page", err)
	}
	defer res.Body.Close()

	if cerr := source.ClassifyHTTP("board search page", res.StatusCode); cerr != nil {
		return nil, cerr
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, source.Transient(fmt.Errorf("parse search page: %w", err))
	}

	seen := map[string]bool{}
	var out []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		abs := href
		if strings.HasPrefix(href, "/") {
			abs = base.Scheme + "://" + base.Host + href
		}
		if !source.LooksLikeJobURL(abs) || source.IsJunkURL(abs) {
			return
		}

		canon := source.CanonicalizeURL(abs)
		if seen[canon] {
			return
		}
		seen[canon] = true
		out = append(out, canon)
	})

	p.log.Debug("board search done",
		zap.String("keyword", q.Keyword), zap.Int("urls", len(out)))
	return out, nil
}

func fromAge(f domain.Freshness) int {
	switch f {
	case domain.FreshDay:
		return 1
	case domain.FreshWeek:
		return 7
	case domain.FreshMonth:
		return 30
	case domain.FreshYear:
		return 365
	default:
		return 7
	}
}
