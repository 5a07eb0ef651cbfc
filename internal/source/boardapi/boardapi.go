// Package boardapi implements a SearchProvider over an Adzuna-style JSON
// search API: app_id/app_key auth, page-numbered results, one URL per hit.
package boardapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/source"
)

const (
	pageSize = 50
	maxPages = 3 // bounded: search is a feeder stage, not a crawl
)

type Config struct {
	SourceID string
	Endpoint string // e.g. https://api.adzuna.com/v1/api/jobs/us/search
	AppID    string
	AppKey   string
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
		log: log.Named("boardapi").With(zap.String("source", cfg.SourceID)),
	}
}

func (p *Provider) ID() string { return p.cfg.SourceID }

type searchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		Title       string `json:"title"`
		RedirectURL string `json:"redirect_url"`
	} `json:"results"`
}

// Search pages through the API and returns candidate posting URLs. Paging
// stops at maxPages or the first short page.
func (p *Provider) Search(ctx context.Context, q domain.JobQuery) ([]string, error) {
	var out []string
	for page := 1; page <= maxPages; page++ {
		urls, full, err := p.fetchPage(ctx, q, page)
		if err != nil {
			if len(out) > 0 {
				// partial results beat none; the failed page is logged
				p.log.Warn("search page failed, returning partial results",
					zap.Int("page", page), zap.Error(err))
				return out, nil
			}
			return nil, err
		}
		out = append(out, urls...)
		if !full {
			break
		}
	}
	return out, nil
}

func (p *Provider) fetchPage(ctx context.Context, q domain.JobQuery, page int) ([]string, bool, error) {
	v := url.Values{}
	v.Set("app_id", p.cfg.AppID)
	v.Set("app_key", p.cfg.AppKey)
	v.Set("what", q.Keyword)
	v.Set("results_per_page", fmt.Sprint(pageSize))
	v.Set("max_days_old", fmt.Sprint(maxDaysOld(q.Freshness)))
	if q.Location != "" {
		v.Set("where", q.Location)
	}

	reqURL := fmt.Sprintf("%s/%d?%s", p.cfg.Endpoint, page, v.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, source.Fatal(fmt.Errorf("build search request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := p.hc.Do(req)
	if err != nil {
		return nil, false, source.ClassifyNetErr("board api search", err)
	}
	defer res.Body.Close()

	if cerr := source.ClassifyHTTP("board api search", res.StatusCode); cerr != nil {
		return nil, false, cerr
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, false, source.Transient(fmt.Errorf("decode search response: %w", err))
	}

	urls := make([]string, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.RedirectURL == "" {
			continue
		}
		urls = append(urls, r.RedirectURL)
	}
	return urls, len(sr.Results) == pageSize, nil
}

func maxDaysOld(f domain.Freshness) int {
	switch f {
	case domain.FreshDay:
		return 1
	case domain.FreshWeek:
		return 7
	case domain.FreshMonth:
		return 31
	case domain.FreshYear:
		return 365
	default:
		return 7
	}
}
