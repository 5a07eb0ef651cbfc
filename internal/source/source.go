// Package source defines the provider boundaries the dispatcher fans out
// to: search providers that turn a query into candidate URLs, and
// extractors that turn a URL into a raw record.
package source

import (
	"context"

	"jobscout-engine/internal/domain"
)

// SearchProvider executes one search query against one external provider.
// Implementations supply their own auth and pagination; rate limiting and
// retries belong to the worker wrapping them.
type SearchProvider interface {
	ID() string
	Search(ctx context.Context, q domain.JobQuery) ([]string, error)
}

// Extractor fetches one candidate URL and produces at most one raw record.
// A page that exists but is not a job posting returns ErrNotFound.
type Extractor interface {
	Extract(ctx context.Context, sourceID, url string) (domain.RawRecord, error)
}
