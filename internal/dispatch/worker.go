package dispatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jobscout-engine/internal/backoff"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/ratelimit"
	"jobscout-engine/internal/source"
)

// worker executes one task at a time against one source. It owns no state
// beyond its wiring; all coordination happens through the queues and the
// shared rate limiter.
type worker struct {
	sourceID       string
	limiter        *ratelimit.SourceLimiter
	policy         backoff.Policy
	acquireTimeout time.Duration
	taskTimeout    time.Duration
	log            *zap.Logger
}

// call wraps one outbound attempt: permit first, then the provider call
// under the per-task timeout. A permit timeout and a task timeout are both
// transient; the backoff policy decides how often to come back.
func (w *worker) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return w.policy.Do(ctx, func(ctx context.Context) error {
		if err := w.limiter.Acquire(ctx, w.sourceID, w.acquireTimeout); err != nil {
			if errors.Is(err, ratelimit.ErrAcquireTimeout) {
				return source.Transient(err)
			}
			return err
		}

		tctx, cancel := context.WithTimeout(ctx, w.taskTimeout)
		defer cancel()

		err := fn(tctx)
		if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return source.Transient(err)
		}
		return err
	})
}

func (w *worker) search(ctx context.Context, p source.SearchProvider, q domain.JobQuery) ([]string, error) {
	var urls []string
	err := w.call(ctx, func(ctx context.Context) error {
		res, err := p.Search(ctx, q)
		if err != nil {
			return err
		}
		urls = res
		return nil
	})
	return urls, err
}

func (w *worker) extract(ctx context.Context, e source.Extractor, url string) (domain.RawRecord, error) {
	var rec domain.RawRecord
	err := w.call(ctx, func(ctx context.Context) error {
		res, err := e.Extract(ctx, w.sourceID, url)
		if err != nil {
			return err
		}
		rec = res
		return nil
	})
	return rec, err
}
