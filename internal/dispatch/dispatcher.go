// Package dispatch owns the discovery pipeline: per-source work queues,
// bounded worker pools for the search and extraction stages, and the
// collector that folds every outcome into one RunSummary. Aggregation is
// commutative counting, so the non-deterministic completion order of
// workers cannot change the result.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobscout-engine/internal/backoff"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/ratelimit"
	"jobscout-engine/internal/source"
	"jobscout-engine/internal/validate"
)

// JobSink is the slice of the store the dispatcher needs: the atomic
// insert-or-refresh entry point.
type JobSink interface {
	InsertIfNew(ctx context.Context, j domain.Job) (bool, error)
}

// RecordValidator turns a raw record into a scored job candidate or a
// rejection. Implementations must be side-effect free.
type RecordValidator interface {
	Validate(ctx context.Context, rec domain.RawRecord) (domain.Job, *validate.Rejection)
}

// Source bundles one source's provider, extractor, and pool size.
type Source struct {
	Provider  source.SearchProvider
	Extractor source.Extractor
	PoolSize  int
}

// Options are the run-level tunables. The zero value is not valid; use
// DefaultOptions as a base.
type Options struct {
	QueueSize      int
	AcquireTimeout time.Duration
	TaskTimeout    time.Duration
	GracePeriod    time.Duration
	Policy         backoff.Policy

	// OnNewJob fires for every newly persisted job, after commit.
	OnNewJob func(domain.Job)
}

func DefaultOptions() Options {
	return Options{
		QueueSize:      64,
		AcquireTimeout: 30 * time.Second,
		TaskTimeout:    60 * time.Second,
		GracePeriod:    10 * time.Second,
		Policy:         backoff.Default(),
	}
}

type Dispatcher struct {
	sources   map[string]Source
	sink      JobSink
	validator RecordValidator
	limiter   *ratelimit.SourceLimiter
	opts      Options
	log       *zap.Logger
}

func New(sources map[string]Source, sink JobSink, validator RecordValidator,
	limiter *ratelimit.SourceLimiter, opts Options, log *zap.Logger) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Policy.Retryable == nil {
		opts.Policy.Retryable = source.IsRetryable
	}
	return &Dispatcher{
		sources:   sources,
		sink:      sink,
		validator: validator,
		limiter:   limiter,
		opts:      opts,
		log:       log.Named("dispatch"),
	}
}

// outcome is what flows from workers to the collector. Exactly one of the
// payload fields is meaningful per outcome.
type outcome struct {
	sourceID string

	// search stage
	urlsFound int
	junkURLs  int

	// extraction stage
	job       *domain.Job
	rejection *validate.Rejection

	err error // classified failure, after retries
}

// Run drives the full pipeline for one query set. It returns an error only
// for non-recoverable failures (no sources registered, the store refusing
// writes); individual provider failures are folded into the summary.
//
// Cancellation or a deadline on ctx stops intake immediately, gives
// in-flight calls GracePeriod to finish, and reports whatever could not be
// drained in Summary.Incomplete.
func (d *Dispatcher) Run(ctx context.Context, queries []domain.JobQuery) (*domain.RunSummary, error) {
	if len(d.sources) == 0 {
		return nil, errors.New("no sources registered")
	}

	sum := domain.NewRunSummary(uuid.NewString())
	start := time.Now()

	d.log.Info("run started",
		zap.String("run_id", sum.RunID),
		zap.Int("queries", len(queries)),
		zap.Int("sources", len(d.sources)))

	// Partition queries per source; queries naming an unregistered source
	// count as source errors so the summary never hides them.
	bySource := make(map[string][]domain.JobQuery)
	var mu sync.Mutex // guards sum during the run
	validQueries := 0
	for _, q := range queries {
		if _, ok := d.sources[q.SourceID]; !ok {
			d.log.Warn("query for unknown source", zap.String("source", q.SourceID))
			sum.SourceErrors[q.SourceID]++
			continue
		}
		bySource[q.SourceID] = append(bySource[q.SourceID], q)
		validQueries++
	}
	sum.QueriesIssued = validQueries

	// workCtx outlives ctx by GracePeriod so in-flight calls may finish;
	// new work stops the moment ctx is done.
	workCtx, workCancel := context.WithCancel(context.Background())
	defer workCancel()
	runDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			t := time.NewTimer(d.opts.GracePeriod)
			defer t.Stop()
			select {
			case <-t.C:
			case <-runDone:
			}
			workCancel()
		case <-runDone:
		}
	}()

	results := make(chan outcome, 2*d.opts.QueueSize)
	var searchDone, extractDone, extractSubmitted atomic.Int64
	seenURLs := &sync.Map{} // run-level URL dedup across sources

	var pipelines errgroup.Group
	for id, src := range d.sources {
		qs := bySource[id]
		if len(qs) == 0 {
			continue
		}
		id, src, qs := id, src, qs
		pipelines.Go(func() error {
			d.runSource(ctx, workCtx, id, src, qs, results, seenURLs,
				&searchDone, &extractDone, &extractSubmitted)
			return nil
		})
	}

	// Collector: the only goroutine that touches the sink. It drains until
	// all pipelines exit, so worker sends can never wedge.
	collectErr := make(chan error, 1)
	go func() {
		collectErr <- d.collect(workCtx, results, sum, &mu)
	}()

	_ = pipelines.Wait()
	close(runDone)
	close(results)
	storeErr := <-collectErr

	mu.Lock()
	sum.Incomplete += int(int64(validQueries) - searchDone.Load() +
		extractSubmitted.Load() - extractDone.Load())
	sum.Duration = time.Since(start)
	mu.Unlock()

	if storeErr != nil {
		d.log.Error("run aborted: store unavailable", zap.Error(storeErr))
		return nil, fmt.Errorf("job store failed mid-run: %w", storeErr)
	}

	d.log.Info("run finished",
		zap.String("run_id", sum.RunID),
		zap.Duration("took", sum.Duration),
		zap.Int("new_jobs", sum.NewJobs),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("rejects", sum.TotalRejects()),
		zap.Int("source_errors", sum.TotalSourceErrors()),
		zap.Int("incomplete", sum.Incomplete))
	return sum, nil
}

// runSource runs the two-stage pipeline for one source: a search pool
// feeding an extraction pool through a bounded queue, so extraction
// overlaps with the remaining searches instead of waiting for them.
func (d *Dispatcher) runSource(ctx, workCtx context.Context, id string, src Source,
	queries []domain.JobQuery, results chan<- outcome, seenURLs *sync.Map,
	searchDone, extractDone, extractSubmitted *atomic.Int64) {

	poolSize := src.PoolSize
	if poolSize <= 0 {
		poolSize = 3
	}

	searchCh := make(chan domain.WorkerTask, d.opts.QueueSize)
	extractCh := make(chan domain.WorkerTask, d.opts.QueueSize)

	w := &worker{
		sourceID:       id,
		limiter:        d.limiter,
		policy:         d.opts.Policy,
		acquireTimeout: d.opts.AcquireTimeout,
		taskTimeout:    d.opts.TaskTimeout,
		log:            d.log.With(zap.String("source", id)),
	}

	// Feeder preserves submission order onto the FIFO queue.
	go func() {
		defer close(searchCh)
		for _, q := range queries {
			t := domain.WorkerTask{
				ID:       uuid.NewString(),
				Kind:     domain.TaskSearch,
				SourceID: id,
				Query:    q,
			}
			select {
			case searchCh <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	var searchers sync.WaitGroup
	for i := 0; i < poolSize; i++ {
		searchers.Add(1)
		go func() {
			defer searchers.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-searchCh:
					if !ok {
						return
					}
					d.searchTask(ctx, workCtx, w, src, t, extractCh, results,
						seenURLs, extractSubmitted)
					searchDone.Add(1)
				}
			}
		}()
	}

	var extractors sync.WaitGroup
	for i := 0; i < poolSize; i++ {
		extractors.Add(1)
		go func() {
			defer extractors.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-extractCh:
					if !ok {
						return
					}
					d.extractTask(workCtx, w, src, t, results)
					extractDone.Add(1)
				}
			}
		}()
	}

	searchers.Wait()
	close(extractCh)
	extractors.Wait()
}

func (d *Dispatcher) searchTask(ctx, workCtx context.Context, w *worker, src Source,
	t domain.WorkerTask, extractCh chan<- domain.WorkerTask, results chan<- outcome,
	seenURLs *sync.Map, extractSubmitted *atomic.Int64) {

	urls, err := w.search(workCtx, src.Provider, t.Query)
	if err != nil {
		w.log.Warn("search failed",
			zap.String("keyword", t.Query.Keyword), zap.Error(err))
		results <- outcome{sourceID: t.SourceID, err: err}
		return
	}

	o := outcome{sourceID: t.SourceID}
	abandoned := false
	for _, raw := range urls {
		u := source.CanonicalizeURL(raw)
		if u == "" {
			continue
		}
		if source.IsJunkURL(u) {
			o.junkURLs++
			continue
		}
		if _, dup := seenURLs.LoadOrStore(u, struct{}{}); dup {
			continue
		}
		o.urlsFound++
		extractSubmitted.Add(1)
		if abandoned {
			// still counted as discovered; the missing extraction shows
			// up in Incomplete
			continue
		}

		et := domain.WorkerTask{
			ID:       uuid.NewString(),
			Kind:     domain.TaskExtract,
			SourceID: t.SourceID,
			URL:      u,
		}
		select {
		case extractCh <- et:
		case <-ctx.Done():
			abandoned = true
		}
	}
	results <- o
}

func (d *Dispatcher) extractTask(workCtx context.Context, w *worker, src Source,
	t domain.WorkerTask, results chan<- outcome) {

	rec, err := w.extract(workCtx, src.Extractor, t.URL)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			results <- outcome{sourceID: t.SourceID,
				rejection: &validate.Rejection{Reason: domain.RejectNotFound, Detail: t.URL}}
			return
		}
		w.log.Warn("extraction failed", zap.String("url", t.URL), zap.Error(err))
		results <- outcome{sourceID: t.SourceID, err: err}
		return
	}

	// Validation runs in the worker so reachability probes overlap;
	// it is pure, so concurrency costs nothing.
	job, rej := d.validator.Validate(workCtx, rec)
	if rej != nil {
		results <- outcome{sourceID: t.SourceID, rejection: rej}
		return
	}
	results <- outcome{sourceID: t.SourceID, job: &job}
}

// collect folds outcomes into the summary and is the single path to the
// sink. A store failure is retried once with backoff; failing again makes
// the whole run non-recoverable, because the dedup invariant cannot be
// trusted past that point.
func (d *Dispatcher) collect(workCtx context.Context, results <-chan outcome,
	sum *domain.RunSummary, mu *sync.Mutex) error {

	var storeErr error
	for o := range results {
		mu.Lock()
		switch {
		case o.err != nil:
			if errors.Is(o.err, context.Canceled) || workCtx.Err() != nil {
				// work abandoned at shutdown is incomplete, not a
				// provider failure
				sum.Incomplete++
			} else {
				sum.SourceErrors[o.sourceID]++
			}
		case o.rejection != nil:
			sum.RecordsSeen++
			sum.Rejects[o.rejection.Reason]++
		case o.job != nil:
			sum.RecordsSeen++
		default: // search outcome; zero URLs is a normal result, not an error
			sum.URLsDiscovered += o.urlsFound
			if o.junkURLs > 0 {
				sum.Rejects[domain.RejectJunkURL] += o.junkURLs
			}
		}
		mu.Unlock()

		if o.job == nil || storeErr != nil {
			if o.job != nil {
				mu.Lock()
				sum.Incomplete++
				mu.Unlock()
			}
			continue
		}

		isNew, err := d.persist(workCtx, *o.job)
		if err != nil {
			if workCtx.Err() != nil {
				// shutdown races are not store failures
				mu.Lock()
				sum.Incomplete++
				mu.Unlock()
				continue
			}
			storeErr = err
			continue
		}

		mu.Lock()
		if isNew {
			sum.NewJobs++
		} else {
			sum.Duplicates++
		}
		mu.Unlock()

		if isNew && d.opts.OnNewJob != nil {
			d.opts.OnNewJob(*o.job)
		}
	}
	return storeErr
}

func (d *Dispatcher) persist(ctx context.Context, j domain.Job) (bool, error) {
	isNew, err := d.sink.InsertIfNew(ctx, j)
	if err == nil {
		return isNew, nil
	}

	d.log.Warn("store insert failed, retrying once", zap.Error(err))
	t := time.NewTimer(d.opts.Policy.Delay(0))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-t.C:
	}
	return d.sink.InsertIfNew(ctx, j)
}
