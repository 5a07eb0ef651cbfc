package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"jobscout-engine/internal/backoff"
	"jobscout-engine/internal/config"
	"jobscout-engine/internal/dispatch"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/httpapi"
	"jobscout-engine/internal/logging"
	"jobscout-engine/internal/ratelimit"
	"jobscout-engine/internal/scheduler"
	"jobscout-engine/internal/secrets"
	"jobscout-engine/internal/source"
	"jobscout-engine/internal/source/boardapi"
	"jobscout-engine/internal/source/boardhtml"
	"jobscout-engine/internal/source/emailalert"
	"jobscout-engine/internal/source/extract"
	"jobscout-engine/internal/store"
	"jobscout-engine/internal/validate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "jobscout:", err)
		os.Exit(1)
	}
}

func run() error {
	// Engine data dir: env wins so a desktop shell can pass its own.
	dataDir := os.Getenv("JOBSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// One engine per data dir. The sqlite store runs a single write
	// connection, a second process would fight it over the file.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("instance lock: %w", err)
	}
	if !locked {
		return errors.New("another engine instance holds " + lock.Path())
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		return fmt.Errorf("config bootstrap: %w", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		return fmt.Errorf("config load (%s): %w", userCfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config invalid (%s): %w", userCfgPath, err)
	}

	log, err := logging.New(cfg.App.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.Open(filepath.Join(dataDir, "jobscout.db"))
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}
	defer st.Close()

	hub := events.NewHub()

	disp, err := buildDispatcher(cfg, st, hub, log)
	if err != nil {
		return err
	}

	runTimeout := cfg.RunTimeout()
	triggerRun := func(ctx context.Context) (*domain.RunSummary, error) {
		ctx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		sum, err := disp.Run(ctx, buildQueries(cfg))
		if err != nil {
			return nil, err
		}
		if err := st.LogRun(context.Background(), sum); err != nil {
			log.Warn("run summary not persisted", zap.Error(err))
		}
		return sum, nil
	}

	var runStatus atomic.Value
	runStatus.Store(httpapi.RunStatus{})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(rootCtx, log)
	if spec := cfg.Schedule.DiscoveryCron; spec != "" {
		err := sched.Add(spec, "discovery", func(ctx context.Context) error {
			cur := runStatus.Load().(httpapi.RunStatus)
			if cur.Running {
				return errors.New("previous run still in progress")
			}
			runStatus.Store(httpapi.RunStatus{Running: true, LastRunAt: time.Now().Format(time.RFC3339)})
			hub.Publish(events.Make(events.TypeRunStarted, nil))

			sum, err := triggerRun(ctx)
			next := httpapi.RunStatus{LastRunAt: time.Now().Format(time.RFC3339)}
			if err != nil {
				next.LastError = err.Error()
			} else {
				next.LastSummary = sum
			}
			runStatus.Store(next)
			hub.Publish(events.Make(events.TypeRunFinished, next))
			return err
		})
		if err != nil {
			return err
		}
	}
	if spec := cfg.Schedule.RetentionCron; spec != "" {
		maxAge := time.Duration(cfg.Retention.MaxAgeDays) * 24 * time.Hour
		err := sched.Add(spec, "retention", func(ctx context.Context) error {
			n, err := st.DeleteOlderThan(ctx, maxAge)
			if err != nil {
				return err
			}
			if n > 0 {
				hub.Publish(events.Make(events.TypeSweepApplied, map[string]any{"deleted": n}))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	mux := httpapi.NewMux(httpapi.Deps{
		Store:      st,
		Hub:        hub,
		Log:        log,
		RunStatus:  &runStatus,
		TriggerRun: triggerRun,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("engine listening",
		zap.String("addr", "http://"+addr),
		zap.String("data_dir", dataDir),
	)

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover(log),
			httpapi.AccessLog(log),
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-rootCtx.Done():
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func buildDispatcher(cfg config.Config, st *store.Store, hub *events.Hub, log *zap.Logger) (*dispatch.Dispatcher, error) {
	extractor := extract.NewGeneric(log)

	sources := make(map[string]dispatch.Source)
	buckets := make(map[string]ratelimit.Bucket)
	for _, sc := range cfg.EnabledSources() {
		var provider source.SearchProvider
		switch sc.Kind {
		case config.KindBoardAPI:
			provider = boardapi.New(boardapi.Config{
				SourceID: sc.ID,
				Endpoint: sc.Endpoint,
				AppID:    sc.AppID,
				AppKey:   sc.AppKey,
			}, log)
		case config.KindBoardHTML:
			provider = boardhtml.New(boardhtml.Config{
				SourceID: sc.ID,
				Endpoint: sc.Endpoint,
			}, log)
		case config.KindEmailAlert:
			password, err := secrets.GetIMAPPassword(sc.KeyringAccount)
			if err != nil {
				log.Warn("imap password unavailable, source will fail fast",
					zap.String("source", sc.ID), zap.Error(err))
			}
			provider = emailalert.New(emailalert.Config{
				SourceID: sc.ID,
				Addr:     sc.IMAPAddr,
				Username: sc.IMAPUsername,
				Password: password,
				Mailbox:  sc.Mailbox,
			}, log)
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", sc.ID, sc.Kind)
		}

		sources[sc.ID] = dispatch.Source{
			Provider:  provider,
			Extractor: extractor,
			PoolSize:  sc.PoolSize,
		}
		buckets[sc.ID] = ratelimit.Bucket{PerSec: sc.RatePerSec, Burst: sc.Burst}
	}

	limiter := ratelimit.New(buckets, ratelimit.Bucket{PerSec: 1, Burst: 1})
	validator := validate.New(cfg)

	opts := dispatch.DefaultOptions()
	opts.QueueSize = cfg.Limits.QueueSize
	opts.AcquireTimeout = cfg.AcquireTimeout()
	opts.TaskTimeout = cfg.TaskTimeout()
	opts.GracePeriod = cfg.GracePeriod()
	opts.Policy = backoff.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
		Jitter:      0.2,
	}
	opts.OnNewJob = func(j domain.Job) {
		hub.Publish(events.JobCreated(j))
	}

	return dispatch.New(sources, st, validator, limiter, opts, log), nil
}

func buildQueries(cfg config.Config) []domain.JobQuery {
	fresh := domain.Freshness(cfg.Queries.Freshness)
	var out []domain.JobQuery
	for _, src := range cfg.EnabledSources() {
		for _, kw := range cfg.Queries.Keywords {
			out = append(out, domain.JobQuery{
				SourceID:  src.ID,
				Keyword:   kw,
				Freshness: fresh,
				Location:  cfg.Queries.Location,
			})
		}
	}
	return out
}
