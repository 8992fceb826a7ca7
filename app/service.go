package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kilianp07/caresched/config"
	"github.com/kilianp07/caresched/core/generator"
	coremetrics "github.com/kilianp07/caresched/core/metrics"
	coremon "github.com/kilianp07/caresched/core/monitoring"
	"github.com/kilianp07/caresched/core/optimizer"
	"github.com/kilianp07/caresched/core/solver"
	"github.com/kilianp07/caresched/infra/cache"
	"github.com/kilianp07/caresched/infra/journal"
	"github.com/kilianp07/caresched/infra/logger"
	_ "github.com/kilianp07/caresched/infra/metrics"
	"github.com/kilianp07/caresched/infra/monitoring"
	"github.com/kilianp07/caresched/infra/mqtt"
	"github.com/kilianp07/caresched/infra/schedulejson"
	_ "github.com/kilianp07/caresched/infra/solver/bnb"
	"github.com/kilianp07/caresched/internal/eventbus"
)

// Event is published on the service bus after each generation or
// optimization.
type Event struct {
	Kind     string
	Report   *optimizer.Report
	Schedule json.RawMessage
	Time     time.Time
}

// Result is the outcome of Service.Optimize.
type Result struct {
	Snapshot optimizer.Snapshot
	Body     []byte
	Report   optimizer.Report
	Cached   bool
}

// Deps overrides the components New would otherwise build from the
// configuration. Zero fields are built from the configuration.
type Deps struct {
	Backend   solver.Backend
	Sink      coremetrics.MetricsSink
	Cache     cache.Cache
	Journal   journal.Store
	Publisher mqtt.Publisher
	Logger    logger.Logger
}

// Service wires the generator and the optimization engine to the cache,
// the run journal, the MQTT publisher and the metrics sinks.
type Service struct {
	cfg       *config.Config
	engine    *optimizer.Engine
	sink      coremetrics.MetricsSink
	cache     cache.Cache
	journal   journal.Store
	publisher mqtt.Publisher
	bus       *eventbus.Bus[Event]
	log       logger.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	listeners []<-chan struct{}
}

// New creates a Service from the configuration.
func New(cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.New("service")
	}

	reporter, err := monitoring.NewSentryReporter(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	coremon.Init(reporter)

	backend := deps.Backend
	if backend == nil {
		b, err := solver.NewBackend(cfg.Optimizer.Solver)
		if err != nil {
			return nil, fmt.Errorf("solver backend: %w", err)
		}
		backend = b
	}
	sink := deps.Sink
	if sink == nil {
		s, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		sink = s
	}
	engine, err := optimizer.New(backend, sink, logger.New("optimizer"))
	if err != nil {
		return nil, err
	}

	svc := &Service{
		cfg:       cfg,
		engine:    engine,
		sink:      sink,
		cache:     deps.Cache,
		journal:   deps.Journal,
		publisher: deps.Publisher,
		bus:       eventbus.New[Event](eventbus.DefaultBuffer),
		log:       logg,
	}
	if svc.cache == nil {
		if svc.cache, err = cache.New(cfg.Cache, logger.New("cache")); err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
	}
	if svc.journal == nil {
		if svc.journal, err = journal.New(cfg.Journal); err != nil {
			_ = svc.cache.Close()
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	if svc.publisher == nil {
		svc.publisher = mqtt.NopPublisher{}
		if cfg.MQTTEnabled() {
			p, err := mqtt.NewPahoPublisher(cfg.MQTT, logger.New("mqtt"))
			if err != nil {
				_ = svc.cache.Close()
				_ = svc.journal.Close()
				return nil, fmt.Errorf("mqtt publisher: %w", err)
			}
			svc.publisher = p
		}
	}
	return svc, nil
}

// Start subscribes the journal and the publisher to the service bus. The
// subscribers stop when ctx is done or Close is called.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.listeners = append(s.listeners,
		s.bus.Listen(ctx, s.journalEvent),
		s.bus.Listen(ctx, s.publishEvent),
	)
}

func (s *Service) journalEvent(ev Event) {
	if ev.Report == nil {
		return
	}
	rec := journal.FromReport(*ev.Report)
	if err := s.journal.Append(context.Background(), rec); err != nil {
		s.log.Errorf("journal run %s: %v", rec.RunID, err)
		coremon.CaptureException(err, map[string]string{"component": "journal", "run_id": rec.RunID})
	}
}

func (s *Service) publishEvent(ev Event) {
	msg := mqtt.Message{Schedule: ev.Schedule, Timestamp: ev.Time}
	if ev.Report != nil {
		msg.RunID = ev.Report.RunID
		msg.Mode = string(ev.Report.Mode)
		msg.Status = ev.Report.StatusLabel()
		msg.Fallback = ev.Report.Fallback()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, ev.Kind, msg); err != nil {
		s.log.Warnf("publish %s schedule: %v", ev.Kind, err)
		coremon.CaptureException(err, map[string]string{"component": "mqtt", "kind": ev.Kind})
	}
}

// Mode resolves a requested mode name, using the configured mode when name
// is empty.
func (s *Service) Mode(name string) (optimizer.Mode, error) {
	if name == "" {
		name = s.cfg.Optimizer.Mode
	}
	return optimizer.ParseMode(name)
}

// Budget returns the configured time budget.
func (s *Service) Budget() time.Duration { return s.cfg.Optimizer.Budget() }

// MaxBudget returns the largest budget Optimize will spend on one solve.
func (s *Service) MaxBudget() time.Duration { return s.cfg.Optimizer.MaxBudget() }

// Optimize runs the engine on snap. Snapshots with a wire encoding are
// looked up in the cache first, and solved results are stored there.
// budget <= 0 selects the configured budget, and budgets above MaxBudget
// are clamped to it.
func (s *Service) Optimize(ctx context.Context, snap optimizer.Snapshot, mode optimizer.Mode, budget time.Duration) (Result, error) {
	if budget <= 0 {
		budget = s.Budget()
	}
	if limit := s.MaxBudget(); limit > 0 && budget > limit {
		s.log.Warnf("budget %s clamped to %s", budget, limit)
		budget = limit
	}
	in, encErr := schedulejson.Encode(snap)
	key := ""
	if encErr == nil {
		key = cache.Key(string(mode), budget, in)
		if body, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warnf("cache get: %v", err)
		} else if ok {
			out, err := schedulejson.Decode(body)
			if err == nil {
				return Result{Snapshot: out, Body: body, Report: optimizer.Report{Mode: mode}, Cached: true}, nil
			}
			s.log.Warnf("cache entry %s unreadable: %v", key, err)
		}
	}

	out, rep, err := s.engine.Optimize(snap, mode, budget)
	if err != nil {
		return Result{Report: rep}, err
	}
	res := Result{Snapshot: out, Report: rep}
	if encErr == nil {
		if res.Body, err = schedulejson.Encode(out); err != nil {
			return res, err
		}
		if rep.Outcome == optimizer.OutcomeSolved {
			if err := s.cache.Set(ctx, key, res.Body); err != nil {
				s.log.Warnf("cache set: %v", err)
			}
		}
	}
	s.bus.Publish(Event{Kind: mqtt.KindOptimized, Report: &rep, Schedule: res.Body, Time: time.Now()})
	return res, nil
}

// Generate runs the faker pipeline with overrides applied on top of the
// configured generator settings.
func (s *Service) Generate(_ context.Context, overrides generator.Config) (*generator.Result, error) {
	cfg := s.cfg.Generator.Generator()
	if overrides.Caretakers > 0 {
		cfg.Caretakers = overrides.Caretakers
	}
	if overrides.Patients > 0 {
		cfg.Patients = overrides.Patients
	}
	if overrides.Seed != 0 {
		cfg.Seed = overrides.Seed
	}
	res, err := generator.Run(cfg, logger.New("generator"))
	if err != nil {
		return nil, err
	}
	ev := coremetrics.GenerationEvent{
		Caretakers:    len(res.Caretakers),
		Patients:      len(res.Patients),
		Filled:        res.Stats.Filled,
		Unfilled:      res.Stats.Unfilled,
		Substitutions: res.Substitutions,
		Time:          time.Now(),
	}
	if err := s.sink.RecordGeneration(ev); err != nil {
		s.log.Errorf("record generation: %v", err)
	}
	body, err := json.Marshal(res.CaretakerView())
	if err != nil {
		return nil, err
	}
	s.bus.Publish(Event{Kind: mqtt.KindGenerated, Schedule: body, Time: ev.Time})
	return res, nil
}

// Runs queries the run journal.
func (s *Service) Runs(ctx context.Context, q journal.Query) ([]journal.Record, error) {
	return s.journal.Query(ctx, q)
}

// Serve runs the HTTP server on handler until ctx is done, then shuts it
// down gracefully.
func (s *Service) Serve(ctx context.Context, handler http.Handler) error {
	sc := s.cfg.Server
	srv := &http.Server{
		Addr:         sc.Address,
		Handler:      handler,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", sc.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close drains the bus subscribers and releases the stores.
func (s *Service) Close() error {
	s.mu.Lock()
	s.bus.Close()
	listeners := s.listeners
	s.listeners = nil
	cancel := s.cancel
	s.mu.Unlock()
	for _, done := range listeners {
		<-done
	}
	if cancel != nil {
		cancel()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(s.publisher.Close(), s.journal.Close(), s.cache.Close())
}
