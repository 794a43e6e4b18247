// Package app assembles the scheduling engine from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apiappointments "github.com/dockops/yms/api/appointments"
	apiyard "github.com/dockops/yms/api/yard"
	"github.com/dockops/yms/config"
	"github.com/dockops/yms/core/analytics"
	"github.com/dockops/yms/core/appointment"
	coremetrics "github.com/dockops/yms/core/metrics"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/core/schedule"
	"github.com/dockops/yms/core/trailer"
	"github.com/dockops/yms/core/yard"
	"github.com/dockops/yms/infra/cache"
	"github.com/dockops/yms/infra/logger"
	"github.com/dockops/yms/infra/metrics"
	"github.com/dockops/yms/infra/notify"
	mongostore "github.com/dockops/yms/infra/store/mongo"
	"github.com/dockops/yms/internal/eventbus"
)

// Service orchestrates the schedulers, trackers and the HTTP API.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	bus       *eventbus.Bus
	mgr       *appointment.Manager
	tracker   *trailer.Tracker
	engine    *yard.Engine
	agg       *analytics.Aggregator
	opt       *analytics.Optimizer
	view      *schedule.View
	notifier  *notify.MQTTNotifier
	viewCache *cache.RedisViewCache
	mongo     *mongostore.Client
	srv       *http.Server
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{cfg: cfg, log: logg, bus: eventbus.New()}

	var (
		apptStore appointment.Store
		trlStore  trailer.Store
		locStore  yard.LocationStore
		moveStore yard.MoveStore
	)
	switch cfg.Storage.Backend {
	case "mongo":
		cli, err := mongostore.Connect(ctx, cfg.Storage.Mongo)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		svc.mongo = cli
		apptStore = cli.Appointments()
		trlStore = cli.Trailers()
		locStore = cli.Locations()
		moveStore = cli.Moves()
	default:
		apptStore = appointment.NewMemoryStore()
		trlStore = trailer.NewMemoryStore()
		locStore = yard.NewMemoryLocationStore()
		moveStore = yard.NewMemoryMoveStore()
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	var viewCache schedule.ViewCache
	if cfg.Cache.Enabled {
		rc, err := cache.NewRedisViewCache(ctx, cfg.Cache)
		if err != nil {
			logg.Warnf("redis cache unavailable, views recompute every read: %v", err)
		} else {
			svc.viewCache = rc
			viewCache = rc
		}
	}

	cal := schedule.NewCalendar(cfg.Schedule)
	alloc := schedule.NewAllocator(cal, apptStore)
	view := schedule.NewView(cal, apptStore, viewCache, logger.New("schedule-view"))

	mgr, err := appointment.NewManager(alloc, apptStore, view, svc.bus, sink, logger.New("appointments"))
	if err != nil {
		return nil, err
	}
	tracker, err := trailer.NewTracker(cfg.Trailer, trlStore, mgr, locStore, svc.bus, sink, logger.New("trailers"))
	if err != nil {
		return nil, err
	}
	engine, err := yard.NewEngine(locStore, moveStore, trlStore, svc.bus, sink, logger.New("yard"))
	if err != nil {
		return nil, err
	}
	agg, err := analytics.NewAggregator(cfg.Analytics, cal, apptStore, trlStore, locStore, logger.New("analytics"))
	if err != nil {
		return nil, err
	}
	opt := analytics.NewOptimizer(agg, analytics.DefaultModel(cfg.Trailer.DetentionHourlyRate))

	if err := seedLocations(ctx, engine, cfg); err != nil {
		return nil, err
	}

	if cfg.MQTT.Enabled {
		notifier, err := notify.NewMQTTNotifier(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.notifier = notifier
	}

	svc.mgr = mgr
	svc.tracker = tracker
	svc.engine = engine
	svc.agg = agg
	svc.opt = opt
	svc.view = view

	mux := http.NewServeMux()
	apiappointments.NewHandler(mgr, view).Register(mux)
	apiyard.NewHandler(tracker, engine, agg, opt).Register(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	svc.srv = &http.Server{Addr: cfg.Server.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return svc, nil
}

func seedLocations(ctx context.Context, engine *yard.Engine, cfg *config.Config) error {
	for _, l := range cfg.YardLocations {
		kind := model.LocationParking
		switch l.Kind {
		case "staging":
			kind = model.LocationStaging
		case "waiting":
			kind = model.LocationWaiting
		}
		err := engine.AddLocation(ctx, model.YardLocation{
			Code:        l.Code,
			WarehouseID: cfg.WarehouseID,
			Kind:        kind,
			Capacity:    l.Capacity,
			Active:      true,
			GridX:       l.GridX,
			GridY:       l.GridY,
		})
		if err != nil {
			return fmt.Errorf("seed location %s: %w", l.Code, err)
		}
	}
	return nil
}

// Run starts the HTTP API and the background consumers, blocking until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.notifier != nil {
		dispatcher := notify.NewDispatcher(s.bus, s.notifier, s.log)
		go dispatcher.Run(ctx)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http api listening on %s", s.cfg.Server.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.viewCache != nil {
		_ = s.viewCache.Close()
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.mongo.Close(ctx)
	}
	return nil
}

// Manager exposes the appointment manager, used by the demo command.
func (s *Service) Manager() *appointment.Manager { return s.mgr }

// WarehouseID returns the configured warehouse.
func (s *Service) WarehouseID() string { return s.cfg.WarehouseID }
