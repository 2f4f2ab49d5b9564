package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"partcounter/internal/config"
	"partcounter/internal/handler"
	"partcounter/internal/logger"
	"partcounter/internal/repository/sqlite"
	"partcounter/internal/route"
	"partcounter/internal/service"
	"partcounter/internal/service/bom"
	"partcounter/internal/service/counting"
	"partcounter/internal/service/metrics"
	"partcounter/internal/service/recorder"
	"partcounter/internal/service/report"
	"partcounter/internal/service/websocket"
)

type App struct {
	config       *config.Config
	logger       *logger.Logger
	db           *sqlite.DB
	crossingRepo *sqlite.CrossingRepository
	parts        *bom.Reader
	metrics      *metrics.Metrics
	hubService   *websocket.HubService
	manager      *service.Manager
}

// Markers converts the configured line markers for the counter.
func Markers(cfg *config.Config) counting.LineMarkers {
	markers := make(counting.LineMarkers, 0, len(cfg.LineMarkers))
	for _, m := range cfg.LineMarkers {
		markers = append(markers, counting.LineMarker{Marker: m.Marker, Line: m.Line})
	}
	return markers
}

// NewRecorder wires the part lookup and every configured crossing store.
func NewRecorder(cfg *config.Config, parts recorder.PartLookup, logger *logger.Logger, m *metrics.Metrics, repo *sqlite.CrossingRepository) *recorder.CrossingRecorder {
	rec := recorder.NewCrossingRecorder(parts, Markers(cfg), logger, m)
	rec.AddStore("sqlite", recorder.StoreFunc(repo.InsertBatch))

	if cfg.ReportPath != "" {
		xlsx, err := report.NewReport(cfg.ReportPath, logger)
		if err != nil {
			logger.Error("Crossing report disabled: %v", err)
		} else {
			rec.AddStore("xlsx", recorder.StoreFunc(xlsx.Append))
		}
	}
	return rec
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	repo := sqlite.NewCrossingRepository(db)

	parts := bom.NewReader(cfg.BOMPath, log)
	m := metrics.New()
	hub := websocket.NewHubService(cfg.FrameQueueSize, log)

	counter := counting.NewCounter(counting.NewDetector(cfg.LinePosition), NewRecorder(cfg, parts, log, m, repo), Markers(cfg))
	mng := service.NewManager(counter, hub, m, log, cfg.FrameQueueSize, 1)

	return &App{
		config:       cfg,
		logger:       log,
		db:           db,
		crossingRepo: repo,
		parts:        parts,
		metrics:      m,
		hubService:   hub,
		manager:      mng,
	}, nil
}

// Run serves HTTP and the UDP camera feed until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.hubService.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		handler.UDPCameraHandler(ctx, a.manager, a.logger, a.config)
	}()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: route.SetupRoutes(a.manager, a.config, a.logger, a.crossingRepo, a.parts, a.metrics),
	}

	a.logger.Info("Part line counter listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Counting line at %v, database %s, report %s", a.config.LinePosition, a.config.DatabasePath, a.config.ReportPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		err = server.Shutdown(shutdownCtx)
		stop()
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	cancel()
	wg.Wait()
	a.manager.Stop()
	return err
}

// Close releases the database and log files.
func (a *App) Close() error {
	dbErr := a.db.Close()
	a.logger.Close()
	return dbErr
}
