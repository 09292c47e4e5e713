package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"oceanguard/internal/config"
	"oceanguard/internal/handler"
	"oceanguard/internal/logger"
	"oceanguard/internal/repository/sqlite"
	"oceanguard/internal/routes"
	"oceanguard/internal/service"
	"oceanguard/internal/service/ai"
	"oceanguard/internal/service/color"
	"oceanguard/internal/service/decision"
	"oceanguard/internal/service/events"
	"oceanguard/internal/service/qr"
	"oceanguard/internal/service/storage"
	"oceanguard/internal/service/validator"
	"oceanguard/internal/service/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	hubService *websocket.HubService
	liveCache  *storage.LiveCache
	extractor  *qr.Extractor
	detector   *ai.ObjectDetector
	mqtt       *events.MQTTEmitter
	manager    *service.Manager
	deps       routes.Dependencies
}

func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	boatRepo := sqlite.NewBoatRepository(db)
	scanRepo := sqlite.NewScanLogRepository(db)
	captureRepo := sqlite.NewCaptureRepository(db)

	hub := websocket.NewHubService(log)
	live := storage.NewLiveCache(cfg, log)
	store := storage.NewFrameStore(cfg, log)

	extractor := qr.NewExtractorFromNames(cfg.QRBackends, log)
	detector := ai.NewObjectDetectorFromConfig(cfg, log)

	stages := decision.Stages{
		QR:        extractor,
		Validator: validator.NewValidatorFromConfig(cfg, boatRepo, scanRepo, log),
		Detector:  detector,
	}
	if cfg.ColorEnabled {
		stages.Color = color.NewClassifierFromConfig(cfg, log)
	}

	emitter := events.Multi{events.NewLogEmitter(log)}
	if cfg.EventsToWebsocket {
		emitter = append(emitter, events.NewBroadcastEmitter(hub, log, events.StageDecision))
	}

	var mqtt *events.MQTTEmitter
	if cfg.MQTTBroker != "" {
		mqtt = events.NewMQTTEmitter(cfg, log)
		if err := mqtt.Connect(); err != nil {
			// Events are best effort; auto-reconnect keeps trying.
			log.Warning("MQTT unavailable: %v", err)
		}
		emitter = append(emitter, mqtt)
	}

	engine := decision.NewEngine(stages, sqlite.NewOutcomeRepository(db), store, live, emitter, log)
	motion := ai.NewMotionDetector(cfg.MotionThreshold, log)
	mng := service.NewManager(engine, motion, hub, cfg, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		hubService: hub,
		liveCache:  live,
		extractor:  extractor,
		detector:   detector,
		mqtt:       mqtt,
		manager:    mng,
		deps: routes.Dependencies{
			Manager:  mng,
			Hub:      hub,
			Live:     live,
			Store:    store,
			Boats:    boatRepo,
			Scans:    scanRepo,
			Captures: captureRepo,
		},
	}, nil
}

// Run starts background services and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run(ctx)
	go a.liveCache.Run(ctx)
	go handler.UDPCameraHandler(a.manager, a.logger, a.config)

	router := routes.SetupRoutes(a.deps, a.config, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	a.logger.Info("OceanGuard frame authentication server")
	a.logger.Info("URL: http://localhost:%d", a.config.Port)
	a.logger.Info("Cameras: UDP port %d", a.config.CamerasPort)
	a.logger.Info("Database: %s", a.config.DatabasePath)
	a.logger.Info("Images: %s (live cache %s, TTL %s)", a.config.ImageDirectory, a.config.LiveDirectory, a.config.LiveTTL)
	a.logger.Info("QR decoding: %t, colour fallback: %t, object detector: %t", a.extractor.Enabled(), a.config.ColorEnabled, a.detector.Enabled())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Close stops the workers and releases every resource.
func (a *App) Close() {
	a.manager.Stop()

	if a.mqtt != nil {
		a.mqtt.Disconnect()
	}
	if err := a.extractor.Close(); err != nil {
		a.logger.Error("%v", err)
	}
	if err := a.detector.Close(); err != nil {
		a.logger.Error("Failed to close detector: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database: %v", err)
	}

	a.logger.Info("Server stopped")
	a.logger.Close()
}
