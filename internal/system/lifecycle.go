package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/floortrack/floortrack/internal/api/rest"
	"github.com/floortrack/floortrack/internal/api/websocket"
	"github.com/floortrack/floortrack/internal/auth"
	"github.com/floortrack/floortrack/internal/catalog"
	"github.com/floortrack/floortrack/internal/config"
	"github.com/floortrack/floortrack/internal/interfaces"
	"github.com/floortrack/floortrack/internal/lifecycle"
	"github.com/floortrack/floortrack/internal/reports"
	"github.com/floortrack/floortrack/internal/storage"
	"go.uber.org/zap"
)

type LifecycleManager struct {
	config      *config.Config
	storage     *storage.PostgresClient
	catalog     *catalog.Manager
	coordinator *lifecycle.Coordinator
	reports     *reports.Service
	authService *auth.AuthService
	logger      *zap.Logger

	restServer *rest.Server
	wsHub      *websocket.Hub

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(
	store *storage.PostgresClient,
	cfg *config.Config,
	logger *zap.Logger,
) *LifecycleManager {
	catalogManager, err := catalog.NewManager(cfg.Catalog.SearchPaths, logger)
	if err != nil {
		logger.Fatal("Failed to create catalog manager", zap.Error(err))
	}

	authService := auth.NewAuthService(store, cfg.Auth)
	wsHub := websocket.NewHub(logger, authService)
	coordinator := lifecycle.NewCoordinator(store, wsHub, logger, cfg.Feed.FinishedLimit)
	reportService := reports.NewService(store, logger)

	return &LifecycleManager{
		config:       cfg,
		storage:      store,
		catalog:      catalogManager,
		coordinator:  coordinator,
		reports:      reportService,
		authService:  authService,
		wsHub:        wsHub,
		logger:       logger,
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}
}

// Start seeds the machine catalog and brings up the hub and the REST API.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting FloorTrack")

	if err := lm.seedMachineCatalog(); err != nil {
		lm.logger.Warn("Failed to seed machine catalog", zap.Error(err))
		// Continue anyway, not critical
	}

	go lm.wsHub.Run()

	if err := lm.startRESTServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort))

	return nil
}

func (lm *LifecycleManager) seedMachineCatalog() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return lm.catalog.Seed(ctx, lm.storage)
}

func (lm *LifecycleManager) startRESTServer() error {
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub, lm.authService)
	return lm.restServer.Start()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)

		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	if lm.restServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, lm.config.Server.ShutdownTimeout)
		defer cancel()

		if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rest api shutdown failed: %w", err)
		}
	}

	lm.storage.Close()
	lm.logger.Info("Graceful shutdown completed")
	return nil
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Unexpected state transition", zap.Error(err))
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = StateError
	lm.logger.Error("System entered error state", zap.Error(err))
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	lm.stateMu.RUnlock()

	machineCount := 0
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if machines, err := lm.storage.ListMachines(ctx); err == nil {
		machineCount = len(machines)
	}

	return interfaces.SystemStatus{
		State:            state.String(),
		MachineCount:     machineCount,
		ConnectedViewers: lm.wsHub.GetClientCount(),
	}
}

// Storage returns the storage client
func (lm *LifecycleManager) Storage() *storage.PostgresClient {
	return lm.storage
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

// Coordinator returns the transition coordinator
func (lm *LifecycleManager) Coordinator() *lifecycle.Coordinator {
	return lm.coordinator
}

// Reports returns the dispatch report service
func (lm *LifecycleManager) Reports() *reports.Service {
	return lm.reports
}
