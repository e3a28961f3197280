package interfaces

import (
	"context"

	"github.com/floortrack/floortrack/internal/config"
	"github.com/floortrack/floortrack/internal/lifecycle"
	"github.com/floortrack/floortrack/internal/reports"
	"github.com/floortrack/floortrack/internal/storage"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State            string `json:"state"`
	MachineCount     int    `json:"machine_count"`
	ConnectedViewers int    `json:"connected_viewers"`
}

type LifecycleManager interface {
	Config() *config.Config
	Storage() *storage.PostgresClient
	Coordinator() *lifecycle.Coordinator
	Reports() *reports.Service
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
