package catalog

import (
	"context"
	"fmt"

	"github.com/floortrack/floortrack/internal/storage"
	"go.uber.org/zap"
)

// MachineStore is the storage slice the seeder needs.
type MachineStore interface {
	UpsertMachine(ctx context.Context, name string) (*storage.Machine, error)
}

// Manager loads the machine catalog and seeds the machines table so the
// floor layout is configuration, not hard-coded data.
type Manager struct {
	loader *Loader
	logger *zap.Logger
}

func NewManager(searchPaths []string, logger *zap.Logger) (*Manager, error) {
	loader, err := NewLoader(searchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	return &Manager{loader: loader, logger: logger}, nil
}

// Seed loads every machine named in the catalog index and upserts it into
// the store. A bad definition is logged and skipped; the floor keeps
// running with the machines that validate.
func (m *Manager) Seed(ctx context.Context, store MachineStore) error {
	idx, err := m.loader.LoadIndex()
	if err != nil {
		return err
	}

	m.logger.Info("Seeding machine catalog",
		zap.String("site", idx.Site),
		zap.Int("count", len(idx.Machines)))

	for _, file := range idx.Machines {
		def, err := m.loader.Load(file)
		if err != nil {
			m.logger.Error("Failed to load machine definition",
				zap.String("file", file),
				zap.Error(err))
			continue
		}

		if _, err := store.UpsertMachine(ctx, def.Name); err != nil {
			return fmt.Errorf("failed to seed machine %q: %w", def.Name, err)
		}

		m.logger.Info("Machine seeded",
			zap.String("machine", def.Name),
			zap.String("category", def.Category))
	}

	return nil
}
