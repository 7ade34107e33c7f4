// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"optstrat/internal/contracts"
	"optstrat/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Contract reference data
	contracts.Source
	SaveContracts(ctx context.Context, records []models.Contract) (int, error)
	CountContracts(ctx context.Context) (int, error)

	// Strategies
	SaveStrategy(ctx context.Context, name string, legs []models.Leg) (*models.StrategyRecord, error)
	GetStrategy(ctx context.Context, name string) (*models.StrategyRecord, error)
	ListStrategies(ctx context.Context) ([]models.StrategyRecord, error)
	DeleteStrategy(ctx context.Context, name string) error

	// Sync
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// SyncContracts is the sync key recorded when reference data is imported.
const SyncContracts = "contracts"
