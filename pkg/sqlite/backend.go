// Package sqlite provides the public API for the SQLite record store.
// It exposes the backend factory while keeping the implementation internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/miles/internal/sqlite"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// Option configures a Backend.
type Option = sqlite.Option

// WithLogger sets the logger used for load repairs and skipped records.
func WithLogger(log *zap.Logger) Option {
	return sqlite.WithLogger(log)
}

// NewBackend creates a new SQLite record store.
// The store is not attached; call Attach with a Config to load it.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "training",
//	})
//	defer store.Detach()
func NewBackend(opts ...Option) types.Cupboard {
	return sqlite.NewBackend(opts...)
}
