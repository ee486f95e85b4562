// Package storage exports parsed product records to files.
package storage

import (
	"github.com/IshaanNene/ShelfStat/internal/types"
)

// Storage is the interface for all export backends.
type Storage interface {
	// Store persists a batch of products.
	Store(products []types.Product) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}
