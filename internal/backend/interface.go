// Package backend assembles the persistence, export and event plumbing
// selected by configuration.
package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// CleanupFunc releases resources acquired while building a component.
type CleanupFunc func() error

// StoreResult contains the store and its cleanup function.
type StoreResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// PublisherResult contains the event publisher and its cleanup function.
// Remote is true when events leave the process through a broker.
type PublisherResult struct {
	Publisher services.EventPublisher
	Remote    bool
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateExporter(ctx context.Context, config Config) (sheets.InsightExporter, error)
	// CreatePublisher returns a broker publisher when AMQP is configured and
	// reachable, otherwise an in-process queue feeding handler.
	CreatePublisher(ctx context.Context, config Config, handler amqp.Handler) (*PublisherResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	// Seed directory for the memory store
	DataDirectory string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Empty spreadsheet ID selects the in-memory exporter
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
