package backend

import (
	"context"

	"canteen/internal/amqp"
	"canteen/internal/records"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger reports store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the record store, the optional event bus client
// and a cleanup function releasing both.
type BackendResult struct {
	Store records.Store
	// Events is nil when AMQP is not configured or unreachable at startup.
	Events  *amqp.Client
	Pinger  Pinger
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional event bus, shared by every backend type
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
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
