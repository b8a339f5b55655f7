// Package devstore provides the backing store for the development collection
// server. Two implementations exist: an in-memory map for throwaway runs and
// tests, and a sqlite database for data that should survive restarts.
package devstore

import (
	"context"
	"io"
	"log"
	"log/slog"
	"path/filepath"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/logging"
	"github.com/recdeck/recdeck/internal/record"
)

// Package-level logger specific to the devstore service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "devstore.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "devstore", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize devstore file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "devstore")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// Store persists the record collection served by the development server.
type Store interface {
	// Open prepares the store for use.
	Open() error
	// Close releases underlying resources.
	Close() error
	// All returns every record, ordered by id.
	All(ctx context.Context) ([]record.Record, error)
	// Insert adds a new record. The id must not already exist.
	Insert(ctx context.Context, rec record.Record) error
	// Replace overwrites the record with the given id.
	Replace(ctx context.Context, id int, rec record.Record) error
	// Remove deletes the record with the given id.
	Remove(ctx context.Context, id int) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// New selects a store implementation from settings.
func New(settings *conf.Settings) (Store, error) {
	switch settings.DevServer.Backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(settings.DevServer.Database), nil
	default:
		return nil, errors.Newf("unknown devserver backend %q", settings.DevServer.Backend).
			Category(errors.CategoryConfiguration).
			Component("devstore").
			Context("backend", settings.DevServer.Backend).
			Build()
	}
}

func errDuplicateID(id int) error {
	return errors.Newf("record %d already exists", id).
		Category(errors.CategoryConflict).
		Component("devstore").
		Context("record_id", id).
		Build()
}

func errNoSuchRecord(id int) error {
	return errors.Newf("record %d does not exist", id).
		Category(errors.CategoryNotFound).
		Component("devstore").
		Context("record_id", id).
		Build()
}
