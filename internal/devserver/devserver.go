// Package devserver implements the collection resource as a local HTTP
// server, for development and end-to-end testing against a live endpoint.
//
// The wire format matches the remote store exactly: GET and POST on the base
// path, PUT and DELETE on {base}/{id}, JSON bodies with the fixed field names
// id, ID, Rating, status. On top of that it serves /healthz and Prometheus
// metrics on /metrics.
package devserver

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/devstore"
	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/logging"
	"github.com/recdeck/recdeck/internal/observability"
	"github.com/recdeck/recdeck/internal/record"
)

// Package-level logger specific to the devserver service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "devserver.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "devserver", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize devserver file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "devserver")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// Server serves the record collection over HTTP.
type Server struct {
	echo    *echo.Echo
	store   devstore.Store
	metrics *observability.Metrics
	listen  string
}

// New wires routes and middleware for the given store. The metrics argument
// may be nil, in which case /metrics is not registered.
func New(settings *conf.Settings, store devstore.Store, m *observability.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		store:   store,
		metrics: m,
		listen:  settings.DevServer.Listen,
	}
	if m != nil {
		e.Use(s.metricsMiddleware)
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	base := settings.DevServer.BasePath
	e.GET(base, s.handleList)
	e.POST(base, s.handleCreate)
	e.PUT(base+"/:id", s.handleUpdate)
	e.DELETE(base+"/:id", s.handleDelete)
	e.GET("/healthz", s.handleHealth)

	return s
}

// Start runs the server until Shutdown is called. It blocks.
func (s *Server) Start() error {
	logger.Info("devserver listening", "address", s.listen)
	if err := s.echo.Start(s.listen); err != nil && err != http.ErrServerClosed {
		return errors.New(err).
			Category(errors.CategoryNetwork).
			Component("devserver").
			Context("address", s.listen).
			Build()
	}
	return nil
}

// Shutdown stops the server gracefully and releases the service logger.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	if closeLogger != nil {
		if cerr := closeLogger(); cerr != nil {
			log.Printf("devserver: failed to close log file: %v", cerr)
		}
	}
	return err
}

// Handler exposes the underlying handler for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// metricsMiddleware records request counts and latency per method.
func (s *Server) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		method := c.Request().Method
		s.metrics.DevServer.RecordRequest(method, strconv.Itoa(status))
		s.metrics.DevServer.RecordRequestDuration(method, time.Since(start).Seconds())
		return err
	}
}

func (s *Server) handleList(c echo.Context) error {
	records, err := s.store.All(c.Request().Context())
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleCreate(c echo.Context) error {
	var rec record.Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed record body")
	}
	if err := s.store.Insert(c.Request().Context(), rec); err != nil {
		return s.storeError(c, err)
	}
	logger.Debug("record created", "id", rec.ID)
	s.updateRecordCount(c.Request().Context())
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleUpdate(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "record id must be an integer")
	}
	var rec record.Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed record body")
	}
	if err := s.store.Replace(c.Request().Context(), id, rec); err != nil {
		return s.storeError(c, err)
	}
	logger.Debug("record replaced", "id", id)
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDelete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "record id must be an integer")
	}
	if err := s.store.Remove(c.Request().Context(), id); err != nil {
		return s.storeError(c, err)
	}
	logger.Debug("record removed", "id", id)
	s.updateRecordCount(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	count, err := s.store.Count(c.Request().Context())
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"records": count,
	})
}

// storeError maps store failures to HTTP statuses.
func (s *Server) storeError(c echo.Context, err error) error {
	switch {
	case errors.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.IsCategory(err, errors.CategoryConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		logger.Error("store operation failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "store operation failed")
	}
}

func (s *Server) updateRecordCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if count, err := s.store.Count(ctx); err == nil {
		s.metrics.DevServer.SetRecordCount(count)
	}
}
