// Package store implements the client for the remote record collection.
//
// The collection is a REST-style resource: GET/POST on the base URL, PUT and
// DELETE on {base}/{id}. All four operations treat any network failure or
// non-success HTTP status as a uniform transport error; there is no
// status-code-specific handling and no retry. Failures are logged to the
// store service log and returned to the caller as an aborted operation.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/httpclient"
	"github.com/recdeck/recdeck/internal/logging"
	"github.com/recdeck/recdeck/internal/observability/metrics"
	"github.com/recdeck/recdeck/internal/record"
)

// Package-level logger specific to the store service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "store.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "store", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize store file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "store")
		closeLogger = func() error { return nil } // No-op closer
	}
}

const listCacheKey = "records"

// Operation names used in logs and metrics labels.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Config holds the record store client configuration.
type Config struct {
	BaseURL     string        // Collection resource URL
	Timeout     time.Duration // Applied when the request context carries no deadline
	CacheTTL    time.Duration // TTL for cached list responses; 0 disables caching
	UserAgent   string        // Optional User-Agent override
	LogRequests bool          // Log every request at debug level
}

// DefaultConfig returns a Config with production defaults. BaseURL has no
// default; the caller must supply it.
func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		CacheTTL: 30 * time.Second,
	}
}

// ConfigFromSettings derives a store client Config from application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		BaseURL:     settings.Store.BaseURL,
		Timeout:     settings.Store.Timeout,
		CacheTTL:    settings.Store.CacheTTL,
		UserAgent:   settings.Store.UserAgent,
		LogRequests: settings.Store.LogRequests || settings.Debug,
	}
}

// Client provides the four operations against the remote record collection.
type Client struct {
	config     Config
	httpClient *httpclient.Client
	cache      *cache.Cache // list responses; invalidated on every successful mutation
	metrics    *metrics.StoreMetrics
	debug      bool
}

// NewClient creates a new record store client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.Newf("record store base URL is required").
			Category(errors.CategoryConfiguration).
			Component("store").
			Build()
	}

	// Use defaults for missing config values
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.DefaultTimeout = config.Timeout
	if config.UserAgent != "" {
		httpCfg.UserAgent = config.UserAgent
	}

	client := &Client{
		config:     config,
		httpClient: httpclient.New(&httpCfg),
		debug:      config.LogRequests,
	}

	if config.CacheTTL > 0 {
		client.cache = cache.New(config.CacheTTL, config.CacheTTL*2)
	}

	logger.Info("record store client initialized",
		"base_url", config.BaseURL,
		"timeout", config.Timeout,
		"cache_ttl", config.CacheTTL,
		"log_requests", config.LogRequests)

	return client, nil
}

// SetMetrics attaches a metrics collector. Safe to leave unset; all recording
// is conditional.
func (c *Client) SetMetrics(m *metrics.StoreMetrics) {
	c.metrics = m
}

// Close releases client resources.
func (c *Client) Close() {
	c.httpClient.Close()

	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing store logger: %v", err)
		}
	}
}

// itemURL builds the item sub-resource URL for the given id.
func (c *Client) itemURL(id int) string {
	return fmt.Sprintf("%s/%d", c.config.BaseURL, id)
}

// List fetches the full collection. Order is server-determined; callers sort.
// Responses are cached for the configured TTL; any successful mutation
// invalidates the cache so a reload after create/update observes canonical
// state.
func (c *Client) List(ctx context.Context) ([]record.Record, error) {
	if c.cache != nil {
		if cached, found := c.cache.Get(listCacheKey); found {
			if records, ok := cached.([]record.Record); ok {
				if c.metrics != nil {
					c.metrics.RecordCacheHit()
				}
				logger.Debug("list served from cache", "records", len(records))
				out := make([]record.Record, len(records))
				copy(out, records)
				return out, nil
			}
		}
	}
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}

	start := time.Now()
	resp, err := c.httpClient.Get(ctx, c.config.BaseURL)
	if err != nil {
		return nil, c.transportError(OpList, c.config.BaseURL, err)
	}
	defer c.closeBody(resp)

	if err := c.checkStatus(OpList, c.config.BaseURL, resp); err != nil {
		return nil, err
	}

	var records []record.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		if c.metrics != nil {
			c.metrics.RecordOperation(OpList, "error")
			c.metrics.RecordOperationError(OpList, "decode")
		}
		logger.Error("failed to decode collection response",
			"error", err,
			"url", c.config.BaseURL)
		return nil, errors.Newf("failed to decode collection response: %w", err).
			Category(errors.CategoryNetwork).
			Component("store").
			Context("operation", OpList).
			Build()
	}

	if c.cache != nil {
		cached := make([]record.Record, len(records))
		copy(cached, records)
		c.cache.Set(listCacheKey, cached, cache.DefaultExpiration)
	}

	c.recordSuccess(OpList, start)
	logger.Debug("collection fetched", "records", len(records), "duration_ms", time.Since(start).Milliseconds())

	return records, nil
}

// Create sends the full record as a JSON body. The server-assigned
// representation is not returned; callers must re-list to observe canonical
// state. The record is validated before any network call.
func (c *Client) Create(ctx context.Context, rec record.Record) error {
	if err := rec.Validate(); err != nil {
		if c.metrics != nil {
			c.metrics.RecordValidationReject(OpCreate)
		}
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Post(ctx, c.config.BaseURL, httpclient.ContentTypeJSON, rec)
	if err != nil {
		return c.transportError(OpCreate, c.config.BaseURL, err)
	}
	defer c.closeBody(resp)

	if err := c.checkStatus(OpCreate, c.config.BaseURL, resp); err != nil {
		return err
	}

	c.invalidate()
	c.recordSuccess(OpCreate, start)
	logger.Info("record created", "id", rec.ID, "rating", rec.Rating, "status", rec.Status)

	return nil
}

// Update performs a full-record replace addressed by id. Partial updates are
// not supported. The record is validated before any network call.
func (c *Client) Update(ctx context.Context, id int, rec record.Record) error {
	if err := rec.Validate(); err != nil {
		if c.metrics != nil {
			c.metrics.RecordValidationReject(OpUpdate)
		}
		return err
	}

	url := c.itemURL(id)

	start := time.Now()
	resp, err := c.httpClient.Put(ctx, url, httpclient.ContentTypeJSON, rec)
	if err != nil {
		return c.transportError(OpUpdate, url, err)
	}
	defer c.closeBody(resp)

	if err := c.checkStatus(OpUpdate, url, resp); err != nil {
		return err
	}

	c.invalidate()
	c.recordSuccess(OpUpdate, start)
	logger.Info("record updated", "id", id, "rating", rec.Rating, "status", rec.Status)

	return nil
}

// Delete removes the record addressed by id.
func (c *Client) Delete(ctx context.Context, id int) error {
	url := c.itemURL(id)

	start := time.Now()
	resp, err := c.httpClient.Delete(ctx, url)
	if err != nil {
		return c.transportError(OpDelete, url, err)
	}
	defer c.closeBody(resp)

	if err := c.checkStatus(OpDelete, url, resp); err != nil {
		return err
	}

	c.invalidate()
	c.recordSuccess(OpDelete, start)
	logger.Info("record deleted", "id", id)

	return nil
}

// invalidate drops the cached list response after a successful mutation.
func (c *Client) invalidate() {
	if c.cache != nil {
		c.cache.Delete(listCacheKey)
	}
}

// checkStatus enforces the uniform transport error rule: any status outside
// the success range aborts the operation, with no per-status handling.
func (c *Client) checkStatus(operation, url string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if c.debug {
			logger.Debug("store request succeeded",
				"operation", operation,
				"url", url,
				"status_code", resp.StatusCode)
		}
		return nil
	}

	if c.metrics != nil {
		c.metrics.RecordOperation(operation, "error")
		c.metrics.RecordOperationError(operation, "status")
	}

	logger.Error("store request returned non-success status",
		"operation", operation,
		"url", url,
		"status_code", resp.StatusCode)

	return errors.Newf("%s failed: unexpected status %d", operation, resp.StatusCode).
		Category(errors.CategoryNetwork).
		Component("store").
		Context("operation", operation).
		Context("status_code", resp.StatusCode).
		Build()
}

// transportError wraps a network-level failure into the uniform transport
// error and logs it.
func (c *Client) transportError(operation, url string, err error) error {
	if c.metrics != nil {
		c.metrics.RecordOperation(operation, "error")
		c.metrics.RecordOperationError(operation, "network")
	}

	logger.Error("store request failed",
		"operation", operation,
		"url", url,
		"error", err)

	return errors.Newf("%s failed: %w", operation, err).
		Category(errors.CategoryNetwork).
		Component("store").
		Context("operation", operation).
		NetworkContext(url, c.config.Timeout).
		Build()
}

// recordSuccess tracks a completed operation.
func (c *Client) recordSuccess(operation string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordOperation(operation, "success")
		c.metrics.RecordOperationDuration(operation, time.Since(start).Seconds())
	}
}

// closeBody drains and closes a response body so the connection can be reused.
func (c *Client) closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		logger.Debug("failed to close response body", "error", err)
	}
}
