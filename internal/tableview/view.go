// Package tableview holds the in-memory view model for the record table.
//
// The table is the single source of truth for what is rendered: an ordered
// list of rows, each carrying the last record fetched from the store, the
// provisional cell text of an in-progress edit, an edit state, and a
// visibility flag maintained by the filter. Rendering a UI from this model is
// a pure projection; all mutation goes through the table's methods.
package tableview

import (
	"context"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/logging"
	"github.com/recdeck/recdeck/internal/record"
)

// Package-level logger specific to the tableview service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "tableview.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "tableview", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize tableview file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "tableview")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// Store is the remote collection the table reconciles against.
// *store.Client satisfies it.
type Store interface {
	List(ctx context.Context) ([]record.Record, error)
	Create(ctx context.Context, rec record.Record) error
	Update(ctx context.Context, id int, rec record.Record) error
	Delete(ctx context.Context, id int) error
}

// PostOp selects what happens after a successful mutation.
type PostOp int

const (
	// PostOpNone leaves the table untouched.
	PostOpNone PostOp = iota
	// PostOpReload re-fetches the full collection and re-renders.
	PostOpReload
	// PostOpLocalRemove drops the affected row without re-fetching.
	PostOpLocalRemove
)

// Policy maps each mutation kind to its post-operation behavior. The
// asymmetry between delete and the other mutations is deliberate and kept
// configurable so it stays visible and testable.
type Policy struct {
	Create PostOp
	Update PostOp
	Delete PostOp
}

// DefaultPolicy reloads after create and update but removes locally after
// delete.
func DefaultPolicy() Policy {
	return Policy{
		Create: PostOpReload,
		Update: PostOpReload,
		Delete: PostOpLocalRemove,
	}
}

// Column identifies one of the four data cells of a row.
type Column int

const (
	ColumnID Column = iota
	ColumnExternalID
	ColumnRating
	ColumnStatus
	numColumns
)

// String returns the column name used in logs and command input.
func (c Column) String() string {
	switch c {
	case ColumnID:
		return "id"
	case ColumnExternalID:
		return "externalId"
	case ColumnRating:
		return "rating"
	case ColumnStatus:
		return "status"
	default:
		return "unknown"
	}
}

// ColumnByName resolves a column from its name. The second return value is
// false for unknown names.
func ColumnByName(name string) (Column, bool) {
	switch name {
	case "id":
		return ColumnID, true
	case "externalId", "externalid":
		return ColumnExternalID, true
	case "rating":
		return ColumnRating, true
	case "status":
		return ColumnStatus, true
	default:
		return 0, false
	}
}

// EditState is the per-row edit lifecycle state.
type EditState int

const (
	// ReadOnly is the initial and terminal state; cells mirror the record.
	ReadOnly EditState = iota
	// Editing means cells hold provisional, unvalidated text.
	Editing
	// SaveFailed means a save reached the store and failed in transit; the
	// provisional cells are retained so the user can retry or cancel.
	SaveFailed
)

func (s EditState) String() string {
	switch s {
	case ReadOnly:
		return "read-only"
	case Editing:
		return "editing"
	case SaveFailed:
		return "save-failed"
	default:
		return "unknown"
	}
}

// Row is the view-state of one record in the table.
type Row struct {
	// Key is the addressing key for update and delete, captured from the
	// record's id at render time. Editing the id cell never changes it; the
	// store is always addressed by the value the row was constructed with.
	Key int

	record  record.Record
	cells   [numColumns]string
	state   EditState
	visible bool
}

// Record returns the last record known from the store for this row.
// Provisional edits are not reflected until a successful save.
func (r *Row) Record() record.Record { return r.record }

// Cell returns the rendered text of one cell. During an edit this is the
// provisional value.
func (r *Row) Cell(col Column) string {
	if col < 0 || col >= numColumns {
		return ""
	}
	return r.cells[col]
}

// State returns the row's edit state.
func (r *Row) State() EditState { return r.state }

// Visible reports whether the row passes the current filter.
func (r *Row) Visible() bool { return r.visible }

// resetCells re-derives the cell text from the row's record.
func (r *Row) resetCells() {
	r.cells[ColumnID] = strconv.Itoa(r.record.ID)
	r.cells[ColumnExternalID] = strconv.Itoa(r.record.ExternalID)
	r.cells[ColumnRating] = strconv.Itoa(r.record.Rating)
	r.cells[ColumnStatus] = r.record.Status
}

// Table reconciles an ordered row set with the remote store.
type Table struct {
	mu     sync.Mutex
	store  Store
	policy Policy
	rows   []*Row

	statusTerm string
	idTerm     string
}

// New creates an empty table backed by the given store, using the default
// post-operation policy.
func New(store Store) *Table {
	return NewWithPolicy(store, DefaultPolicy())
}

// NewWithPolicy creates an empty table with an explicit post-operation
// policy.
func NewWithPolicy(store Store, policy Policy) *Table {
	return &Table{
		store:  store,
		policy: policy,
	}
}

// Close releases the service logger.
func (t *Table) Close() {
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("tableview: failed to close log file: %v", err)
		}
	}
}

// Render replaces all rows with fresh ones derived from records, sorted
// ascending by rating. The sort is stable so ties keep fetch order. Any
// in-progress edit state is discarded; the current filter is re-applied to
// the new row set.
func (t *Table) Render(records []record.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.render(records)
}

func (t *Table) render(records []record.Record) {
	sorted := make([]record.Record, len(records))
	copy(sorted, records)
	record.SortByRating(sorted)

	rows := make([]*Row, 0, len(sorted))
	for _, rec := range sorted {
		row := &Row{
			Key:    rec.ID,
			record: rec,
			state:  ReadOnly,
		}
		row.resetCells()
		rows = append(rows, row)
	}
	t.rows = rows
	t.applyFilter()

	logger.Debug("rendered table", "rows", len(t.rows))
}

// Reload fetches the full collection and re-renders. A transport failure
// leaves the current rows untouched.
func (t *Table) Reload(ctx context.Context) error {
	records, err := t.store.List(ctx)
	if err != nil {
		logger.Error("reload failed", "error", err)
		return err
	}
	t.Render(records)
	return nil
}

// Create validates and submits a new record, then applies the create
// post-operation (reload by default). A validation error is returned before
// any store call; a transport error leaves the table unchanged.
func (t *Table) Create(ctx context.Context, rec record.Record) error {
	if err := t.store.Create(ctx, rec); err != nil {
		if errors.IsValidation(err) {
			logger.Debug("create rejected", "id", rec.ID, "rating", rec.Rating)
		} else {
			logger.Error("create failed", "id", rec.ID, "error", err)
		}
		return err
	}
	logger.Info("record created", "id", rec.ID)
	return t.afterMutation(ctx, t.policy.Create, rec.ID)
}

// Rows returns the current rows in render order. The returned slice is a
// copy; the *Row values are live.
func (t *Table) Rows() []*Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// VisibleRows returns only rows passing the current filter, in render order.
func (t *Table) VisibleRows() []*Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Row, 0, len(t.rows))
	for _, row := range t.rows {
		if row.visible {
			out = append(out, row)
		}
	}
	return out
}

// Row returns the row addressed by key, or nil when no such row exists.
func (t *Table) Row(key int) *Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rowByKey(key)
}

// Len returns the number of rows, visible or not.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// rowByKey returns the row addressed by key, or nil. Caller holds t.mu.
func (t *Table) rowByKey(key int) *Row {
	for _, row := range t.rows {
		if row.Key == key {
			return row
		}
	}
	return nil
}

// removeRow drops the row addressed by key, preserving order of the rest.
// Caller holds t.mu.
func (t *Table) removeRow(key int) {
	for i, row := range t.rows {
		if row.Key == key {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			return
		}
	}
}

// afterMutation applies the post-operation for a successful mutation.
func (t *Table) afterMutation(ctx context.Context, op PostOp, key int) error {
	switch op {
	case PostOpReload:
		return t.Reload(ctx)
	case PostOpLocalRemove:
		t.mu.Lock()
		t.removeRow(key)
		t.mu.Unlock()
		return nil
	default:
		return nil
	}
}

func errUnknownRow(key int) error {
	return errors.Newf("no row with key %d", key).
		Category(errors.CategoryNotFound).
		Component("tableview").
		Context("row_key", key).
		Build()
}
