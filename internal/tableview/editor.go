package tableview

import (
	"context"
	"strconv"
	"strings"

	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/record"
)

// BeginEdit moves a row from read-only into editing. The cells keep their
// current text, which at this point mirrors the record. Beginning an edit on
// a row already in editing or save-failed is a no-op.
func (t *Table) BeginEdit(key int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.rowByKey(key)
	if row == nil {
		return errUnknownRow(key)
	}
	if row.state != ReadOnly {
		return nil
	}
	row.state = Editing
	logger.Debug("edit started", "row_key", key)
	return nil
}

// SetCell replaces the provisional text of one cell. The row must be in
// editing or save-failed state; provisional text is visible to the filter
// immediately but does not touch the underlying record.
func (t *Table) SetCell(key int, col Column, text string) error {
	if col < 0 || col >= numColumns {
		return errors.Newf("unknown column %d", int(col)).
			Category(errors.CategoryValidation).
			Component("tableview").
			Build()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.rowByKey(key)
	if row == nil {
		return errUnknownRow(key)
	}
	if row.state == ReadOnly {
		return errors.Newf("row %d is not being edited", key).
			Category(errors.CategoryState).
			Component("tableview").
			Context("row_key", key).
			Build()
	}
	row.cells[col] = text
	row.applyFilterTerm(t.statusTerm, t.idTerm)
	return nil
}

// Save parses the provisional cells into a record, validates it, and submits
// a full-record update addressed by the row's immutable key. An edited id
// cell changes the record's id field but never the update target.
//
// On a validation error the row stays in its current state with cells
// retained and no store call is made. On a transport error the row moves to
// save-failed, again with cells retained, so the save can be retried. On
// success the row returns to read-only and the update post-operation runs
// (reload by default).
func (t *Table) Save(ctx context.Context, key int) error {
	t.mu.Lock()
	row := t.rowByKey(key)
	if row == nil {
		t.mu.Unlock()
		return errUnknownRow(key)
	}
	if row.state == ReadOnly {
		t.mu.Unlock()
		return errors.Newf("row %d is not being edited", key).
			Category(errors.CategoryState).
			Component("tableview").
			Context("row_key", key).
			Build()
	}

	rec, err := parseCells(row.cells)
	if err != nil {
		t.mu.Unlock()
		logger.Debug("save rejected", "row_key", key, "error", err)
		return err
	}
	t.mu.Unlock()

	// Store call outside the lock so a slow request does not block the table.
	if err := t.store.Update(ctx, key, rec); err != nil {
		if errors.IsValidation(err) {
			logger.Debug("save rejected by store", "row_key", key, "error", err)
			return err
		}
		t.mu.Lock()
		// The row may have been deleted while the update was in flight.
		if row := t.rowByKey(key); row != nil && row.state != ReadOnly {
			row.state = SaveFailed
		}
		t.mu.Unlock()
		logger.Error("save failed", "row_key", key, "error", err)
		return err
	}

	t.mu.Lock()
	if row := t.rowByKey(key); row != nil {
		row.record = rec
		row.state = ReadOnly
		row.resetCells()
		row.applyFilterTerm(t.statusTerm, t.idTerm)
	}
	t.mu.Unlock()

	logger.Info("record saved", "row_key", key, "id", rec.ID)
	return t.afterMutation(ctx, t.policy.Update, key)
}

// CancelEdit discards provisional cell text and returns the row to
// read-only. Valid from both editing and save-failed; a no-op on a read-only
// row.
func (t *Table) CancelEdit(key int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.rowByKey(key)
	if row == nil {
		return errUnknownRow(key)
	}
	if row.state == ReadOnly {
		return nil
	}
	row.state = ReadOnly
	row.resetCells()
	row.applyFilterTerm(t.statusTerm, t.idTerm)
	logger.Debug("edit cancelled", "row_key", key)
	return nil
}

// Delete removes the record addressed by the row's key. It is available in
// every edit state. On success the delete post-operation runs, which by
// default removes the row locally without re-fetching the collection. On
// failure the row is left exactly as it was.
func (t *Table) Delete(ctx context.Context, key int) error {
	t.mu.Lock()
	row := t.rowByKey(key)
	t.mu.Unlock()
	if row == nil {
		return errUnknownRow(key)
	}

	if err := t.store.Delete(ctx, key); err != nil {
		logger.Error("delete failed", "row_key", key, "error", err)
		return err
	}
	logger.Info("record deleted", "row_key", key)
	return t.afterMutation(ctx, t.policy.Delete, key)
}

// parseCells turns cell text into a record. All three numeric cells must
// parse as integers and the rating must be in range; any failure is a
// validation error.
func parseCells(cells [numColumns]string) (record.Record, error) {
	var rec record.Record
	var err error

	rec.ID, err = parseIntCell(cells[ColumnID], ColumnID)
	if err != nil {
		return record.Record{}, err
	}
	rec.ExternalID, err = parseIntCell(cells[ColumnExternalID], ColumnExternalID)
	if err != nil {
		return record.Record{}, err
	}
	rec.Rating, err = parseIntCell(cells[ColumnRating], ColumnRating)
	if err != nil {
		return record.Record{}, err
	}
	rec.Status = cells[ColumnStatus]

	if err := rec.Validate(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

func parseIntCell(text string, col Column) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, errors.Newf("%s cell %q is not an integer", col, text).
			Category(errors.CategoryValidation).
			Component("tableview").
			Context("column", col.String()).
			Build()
	}
	return v, nil
}
