package tableview

import "strings"

// SetFilter applies a two-term filter over the rendered cell text and
// records the terms for future renders. A row stays visible when its status
// cell contains statusTerm case-insensitively AND its id cell contains
// idTerm case-sensitively. Empty terms match everything.
//
// The filter reads rendered cell text, so rows with unsaved provisional
// edits are matched on the provisional values, not the stored record.
// Filtered-out rows keep their state and reappear when the terms relax.
func (t *Table) SetFilter(statusTerm, idTerm string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.statusTerm = statusTerm
	t.idTerm = idTerm
	t.applyFilter()

	logger.Debug("filter applied", "status_term", statusTerm, "id_term", idTerm)
}

// Filter returns the current term pair.
func (t *Table) Filter() (statusTerm, idTerm string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusTerm, t.idTerm
}

// applyFilter recomputes visibility for every row. Caller holds t.mu.
func (t *Table) applyFilter() {
	for _, row := range t.rows {
		row.applyFilterTerm(t.statusTerm, t.idTerm)
	}
}

// applyFilterTerm recomputes one row's visibility against the given terms.
// The id comparison is deliberately case-sensitive: the cell is numeric text
// and normalizing it would change matching for nothing.
func (r *Row) applyFilterTerm(statusTerm, idTerm string) {
	statusMatch := strings.Contains(
		strings.ToLower(r.cells[ColumnStatus]),
		strings.ToLower(statusTerm),
	)
	idMatch := strings.Contains(r.cells[ColumnID], idTerm)
	r.visible = statusMatch && idMatch
}
