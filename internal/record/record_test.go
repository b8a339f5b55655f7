package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recdeck/recdeck/internal/errors"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rating  int
		wantErr bool
	}{
		{"minimum", 1, false},
		{"maximum", 5, false},
		{"middle", 3, false},
		{"zero", 0, true},
		{"above range", 6, true},
		{"negative", -1, true},
		{"far above", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Record{ID: 1, ExternalID: 100, Rating: tt.rating, Status: "active"}
			err := r.Validate()
			if tt.wantErr {
				require.Error(t, err, "rating %d should fail validation", tt.rating)
				assert.True(t, errors.IsValidation(err), "expected a validation-category error")
			} else {
				assert.NoError(t, err, "rating %d should pass validation", tt.rating)
			}
		})
	}
}

func TestWireFormat(t *testing.T) {
	t.Parallel()

	// The remote data set distinguishes "id" from "ID"; both must survive a
	// round trip with exact field names.
	r := Record{ID: 1, ExternalID: 100, Rating: 3, Status: "active"}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"ID":100,"Rating":3,"status":"active"}`, string(data))

	var decoded Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"ID":200,"Rating":1,"status":"inactive"}`), &decoded))
	assert.Equal(t, Record{ID: 2, ExternalID: 200, Rating: 1, Status: "inactive"}, decoded)
}

func TestSortByRating(t *testing.T) {
	t.Parallel()

	records := []Record{
		{ID: 1, Rating: 3, Status: "active"},
		{ID: 2, Rating: 1, Status: "inactive"},
		{ID: 3, Rating: 3, Status: "pending"},
		{ID: 4, Rating: 2, Status: "active"},
	}

	SortByRating(records)

	ids := make([]int, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	// Ascending by rating; ties (id 1 and 3, both rating 3) keep fetch order.
	assert.Equal(t, []int{2, 4, 1, 3}, ids)
}

func TestSortByRatingIdempotent(t *testing.T) {
	t.Parallel()

	records := []Record{
		{ID: 5, Rating: 4},
		{ID: 6, Rating: 4},
		{ID: 7, Rating: 1},
	}

	SortByRating(records)
	first := make([]Record, len(records))
	copy(first, records)

	SortByRating(records)
	assert.Equal(t, first, records, "sorting twice must yield the same order")
}
