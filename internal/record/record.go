// Package record defines the managed record entity and its wire format.
package record

import (
	"sort"

	"github.com/recdeck/recdeck/internal/errors"
)

// Rating bounds enforced before any record reaches the network.
const (
	RatingMin = 1
	RatingMax = 5
)

// Record is one item in the managed collection, keyed by ID.
//
// The JSON field names are fixed and case-sensitive: the remote collection
// stores both a lowercase "id" (the addressing key) and an uppercase "ID"
// (a secondary numeric attribute). The duplication is a wire-format quirk of
// the existing data set and must round-trip unchanged.
type Record struct {
	ID         int    `json:"id"`
	ExternalID int    `json:"ID"`
	Rating     int    `json:"Rating"`
	Status     string `json:"status"`
}

// Validate checks the single schema rule the client enforces: the rating must
// fall inside the closed range [RatingMin, RatingMax]. Violations are
// validation errors and block submission before any network call.
func (r *Record) Validate() error {
	if r.Rating < RatingMin || r.Rating > RatingMax {
		return errors.Newf("rating must be between %d and %d, got %d", RatingMin, RatingMax, r.Rating).
			Category(errors.CategoryValidation).
			Component("record").
			Context("rating", r.Rating).
			Build()
	}
	return nil
}

// SortByRating sorts records ascending by rating in place. The sort is stable:
// records with equal ratings retain their fetch order.
func SortByRating(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Rating < records[j].Rating
	})
}
