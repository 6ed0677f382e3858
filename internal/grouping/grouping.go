// =============================================================================
// FX Booking Transformer - Record Grouping
// =============================================================================
//
// Raw records from a fetch are grouped by their business key: external deal
// id, comment, NAV type and typology. Each group is handed to one
// transformation handler as a unit.
//
// Groups are immutable. Records(), Groups() and friends return copies of
// their slices so handlers running concurrently can read them freely.
//
// =============================================================================

package grouping

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// ErrMixedShapes is returned when records of one group do not share a shape.
var ErrMixedShapes = errors.New("records of a group must share one shape")

// GroupedRecord is the set of raw records that share one group key.
type GroupedRecord struct {
	key     model.GroupKey
	shape   *accessor.Shape
	records []model.Aggregated
}

// New builds a group from records. All records must have the same shape.
func New(key model.GroupKey, records []model.Aggregated) (*GroupedRecord, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("group %s has no records", key)
	}
	shape := records[0].Shape()
	for i, r := range records[1:] {
		if r.Shape() != shape {
			return nil, fmt.Errorf("group %s, record %d is %s, expected %s: %w", key, i+1, r.Shape().Name(), shape.Name(), ErrMixedShapes)
		}
	}
	owned := make([]model.Aggregated, len(records))
	copy(owned, records)
	return &GroupedRecord{key: key, shape: shape, records: owned}, nil
}

// Key returns the group key.
func (g *GroupedRecord) Key() model.GroupKey { return g.key }

// Typology returns the typology shared by the group's records.
func (g *GroupedRecord) Typology() model.Typology { return g.key.Typology }

// Shape returns the record shape of the group.
func (g *GroupedRecord) Shape() *accessor.Shape { return g.shape }

// Len returns the number of records.
func (g *GroupedRecord) Len() int { return len(g.records) }

// At returns the i-th record.
func (g *GroupedRecord) At(i int) model.Aggregated { return g.records[i] }

// Records returns the records in arrival order.
func (g *GroupedRecord) Records() []model.Aggregated {
	out := make([]model.Aggregated, len(g.records))
	copy(out, g.records)
	return out
}

// Group partitions records by group key. Groups come out in the order their
// first record arrived, and records keep their order inside each group.
func Group(records []model.Aggregated) ([]*GroupedRecord, error) {
	buckets := make(map[model.GroupKey][]model.Aggregated)
	order := []model.GroupKey{}

	for _, r := range records {
		key := model.KeyOf(r)
		if _, exists := buckets[key]; !exists {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], r)
	}

	groups := make([]*GroupedRecord, 0, len(order))
	for _, key := range order {
		g, err := New(key, buckets[key])
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Batch is the full set of groups produced by one fetch. Handlers use it for
// lookups across groups and never change it.
type Batch struct {
	groups []*GroupedRecord
}

// NewBatch wraps groups in a read-only batch.
func NewBatch(groups []*GroupedRecord) *Batch {
	owned := make([]*GroupedRecord, len(groups))
	copy(owned, groups)
	return &Batch{groups: owned}
}

// Len returns the number of groups.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.groups)
}

// Groups returns the groups in batch order.
func (b *Batch) Groups() []*GroupedRecord {
	if b == nil {
		return nil
	}
	out := make([]*GroupedRecord, len(b.groups))
	copy(out, b.groups)
	return out
}

// Find returns the groups for which match is true.
func (b *Batch) Find(match func(*GroupedRecord) bool) []*GroupedRecord {
	if b == nil {
		return nil
	}
	var out []*GroupedRecord
	for _, g := range b.groups {
		if match(g) {
			out = append(out, g)
		}
	}
	return out
}

// ByDeal returns the groups of one external deal id.
func (b *Batch) ByDeal(externalDealID string) []*GroupedRecord {
	return b.Find(func(g *GroupedRecord) bool {
		return g.key.ExternalDealID == externalDealID
	})
}
