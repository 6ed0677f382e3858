package strategy

import "github.com/ginjaninja78/fx-booking-transformer/internal/model"

// ProcessingResult is what a handler produced for one group. Empty slices
// mean nothing was generated; they are never nil.
type ProcessingResult struct {
	External []*model.ExternalRecord `json:"external"`
	Trades   []*model.TradeLeg       `json:"trades"`
}

// EmptyResult returns a result with no records.
func EmptyResult() *ProcessingResult {
	return &ProcessingResult{
		External: []*model.ExternalRecord{},
		Trades:   []*model.TradeLeg{},
	}
}

// Empty reports whether nothing was produced.
func (r *ProcessingResult) Empty() bool {
	return len(r.External) == 0 && len(r.Trades) == 0
}

// Add appends a generated trade and its external representation.
func (r *ProcessingResult) Add(trade *model.TradeLeg, external *model.ExternalRecord) {
	if trade != nil {
		r.Trades = append(r.Trades, trade)
	}
	if external != nil {
		r.External = append(r.External, external)
	}
}

// Merge appends other's records to r.
func (r *ProcessingResult) Merge(other *ProcessingResult) {
	if other == nil {
		return
	}
	r.External = append(r.External, other.External...)
	r.Trades = append(r.Trades, other.Trades...)
}
