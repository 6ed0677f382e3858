package fetch

import (
	"strings"
	"time"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// Request selects the aggregated records to fetch. Zero fields do not filter.
type Request struct {
	BusinessDate        time.Time
	ExternalTradeIDs    []string
	HedgeInstrumentType model.Typology
	InputCurrency       string
	USDCurrency         string
	Portfolio           string
}

// ParseTradeIDs splits a colon separated list of external trade ids.
// Parts are trimmed and empty parts dropped.
func ParseTradeIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ":") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// Matches reports whether rec passes the request filters.
func (r Request) Matches(rec model.Aggregated) bool {
	b := rec.Common()

	if len(r.ExternalTradeIDs) > 0 && !contains(r.ExternalTradeIDs, b.Contract) {
		return false
	}
	if r.HedgeInstrumentType != "" && model.Typology(b.Typology) != r.HedgeInstrumentType {
		return false
	}
	if r.Portfolio != "" && b.Portfolio != r.Portfolio {
		return false
	}
	if !r.BusinessDate.IsZero() && !b.BusinessDate.IsZero() && !sameDay(r.BusinessDate, b.BusinessDate) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
