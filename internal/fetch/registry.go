package fetch

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// ErrNoFetcher is returned when no fetcher supports an instruction event.
var ErrNoFetcher = errors.New("no data fetcher found")

// Registry holds fetchers in registration order.
type Registry struct {
	fetchers []Fetcher
}

func NewRegistry(fetchers ...Fetcher) *Registry {
	return &Registry{fetchers: append([]Fetcher(nil), fetchers...)}
}

// Fetcher returns the first fetcher that supports event.
func (r *Registry) Fetcher(event model.Event) (Fetcher, error) {
	for _, f := range r.fetchers {
		if f.Supports(event) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w for instruction event: %s", ErrNoFetcher, event)
}

func (r *Registry) Has(event model.Event) bool {
	_, err := r.Fetcher(event)
	return err == nil
}

// Fetchers returns a copy of the registered fetchers.
func (r *Registry) Fetchers() []Fetcher {
	return append([]Fetcher(nil), r.fetchers...)
}
