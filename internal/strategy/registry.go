package strategy

import (
	"fmt"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// NoStrategyError is returned when no registered handler supports the
// requested pair. Legacy is set for typology-only lookups.
type NoStrategyError struct {
	Event    model.Event
	Typology model.Typology
	Legacy   bool
}

func (e *NoStrategyError) Error() string {
	if e.Legacy {
		return fmt.Sprintf("no transformation strategy found for typology: %s", e.Typology)
	}
	return fmt.Sprintf("no transformation strategy found for instruction event: %s and typology: %s", e.Event, e.Typology)
}

// Registry is an ordered list of handlers. Lookups scan in registration
// order and return the first match, so registration order decides between
// handlers whose claims overlap. Overlaps are not detected.
//
// A Registry is filled once at startup and only read afterwards.
type Registry struct {
	handlers []Handler
}

// NewRegistry returns a registry holding handlers in the given order.
func NewRegistry(handlers ...Handler) *Registry {
	owned := make([]Handler, len(handlers))
	copy(owned, handlers)
	return &Registry{handlers: owned}
}

// Resolve returns the first handler supporting (event, typology).
func (r *Registry) Resolve(event model.Event, typology model.Typology) (Handler, error) {
	for _, h := range r.handlers {
		if h.Supports(event, typology) {
			return h, nil
		}
	}
	return nil, &NoStrategyError{Event: event, Typology: typology}
}

// ResolveTypology returns the first handler supporting typology under any
// event.
//
// Deprecated: typology alone is ambiguous once several events share a
// typology. Use Resolve.
func (r *Registry) ResolveTypology(typology model.Typology) (Handler, error) {
	for _, h := range r.handlers {
		if h.SupportsTypology(typology) {
			return h, nil
		}
	}
	return nil, &NoStrategyError{Typology: typology, Legacy: true}
}

// Has reports whether some handler supports (event, typology).
func (r *Registry) Has(event model.Event, typology model.Typology) bool {
	_, err := r.Resolve(event, typology)
	return err == nil
}

// HasTypology reports whether some handler supports typology.
//
// Deprecated: use Has.
func (r *Registry) HasTypology(typology model.Typology) bool {
	_, err := r.ResolveTypology(typology)
	return err == nil
}

// Handlers returns the handlers in registration order.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int { return len(r.handlers) }
