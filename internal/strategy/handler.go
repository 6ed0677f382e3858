package strategy

import (
	"context"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// Handler transforms one group of records. A handler declares the
// (event, typology) pairs it handles through Supports; the registry picks
// the first registered handler that says yes.
type Handler interface {
	Supports(event model.Event, typology model.Typology) bool
	SupportsTypology(typology model.Typology) bool
	Handle(ctx context.Context, tc *Context) (*ProcessingResult, error)
	Type() string
}

// Claim is the (event, typology) pair a handler serves. Embed it in a
// handler to get Supports, SupportsTypology and Type.
type Claim struct {
	Event    model.Event
	Typology model.Typology
}

// Supports matches the event ignoring case and the typology exactly.
func (c Claim) Supports(event model.Event, typology model.Typology) bool {
	return c.Event.Is(event) && c.Typology == typology
}

// SupportsTypology matches the typology alone.
func (c Claim) SupportsTypology(typology model.Typology) bool {
	return c.Typology == typology
}

// Type names the transformation, for example "Inception_FX Swap".
func (c Claim) Type() string {
	return string(c.Event) + "_" + string(c.Typology)
}
