package model

import (
	"fmt"
	"strings"
)

// Event is the instruction event of a trade record: the lifecycle step the
// booking is generated for.
type Event string

const (
	EventInception  Event = "Inception"
	EventRolledOver Event = "RolledOver"
)

// Events lists the instruction events with a record shape.
var Events = []Event{EventInception, EventRolledOver}

// Is reports whether e names other, ignoring case.
func (e Event) Is(other Event) bool {
	return strings.EqualFold(string(e), string(other))
}

func (e Event) String() string { return string(e) }

// ParseEvent maps s onto a known event, ignoring case.
func ParseEvent(s string) (Event, error) {
	for _, e := range Events {
		if e.Is(Event(strings.TrimSpace(s))) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown instruction event %q", s)
}

// Typology is the business classification of a trade, such as FX Swap or
// NDF. Typologies are matched exactly.
type Typology string

const (
	TypologyFXSpot Typology = "FX Spot"
	TypologyFXSwap Typology = "FX Swap"
	TypologyNDF    Typology = "NDF"
)

func (t Typology) String() string { return string(t) }

// Leg types carried in the legType field.
const (
	LegNear = "NEAR"
	LegFar  = "FAR"
)
