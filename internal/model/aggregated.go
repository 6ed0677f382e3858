package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

// Aggregated is a raw record produced by a data fetcher. The concrete type
// is *Inception or *RolledOver and the shape tells them apart. Base fields
// are reachable on every variant through Common or by name; Inception-only
// fields need AsInception first.
type Aggregated interface {
	accessor.Record
	Common() *Base
	Event() Event
}

// Inception is the aggregated record of a new hedge.
type Inception struct {
	Base
	HistoricalExchangeRate decimal.Decimal `json:"historicalExchangeRate"`
	NavType                string          `json:"navType"`
	ExposureCurrency       string          `json:"exposureCurrency"`
	ApportionmentCurrency  string          `json:"apportionmentCurrency"`
	HedgeAmtAllocation     decimal.Decimal `json:"hedgeAmtAllocation"`
	EntityName             string          `json:"entityName"`
	EntityType             string          `json:"entityType"`
	EntityID               string          `json:"entityId"`
	MurexComment           string          `json:"murexComment"`
}

// RolledOver is the aggregated record of a hedge rolled to a new maturity.
// It carries the base fields only.
type RolledOver struct {
	Base
}

var (
	InceptionShape  = accessor.Define("Inception", func() *Inception { return &Inception{} }, inceptionFields)
	RolledOverShape = accessor.Define("RolledOver", func() *RolledOver { return &RolledOver{} }, rolledOverFields)
)

func (*Inception) Shape() *accessor.Shape  { return InceptionShape }
func (*Inception) Event() Event            { return EventInception }
func (*RolledOver) Shape() *accessor.Shape { return RolledOverShape }
func (*RolledOver) Event() Event           { return EventRolledOver }

func inceptionFields() []accessor.Field {
	fields := accessor.Embed(func(r *Inception) *Base { return &r.Base }, baseFields()...)
	return append(fields,
		accessor.Decimal("historicalExchangeRate",
			func(r *Inception) decimal.Decimal { return r.HistoricalExchangeRate },
			func(r *Inception, v decimal.Decimal) { r.HistoricalExchangeRate = v }),
		accessor.String("navType", func(r *Inception) string { return r.NavType }, func(r *Inception, v string) { r.NavType = v }),
		accessor.String("exposureCurrency", func(r *Inception) string { return r.ExposureCurrency }, func(r *Inception, v string) { r.ExposureCurrency = v }),
		accessor.String("apportionmentCurrency", func(r *Inception) string { return r.ApportionmentCurrency }, func(r *Inception, v string) { r.ApportionmentCurrency = v }),
		accessor.Decimal("hedgeAmtAllocation",
			func(r *Inception) decimal.Decimal { return r.HedgeAmtAllocation },
			func(r *Inception, v decimal.Decimal) { r.HedgeAmtAllocation = v }),
		accessor.String("entityName", func(r *Inception) string { return r.EntityName }, func(r *Inception, v string) { r.EntityName = v }),
		accessor.String("entityType", func(r *Inception) string { return r.EntityType }, func(r *Inception, v string) { r.EntityType = v }),
		accessor.String("entityId", func(r *Inception) string { return r.EntityID }, func(r *Inception, v string) { r.EntityID = v }),
		accessor.String("murexComment", func(r *Inception) string { return r.MurexComment }, func(r *Inception, v string) { r.MurexComment = v }),
	)
}

func rolledOverFields() []accessor.Field {
	return accessor.Embed(func(r *RolledOver) *Base { return &r.Base }, baseFields()...)
}

// AsInception returns rec as an Inception record if it is one.
func AsInception(rec Aggregated) (*Inception, bool) {
	inc, ok := rec.(*Inception)
	return inc, ok
}

// NavTypeOf returns the NAV type of rec. Only Inception records carry one.
func NavTypeOf(rec Aggregated) string {
	if inc, ok := AsInception(rec); ok {
		return inc.NavType
	}
	return ""
}

// ShapeForEvent returns the record shape fetchers produce for event.
func ShapeForEvent(event Event) (*accessor.Shape, error) {
	switch {
	case event.Is(EventInception):
		return InceptionShape, nil
	case event.Is(EventRolledOver):
		return RolledOverShape, nil
	}
	return nil, fmt.Errorf("no record shape for instruction event %q", event)
}

// NewRecord returns an empty record for event.
func NewRecord(event Event) (Aggregated, error) {
	shape, err := ShapeForEvent(event)
	if err != nil {
		return nil, err
	}
	return shape.New().(Aggregated), nil
}

// Shapes returns every record shape of the model.
func Shapes() []*accessor.Shape {
	return []*accessor.Shape{BaseShape, InceptionShape, RolledOverShape, TradeLegShape, ExternalRecordShape}
}

// ShapeByName finds a model shape by name, ignoring case.
func ShapeByName(name string) (*accessor.Shape, bool) {
	for _, s := range Shapes() {
		if strings.EqualFold(s.Name(), name) {
			return s, true
		}
	}
	return nil, false
}

// GroupKey identifies the group a record belongs to. Two keys are equal
// only when all four parts match exactly.
type GroupKey struct {
	ExternalDealID string   `json:"externalDealId"`
	Comment        string   `json:"comment"`
	NavType        string   `json:"navType"`
	Typology       Typology `json:"typology"`
}

// KeyOf derives the group key of rec.
func KeyOf(rec Aggregated) GroupKey {
	b := rec.Common()
	return GroupKey{
		ExternalDealID: b.Contract,
		Comment:        b.Comment0,
		NavType:        NavTypeOf(rec),
		Typology:       Typology(b.Typology),
	}
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.ExternalDealID, k.Comment, k.NavType, k.Typology)
}
