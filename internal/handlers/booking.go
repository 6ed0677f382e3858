// =============================================================================
// FX Booking Transformer - Transformation Handlers
// =============================================================================
//
// One handler per (instruction event, typology) pair. Every Inception
// handler books its records in two steps:
//
//   1. draft:  copy the aggregated record into a TradeLeg by field name and
//              stamp booking metadata and derived amounts
//   2. finish: apply the configured overrides, then derive the external
//              record from the overridden leg
//
// Handler-specific logic runs between the two steps, so overrides always
// have the last word.
//
// =============================================================================

package handlers

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
)

// Deps are shared by all handlers.
type Deps struct {
	Engine *mapper.Engine
	Logger logrus.FieldLogger

	// NewID generates booking and record ids. Defaults to random UUIDs.
	NewID func() string
}

func (d Deps) withDefaults() Deps {
	if d.Engine == nil {
		d.Engine = mapper.Default()
	}
	if d.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Logger = l
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// Handlers returns the standard handlers in registration order.
func Handlers(deps Deps) []strategy.Handler {
	return []strategy.Handler{
		NewInceptionFXSwap(deps),
		NewInceptionNDF(deps),
		NewInceptionFXSpot(deps),
		NewRolledOverFXSwap(deps),
		NewRolledOverNDF(deps),
	}
}

// NewRegistry returns a registry holding the standard handlers.
func NewRegistry(deps Deps) *strategy.Registry {
	return strategy.NewRegistry(Handlers(deps)...)
}

// booker carries the shared draft and finish steps.
type booker struct {
	strategy.Claim
	engine *mapper.Engine
	logger logrus.FieldLogger
	newID  func() string
}

func newBooker(claim strategy.Claim, deps Deps) booker {
	deps = deps.withDefaults()
	return booker{
		Claim:  claim,
		engine: deps.Engine,
		logger: deps.Logger.WithField("strategy", claim.Type()),
		newID:  deps.NewID,
	}
}

func (b *booker) draft(tc *strategy.Context, rec model.Aggregated, index int) (*model.TradeLeg, error) {
	out, err := b.engine.CopyAll(rec, model.TradeLegShape)
	if err != nil {
		return nil, fmt.Errorf("map record %d of group %s: %w", index, tc.Key(), err)
	}
	leg := out.(*model.TradeLeg)

	leg.Key = tc.Key()
	leg.BookingID = b.newID()
	leg.LegIndex = int64(index)
	leg.InstructionEvent = string(tc.Event())
	leg.TransformationType = b.Type()
	leg.InputCurrency = tc.Params().InputCurrency

	recompute := leg.Amount2.IsZero()
	if inc, ok := model.AsInception(rec); ok && !inc.HedgeAmtAllocation.IsZero() {
		leg.Amount1 = inc.HedgeAmtAllocation
		recompute = true
	}
	if recompute && !leg.ContractRate.IsZero() {
		leg.Amount2 = leg.Amount1.Mul(leg.ContractRate)
	}
	return leg, nil
}

func (b *booker) finish(tc *strategy.Context, leg *model.TradeLeg) (*model.ExternalRecord, error) {
	if report := b.engine.ApplyOverrides(leg, tc.Overrides()); report.HasSkipped() {
		b.logger.WithFields(logrus.Fields{
			"group":   tc.Key().String(),
			"skipped": len(report.Skipped),
		}).Debug("some overrides did not apply to the trade leg")
	}

	out, err := b.engine.CopyAll(leg, model.ExternalRecordShape)
	if err != nil {
		return nil, fmt.Errorf("map trade leg %d of group %s: %w", leg.LegIndex, tc.Key(), err)
	}
	ext := out.(*model.ExternalRecord)

	key := tc.Key()
	ext.ID = b.newID()
	ext.ExternalDealID = key.ExternalDealID
	ext.GroupComment = key.Comment
	ext.GroupNavType = key.NavType
	ext.GroupTypology = string(key.Typology)
	ext.Status = model.StatusNew
	return ext, nil
}

// bookEach books every record of the group as its own leg. derive, if not
// nil, adjusts each leg between draft and finish.
func (b *booker) bookEach(tc *strategy.Context, derive func(*model.TradeLeg, model.Aggregated)) (*strategy.ProcessingResult, error) {
	res := strategy.EmptyResult()
	for i, rec := range tc.Group().Records() {
		leg, err := b.draft(tc, rec, i)
		if err != nil {
			return nil, err
		}
		if derive != nil {
			derive(leg, rec)
		}
		ext, err := b.finish(tc, leg)
		if err != nil {
			return nil, err
		}
		res.Add(leg, ext)
	}
	return res, nil
}
