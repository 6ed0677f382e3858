package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/grouping"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
)

// InceptionFXSwap books the near and far legs of a new FX swap hedge.
//
// Near and far legs are paired in order of arrival. A leg whose counterpart
// is not in the same group is looked up in the other groups of the same
// deal; finding none is an error.
type InceptionFXSwap struct {
	booker
}

func NewInceptionFXSwap(deps Deps) *InceptionFXSwap {
	return &InceptionFXSwap{booker: newBooker(strategy.Claim{Event: model.EventInception, Typology: model.TypologyFXSwap}, deps)}
}

func (h *InceptionFXSwap) Handle(_ context.Context, tc *strategy.Context) (*strategy.ProcessingResult, error) {
	records := tc.Group().Records()

	var nears, fars []int
	for i, rec := range records {
		switch strings.ToUpper(strings.TrimSpace(rec.Common().LegType)) {
		case model.LegNear:
			nears = append(nears, i)
		case model.LegFar:
			fars = append(fars, i)
		default:
			return nil, fmt.Errorf("record %d of FX swap group %s has leg type %q", i, tc.Key(), rec.Common().LegType)
		}
	}

	legs := make([]*model.TradeLeg, len(records))
	for i, rec := range records {
		leg, err := h.draft(tc, rec, i)
		if err != nil {
			return nil, err
		}
		leg.LegType = strings.ToUpper(strings.TrimSpace(leg.LegType))
		legs[i] = leg
	}

	if err := h.pair(tc, legs, nears, fars, model.LegFar); err != nil {
		return nil, err
	}
	if err := h.pair(tc, legs, fars, nears, model.LegNear); err != nil {
		return nil, err
	}

	res := strategy.EmptyResult()
	for _, leg := range legs {
		ext, err := h.finish(tc, leg)
		if err != nil {
			return nil, err
		}
		res.Add(leg, ext)
	}

	h.logger.WithFields(logrus.Fields{
		"group": tc.Key().String(),
		"near":  len(nears),
		"far":   len(fars),
	}).Debug("booked FX swap legs")
	return res, nil
}

// pair links each leg in from with the leg at the same position in to. Legs
// left over are matched against other groups of the same deal.
func (h *InceptionFXSwap) pair(tc *strategy.Context, legs []*model.TradeLeg, from, to []int, want string) error {
	for n, i := range from {
		if n < len(to) {
			legs[i].SwapPairRef = legs[to[n]].BookingID
			continue
		}
		other := counterpart(tc, want)
		if other == nil {
			return fmt.Errorf("%s leg %d of FX swap group %s has no %s leg", legs[i].LegType, i, tc.Key(), strings.ToLower(want))
		}
		legs[i].SwapPairRef = other.Key().String()
	}
	return nil
}

// counterpart finds another group of the same deal and typology holding a
// leg of type want.
func counterpart(tc *strategy.Context, want string) *grouping.GroupedRecord {
	self := tc.Group()
	candidates := tc.Batch().Find(func(g *grouping.GroupedRecord) bool {
		return g != self &&
			g.Key().ExternalDealID == self.Key().ExternalDealID &&
			g.Typology() == self.Typology()
	})
	for _, g := range candidates {
		for i := range g.Len() {
			if strings.EqualFold(strings.TrimSpace(g.At(i).Common().LegType), want) {
				return g
			}
		}
	}
	return nil
}

// InceptionNDF books one leg per record of a new non-deliverable forward.
// NDFs without a settlement currency settle in USD.
type InceptionNDF struct {
	booker
}

func NewInceptionNDF(deps Deps) *InceptionNDF {
	return &InceptionNDF{booker: newBooker(strategy.Claim{Event: model.EventInception, Typology: model.TypologyNDF}, deps)}
}

func (h *InceptionNDF) Handle(_ context.Context, tc *strategy.Context) (*strategy.ProcessingResult, error) {
	settlement := tc.Params().USDCurrency
	if settlement == "" {
		settlement = "USD"
	}
	return h.bookEach(tc, func(leg *model.TradeLeg, _ model.Aggregated) {
		if leg.SettlementCurrency == "" {
			leg.SettlementCurrency = settlement
		}
	})
}

// InceptionFXSpot books one leg per record of a new spot hedge.
type InceptionFXSpot struct {
	booker
}

func NewInceptionFXSpot(deps Deps) *InceptionFXSpot {
	return &InceptionFXSpot{booker: newBooker(strategy.Claim{Event: model.EventInception, Typology: model.TypologyFXSpot}, deps)}
}

func (h *InceptionFXSpot) Handle(_ context.Context, tc *strategy.Context) (*strategy.ProcessingResult, error) {
	return h.bookEach(tc, func(leg *model.TradeLeg, _ model.Aggregated) {
		if leg.LegType == "" {
			leg.LegType = "SPOT"
		}
	})
}
