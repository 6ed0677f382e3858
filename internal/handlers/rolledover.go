package handlers

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
)

// pending is a registered handler whose booking rules are not defined yet.
// It claims its pair so dispatch succeeds, and returns an empty result.
type pending struct {
	strategy.Claim
	logger logrus.FieldLogger
}

func newPending(claim strategy.Claim, deps Deps) *pending {
	logger := deps.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &pending{Claim: claim, logger: logger.WithField("strategy", claim.Type())}
}

func (h *pending) Handle(_ context.Context, tc *strategy.Context) (*strategy.ProcessingResult, error) {
	log := h.logger.WithFields(logrus.Fields{
		"group":   tc.Key().String(),
		"records": tc.Group().Len(),
	})
	log.Infof("processing %s transformation (prototype)", h.Type())
	log.Warnf("%s transformation not yet implemented, returning empty result", h.Type())
	return strategy.EmptyResult(), nil
}

// NewRolledOverFXSwap claims rolled-over FX swaps.
//
// TODO: book the roll (close the old far leg, open the new near/far pair)
// instead of returning an empty result.
func NewRolledOverFXSwap(deps Deps) strategy.Handler {
	return newPending(strategy.Claim{Event: model.EventRolledOver, Typology: model.TypologyFXSwap}, deps)
}

// NewRolledOverNDF claims rolled-over NDFs.
func NewRolledOverNDF(deps Deps) strategy.Handler {
	return newPending(strategy.Claim{Event: model.EventRolledOver, Typology: model.TypologyNDF}, deps)
}
