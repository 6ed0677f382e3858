package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/grouping"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
)

type fakeHandler struct {
	strategy.Claim
	handle func(*strategy.Context) (*strategy.ProcessingResult, error)
	calls  atomic.Int32
}

func (h *fakeHandler) Handle(_ context.Context, tc *strategy.Context) (*strategy.ProcessingResult, error) {
	h.calls.Add(1)
	return h.handle(tc)
}

func oneTrade(tc *strategy.Context) (*strategy.ProcessingResult, error) {
	res := strategy.EmptyResult()
	res.Add(&model.TradeLeg{Key: tc.Key()}, &model.ExternalRecord{ExternalDealID: tc.Key().ExternalDealID})
	return res, nil
}

func group(t *testing.T, deal string, typology model.Typology) *grouping.GroupedRecord {
	t.Helper()
	rec := &model.Inception{}
	rec.Contract, rec.Typology = deal, string(typology)
	g, err := grouping.New(model.KeyOf(rec), []model.Aggregated{rec})
	require.NoError(t, err)
	return g
}

func TestRunDispatchesToResolvedHandler(t *testing.T) {
	swap := &fakeHandler{Claim: strategy.Claim{Event: model.EventInception, Typology: model.TypologyFXSwap}, handle: oneTrade}
	p := New(strategy.NewRegistry(swap))

	res, err := p.Run(context.Background(), strategy.NewContext(model.EventInception, group(t, "D1", model.TypologyFXSwap)))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "D1", res.Trades[0].Key.ExternalDealID)
	assert.Equal(t, int32(1), swap.calls.Load())
}

func TestRunWrapsMissingStrategy(t *testing.T) {
	p := New(strategy.NewRegistry())

	_, err := p.Run(context.Background(), strategy.NewContext(model.EventRolledOver, group(t, "D1", model.TypologyNDF)))

	var pipeErr *PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, model.TypologyNDF, pipeErr.Typology)
	assert.Equal(t, model.EventRolledOver, pipeErr.Event)
	assert.Equal(t, "D1", pipeErr.Key.ExternalDealID)

	var noStrategy *strategy.NoStrategyError
	assert.ErrorAs(t, err, &noStrategy)
	assert.Contains(t, err.Error(), "failed to generate bookings for instruction event: RolledOver, typology: NDF")
}

func TestRunWrapsHandlerFailure(t *testing.T) {
	boom := errors.New("rate missing")
	h := &fakeHandler{
		Claim:  strategy.Claim{Event: model.EventInception, Typology: model.TypologyNDF},
		handle: func(*strategy.Context) (*strategy.ProcessingResult, error) { return nil, boom },
	}

	_, err := New(strategy.NewRegistry(h)).Run(context.Background(), strategy.NewContext(model.EventInception, group(t, "D1", model.TypologyNDF)))
	var pipeErr *PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.ErrorIs(t, err, boom)
}

func TestRunRecoversHandlerPanic(t *testing.T) {
	h := &fakeHandler{
		Claim:  strategy.Claim{Event: model.EventInception, Typology: model.TypologyNDF},
		handle: func(*strategy.Context) (*strategy.ProcessingResult, error) { panic("nil leg") },
	}

	_, err := New(strategy.NewRegistry(h)).Run(context.Background(), strategy.NewContext(model.EventInception, group(t, "D1", model.TypologyNDF)))
	var pipeErr *PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Contains(t, pipeErr.Cause.Error(), "nil leg")
}

func TestRunNeverReturnsNilResult(t *testing.T) {
	h := &fakeHandler{
		Claim:  strategy.Claim{Event: model.EventRolledOver, Typology: model.TypologyFXSwap},
		handle: func(*strategy.Context) (*strategy.ProcessingResult, error) { return nil, nil },
	}

	res, err := New(strategy.NewRegistry(h)).Run(context.Background(), strategy.NewContext(model.EventRolledOver, group(t, "D1", model.TypologyFXSwap)))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Trades)
}

func TestRunBatchKeepsGroupOrder(t *testing.T) {
	h := &fakeHandler{Claim: strategy.Claim{Event: model.EventInception, Typology: model.TypologyNDF}, handle: oneTrade}
	p := New(strategy.NewRegistry(h))

	var groups []*grouping.GroupedRecord
	for i := range 20 {
		groups = append(groups, group(t, fmt.Sprintf("D%02d", i), model.TypologyNDF))
	}

	out, err := p.RunBatch(context.Background(), BatchRequest{Event: model.EventInception, Groups: groups}, BatchOptions{Concurrency: 4})
	require.NoError(t, err)
	require.Len(t, out.Outcomes, 20)
	for i, o := range out.Outcomes {
		assert.Equal(t, fmt.Sprintf("D%02d", i), o.Key.ExternalDealID)
	}

	merged := out.Merged()
	require.Len(t, merged.External, 20)
	assert.Equal(t, "D00", merged.External[0].ExternalDealID)
	assert.Equal(t, "D19", merged.External[19].ExternalDealID)
	assert.NoError(t, out.Err())
}

func TestRunBatchContinueOnError(t *testing.T) {
	ndf := &fakeHandler{Claim: strategy.Claim{Event: model.EventInception, Typology: model.TypologyNDF}, handle: oneTrade}
	p := New(strategy.NewRegistry(ndf))

	groups := []*grouping.GroupedRecord{
		group(t, "D1", model.TypologyNDF),
		group(t, "D2", model.TypologyFXSpot),
		group(t, "D3", model.TypologyNDF),
	}

	out, err := p.RunBatch(context.Background(), BatchRequest{Event: model.EventInception, Groups: groups}, BatchOptions{Concurrency: 2, ContinueOnError: true})
	require.NoError(t, err)
	require.Len(t, out.Failures(), 1)
	assert.Equal(t, "D2", out.Failures()[0].Key.ExternalDealID)
	assert.Len(t, out.Merged().Trades, 2)

	var pipeErr *PipelineError
	assert.ErrorAs(t, out.Err(), &pipeErr)
}

func TestRunBatchStopsOnFirstError(t *testing.T) {
	p := New(strategy.NewRegistry())
	groups := []*grouping.GroupedRecord{group(t, "D1", model.TypologyNDF), group(t, "D2", model.TypologyNDF)}

	out, err := p.RunBatch(context.Background(), BatchRequest{Event: model.EventInception, Groups: groups}, BatchOptions{Concurrency: 1})
	var pipeErr *PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Len(t, out.Failures(), 2)
}

func TestRunBatchPassesOverridesAndBatch(t *testing.T) {
	var sawBatch atomic.Int32
	h := &fakeHandler{
		Claim: strategy.Claim{Event: model.EventInception, Typology: model.TypologyNDF},
		handle: func(tc *strategy.Context) (*strategy.ProcessingResult, error) {
			sawBatch.Store(int32(tc.Batch().Len()))
			if tc.Overrides()["portfolio"] != "P-"+tc.Key().ExternalDealID {
				return nil, errors.New("wrong overrides")
			}
			return strategy.EmptyResult(), nil
		},
	}
	p := New(strategy.NewRegistry(h))

	groups := []*grouping.GroupedRecord{group(t, "D1", model.TypologyNDF), group(t, "D2", model.TypologyNDF)}
	req := BatchRequest{
		Event:  model.EventInception,
		Groups: groups,
		Overrides: func(k model.GroupKey) map[string]any {
			return map[string]any{"portfolio": "P-" + k.ExternalDealID}
		},
	}

	out, err := p.RunBatch(context.Background(), req, BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, out.Failures())
	assert.Equal(t, int32(2), sawBatch.Load())
}
