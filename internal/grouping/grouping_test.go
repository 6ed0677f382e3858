package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

func inception(deal, comment, nav, typology, leg string) *model.Inception {
	r := &model.Inception{NavType: nav}
	r.Contract, r.Comment0, r.Typology, r.LegType = deal, comment, typology, leg
	return r
}

func TestGroupKeepsFirstOccurrenceOrder(t *testing.T) {
	records := []model.Aggregated{
		inception("D2", "C", "NAV1", "FX Swap", "NEAR"),
		inception("D1", "C", "NAV1", "FX Swap", "NEAR"),
		inception("D2", "C", "NAV1", "FX Swap", "FAR"),
		inception("D1", "C", "NAV2", "FX Swap", "NEAR"),
		inception("D1", "C", "NAV1", "FX Swap", "FAR"),
	}

	groups, err := Group(records)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "D2", groups[0].Key().ExternalDealID)
	assert.Equal(t, 2, groups[0].Len())
	assert.Equal(t, "NEAR", groups[0].At(0).Common().LegType)
	assert.Equal(t, "FAR", groups[0].At(1).Common().LegType)

	assert.Equal(t, model.GroupKey{ExternalDealID: "D1", Comment: "C", NavType: "NAV1", Typology: model.TypologyFXSwap}, groups[1].Key())
	assert.Equal(t, 2, groups[1].Len())
	assert.Equal(t, "NAV2", groups[2].Key().NavType)
}

func TestKeyEqualityIsExact(t *testing.T) {
	groups, err := Group([]model.Aggregated{
		inception("D1", "C", "NAV1", "FX Swap", ""),
		inception("D1", "c", "NAV1", "FX Swap", ""),
		inception("D1", "C", "NAV1", "NDF", ""),
	})
	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestRecordsReturnsCopy(t *testing.T) {
	g, err := New(model.GroupKey{ExternalDealID: "D1"}, []model.Aggregated{inception("D1", "", "", "", "")})
	require.NoError(t, err)

	recs := g.Records()
	recs[0] = nil
	assert.NotNil(t, g.At(0))
	assert.Same(t, model.InceptionShape, g.Shape())
}

func TestNewRejectsMixedShapes(t *testing.T) {
	_, err := New(model.GroupKey{ExternalDealID: "D1"}, []model.Aggregated{
		inception("D1", "", "", "", ""),
		&model.RolledOver{},
	})
	assert.ErrorIs(t, err, ErrMixedShapes)

	_, err = New(model.GroupKey{}, nil)
	assert.Error(t, err)
}

func TestBatchLookups(t *testing.T) {
	groups, err := Group([]model.Aggregated{
		inception("D1", "NEAR", "NAV1", "FX Swap", "NEAR"),
		inception("D1", "FAR", "NAV1", "FX Swap", "FAR"),
		inception("D2", "", "NAV1", "NDF", ""),
	})
	require.NoError(t, err)

	batch := NewBatch(groups)
	assert.Equal(t, 3, batch.Len())
	assert.Len(t, batch.ByDeal("D1"), 2)
	assert.Empty(t, batch.ByDeal("D9"))

	var nilBatch *Batch
	assert.Zero(t, nilBatch.Len())
	assert.Nil(t, nilBatch.ByDeal("D1"))
}
