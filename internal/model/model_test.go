package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

func TestEveryModelShapeBuilds(t *testing.T) {
	cache := accessor.NewCache()
	for _, s := range Shapes() {
		tbl, err := cache.Table(s)
		require.NoError(t, err, s.Name())
		assert.Positive(t, tbl.Len())
	}
}

func TestInceptionIsBasePlusExtras(t *testing.T) {
	cache := accessor.NewCache()
	base, err := cache.Table(BaseShape)
	require.NoError(t, err)
	inception, err := cache.Table(InceptionShape)
	require.NoError(t, err)
	rolled, err := cache.Table(RolledOverShape)
	require.NoError(t, err)

	assert.Equal(t, base.Names(), rolled.Names())
	assert.Equal(t, base.Names(), inception.Names()[:base.Len()])
	assert.Equal(t, base.Len()+9, inception.Len())
	assert.False(t, rolled.Has("navType"))
}

func TestBaseFieldsAddressableOnEveryVariant(t *testing.T) {
	cache := accessor.NewCache()
	for _, event := range Events {
		rec, err := NewRecord(event)
		require.NoError(t, err)
		require.NoError(t, cache.Set(rec, "contract", "D1"))
		require.NoError(t, cache.Set(rec, "amount1", "10.25"))

		assert.Equal(t, "D1", rec.Common().Contract)
		assert.True(t, decimal.RequireFromString("10.25").Equal(rec.Common().Amount1))
		assert.Equal(t, event, rec.Event())
	}
}

func TestVariantCheckGuardsExtendedFields(t *testing.T) {
	inc := &Inception{NavType: "NAV1"}
	inc.Contract = "D1"
	rolled := &RolledOver{}

	_, ok := AsInception(rolled)
	assert.False(t, ok)
	got, ok := AsInception(inc)
	require.True(t, ok)
	assert.Equal(t, "NAV1", got.NavType)

	assert.Equal(t, "NAV1", NavTypeOf(inc))
	assert.Empty(t, NavTypeOf(rolled))
}

func TestKeyOf(t *testing.T) {
	inc := &Inception{NavType: "NAV1"}
	inc.Contract, inc.Comment0, inc.Typology = "D1", "C", "FX Swap"

	key := KeyOf(inc)
	assert.Equal(t, GroupKey{ExternalDealID: "D1", Comment: "C", NavType: "NAV1", Typology: TypologyFXSwap}, key)
	assert.Equal(t, "D1|C|NAV1|FX Swap", key.String())
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent(" rolledover ")
	require.NoError(t, err)
	assert.Equal(t, EventRolledOver, e)

	_, err = ParseEvent("Matured")
	assert.Error(t, err)

	_, err = ShapeForEvent("Matured")
	assert.Error(t, err)
}

func TestShapeByName(t *testing.T) {
	s, ok := ShapeByName("tradeleg")
	require.True(t, ok)
	assert.Same(t, TradeLegShape, s)

	_, ok = ShapeByName("Nope")
	assert.False(t, ok)
}
