package mapper

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

type source struct {
	Contract   string
	Comment0   string
	Amount     decimal.Decimal
	Rate       decimal.Decimal
	OnlySource string
}

type target struct {
	Contract   string
	Comment0   string
	Amount     decimal.Decimal
	Rate       string
	OnlyTarget string
}

var (
	sourceShape = accessor.Define("Source", func() *source { return &source{} }, func() []accessor.Field {
		return []accessor.Field{
			accessor.String("contract", func(r *source) string { return r.Contract }, func(r *source, v string) { r.Contract = v }),
			accessor.String("comment0", func(r *source) string { return r.Comment0 }, func(r *source, v string) { r.Comment0 = v }),
			accessor.Decimal("amount", func(r *source) decimal.Decimal { return r.Amount }, func(r *source, v decimal.Decimal) { r.Amount = v }),
			accessor.Decimal("rate", func(r *source) decimal.Decimal { return r.Rate }, func(r *source, v decimal.Decimal) { r.Rate = v }),
			accessor.String("onlySource", func(r *source) string { return r.OnlySource }, func(r *source, v string) { r.OnlySource = v }),
		}
	})

	targetShape = accessor.Define("Target", func() *target { return &target{} }, func() []accessor.Field {
		return []accessor.Field{
			accessor.String("contract", func(r *target) string { return r.Contract }, func(r *target, v string) { r.Contract = v }),
			accessor.String("comment0", func(r *target) string { return r.Comment0 }, func(r *target, v string) { r.Comment0 = v }),
			accessor.Decimal("amount", func(r *target) decimal.Decimal { return r.Amount }, func(r *target, v decimal.Decimal) { r.Amount = v }),
			accessor.String("rate", func(r *target) string { return r.Rate }, func(r *target, v string) { r.Rate = v }),
			accessor.String("onlyTarget", func(r *target) string { return r.OnlyTarget }, func(r *target, v string) { r.OnlyTarget = v }),
		}
	})
)

func (*source) Shape() *accessor.Shape { return sourceShape }
func (*target) Shape() *accessor.Shape { return targetShape }

func sample() *source {
	return &source{
		Contract:   "D1",
		Comment0:   "X",
		Amount:     decimal.RequireFromString("1000000"),
		Rate:       decimal.RequireFromString("1.0825"),
		OnlySource: "hidden",
	}
}

func TestMappingIsDirectional(t *testing.T) {
	e := New()

	forward, err := e.Mapping(sourceShape, targetShape)
	require.NoError(t, err)
	backward, err := e.Mapping(targetShape, sourceShape)
	require.NoError(t, err)

	assert.NotSame(t, forward, backward)
	assert.Equal(t, []string{"contract", "comment0", "amount"}, forward.Names())
	assert.ElementsMatch(t, forward.Names(), backward.Names())

	_, ok := forward.Pair("onlySource")
	assert.False(t, ok)
	_, ok = backward.Pair("onlyTarget")
	assert.False(t, ok)

	assert.Equal(t, []string{"rate"}, forward.Incompatible())
	assert.Same(t, sourceShape, forward.Source())
	assert.Same(t, targetShape, forward.Target())
}

func TestMappingBuiltOnceForConcurrentCallers(t *testing.T) {
	e := New()
	const callers = 50
	got := make([]*Mapping, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := e.Mapping(sourceShape, targetShape)
			assert.NoError(t, err)
			got[i] = m
		}()
	}
	wg.Wait()
	for _, m := range got {
		assert.Same(t, got[0], m)
	}
}

func TestCopyOnlyCopiesRequestedMappedFields(t *testing.T) {
	e := New()

	out, err := e.Copy(sample(), targetShape, Fields("contract", "amount", "onlySource", "onlyTarget", "rate", "missing"))
	require.NoError(t, err)

	tgt := out.(*target)
	assert.Equal(t, "D1", tgt.Contract)
	assert.True(t, decimal.RequireFromString("1000000").Equal(tgt.Amount))
	assert.Empty(t, tgt.Comment0, "not requested")
	assert.Empty(t, tgt.OnlyTarget)
	assert.Empty(t, tgt.Rate, "kind mismatch is never copied")
}

func TestCopyAllAndClone(t *testing.T) {
	e := New()
	src := sample()

	out, err := e.CopyAll(src, targetShape)
	require.NoError(t, err)
	assert.Equal(t, "X", out.(*target).Comment0)

	clone, err := e.Clone(src)
	require.NoError(t, err)
	assert.Equal(t, src, clone)
	assert.NotSame(t, src, clone)
}

func TestOverridesWinOverCopiedValues(t *testing.T) {
	e := New()

	out, report, err := e.Map(sample(), targetShape, map[string]any{"comment0": "Y"})
	require.NoError(t, err)
	assert.Equal(t, "Y", out.(*target).Comment0)
	assert.Equal(t, []string{"comment0"}, report.Applied)
	assert.False(t, report.HasSkipped())
}

func TestApplyOverridesSkipsUnknownAndMismatched(t *testing.T) {
	e := New()
	tgt := &target{Contract: "D1"}

	report := e.ApplyOverrides(tgt, map[string]any{
		"amount":     "12.5",
		"contract":   42,
		"entityName": "Bank",
		"onlyTarget": "set",
	})

	assert.Equal(t, []string{"amount", "onlyTarget"}, report.Applied)
	require.Len(t, report.Skipped, 2)

	assert.Equal(t, "contract", report.Skipped[0].Field)
	var mismatch *accessor.TypeMismatchError
	assert.ErrorAs(t, report.Skipped[0].Reason, &mismatch)

	assert.Equal(t, "entityName", report.Skipped[1].Field)
	var unknown *accessor.UnknownFieldError
	assert.ErrorAs(t, report.Skipped[1].Reason, &unknown)

	assert.Equal(t, "D1", tgt.Contract)
	assert.Equal(t, "set", tgt.OnlyTarget)
	assert.True(t, decimal.RequireFromString("12.5").Equal(tgt.Amount))
}

func TestApplyOverridesEmptyMap(t *testing.T) {
	report := New().ApplyOverrides(&target{}, nil)
	assert.Empty(t, report.Applied)
	assert.Empty(t, report.Skipped)
}

func TestGetAs(t *testing.T) {
	e := New()
	amount, err := GetAs[decimal.Decimal](e, sample(), "amount")
	require.NoError(t, err)
	assert.Equal(t, "1000000", amount.String())

	_, err = GetAs[string](e, sample(), "amount")
	var mismatch *accessor.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, accessor.KindDecimal, mismatch.Kind)
	assert.Contains(t, err.Error(), "expects decimal")
	assert.NotContains(t, err.Error(), "invalid")
}

func TestDefaultEngineIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.Same(t, accessor.Default(), Default().Tables())

	view := Default().WithLogger(discard())
	assert.Same(t, Default().Tables(), view.Tables())
}
