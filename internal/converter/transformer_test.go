package converter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

func TestApplyTransformation(t *testing.T) {
	cases := []struct {
		name   string
		value  string
		action config.TransformationAction
		want   string
	}{
		{"prepend", "123", config.TransformationAction{Type: "prepend_string", Value: "A"}, "A123"},
		{"append", "123", config.TransformationAction{Type: "append_string", Value: "X"}, "123X"},
		{"trim", "  a  ", config.TransformationAction{Type: "trim"}, "a"},
		{"trim left chars", "00120", config.TransformationAction{Type: "trim_left", Value: "0"}, "120"},
		{"trim right", "a  ", config.TransformationAction{Type: "trim_right"}, "a"},
		{"upper", "eur", config.TransformationAction{Type: "uppercase"}, "EUR"},
		{"lower", "EUR", config.TransformationAction{Type: "lowercase"}, "eur"},
		{"replace", "FX SWAP", config.TransformationAction{Type: "replace", Find: " ", Value: "_"}, "FX_SWAP"},
		{"replace without find", "a b", config.TransformationAction{Type: "replace", Value: "_"}, "a b"},
		{"regex", "D-001-X", config.TransformationAction{Type: "regex_replace", Find: `-\d+`, Value: ""}, "D-X"},
		{"substring", "PORTFOLIO", config.TransformationAction{Type: "substring", Value: "0,4"}, "PORT"},
		{"substring past end", "ABC", config.TransformationAction{Type: "substring", Value: "1,10"}, "BC"},
		{"substring empty", "ABC", config.TransformationAction{Type: "substring", Value: "5,10"}, ""},
		{"pad zeros", "42", config.TransformationAction{Type: "pad_zeros_to_length", Value: "5"}, "00042"},
		{"pad spaces", "42", config.TransformationAction{Type: "pad_spaces_to_length", Value: "4"}, "42  "},
		{"ensure truncates", "12345", config.TransformationAction{Type: "ensure_length", Value: "3"}, "123"},
		{"ensure pads", "12", config.TransformationAction{Type: "ensure_length", Value: "4"}, "0012"},
		{"format number", "1.005", config.TransformationAction{Type: "format_number", Value: "2"}, "1.01"},
		{"format non number", "abc", config.TransformationAction{Type: "format_number", Value: "2"}, "abc"},
		{"leading zeros", "000", config.TransformationAction{Type: "remove_leading_zeros"}, "0"},
		{"lookup hit", "B", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"B": "BUY"}}, "BUY"},
		{"lookup miss", "X", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"B": "BUY"}}, "X"},
		{"lookup default", "X", config.TransformationAction{Type: "lookup_with_default", Value: "?", LookupTable: map[string]string{}}, "?"},
		{"empty default", " ", config.TransformationAction{Type: "if_empty_use_default", Value: "NA"}, "NA"},
		{"digits", "D-12/3", config.TransformationAction{Type: "extract_digits"}, "123"},
		{"whitespace", " a \t b ", config.TransformationAction{Type: "normalize_whitespace"}, "a b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyTransformation(tc.value, tc.action, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ApplyTransformation("x", config.TransformationAction{Type: "title_case"}, nil)
	assert.EqualError(t, err, "unknown transformation type: title_case")

	_, err = ApplyTransformation("x", config.TransformationAction{Type: "regex_replace", Find: "("}, nil)
	assert.Error(t, err)

	got, err := ApplyTransformation("", config.TransformationAction{Type: "if_empty_use_field", Value: "f"},
		func(name string) string { return "from-" + name })
	require.NoError(t, err)
	assert.Equal(t, "from-f", got)
}

func TestTransformerAppliesRulesThroughAccessors(t *testing.T) {
	rules := []config.TransformationRule{
		{Field: "murexComment", Actions: []config.TransformationAction{
			{Type: "if_empty_use_field", Value: "externalDealId"},
			{Type: "prepend_string", Value: "H-"},
		}},
		{Field: "amount1", Actions: []config.TransformationAction{{Type: "format_number", Value: "2"}}},
		{Field: "valueDate", Actions: []config.TransformationAction{{Type: "if_empty_use_default", Value: "2024-04-02"}}},
		{Field: "buySell", Actions: []config.TransformationAction{{Type: "lookup", LookupTable: map[string]string{"B": "BUY"}}}},
	}
	tr, err := NewTransformer(mapper.Default(), rules)
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Len())

	rec := &model.ExternalRecord{ID: "r1", ExternalDealID: "D1", Amount1: decimal.RequireFromString("10.456"), BuySell: "B"}
	require.NoError(t, tr.ApplyAll([]*model.ExternalRecord{rec}))

	assert.Equal(t, "H-D1", rec.MurexComment)
	assert.Equal(t, "10.46", rec.Amount1.String())
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), rec.ValueDate)
	assert.Equal(t, "BUY", rec.BuySell)
}

func TestTransformerRejectsResultOfWrongKind(t *testing.T) {
	tr, err := NewTransformer(mapper.Default(), []config.TransformationRule{
		{Field: "amount1", Actions: []config.TransformationAction{{Type: "append_string", Value: " EUR"}}},
	})
	require.NoError(t, err)

	err = tr.Apply(&model.ExternalRecord{ID: "r1"})
	var mismatch *accessor.TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestNewTransformerValidatesRules(t *testing.T) {
	engine := mapper.Default()

	_, err := NewTransformer(engine, []config.TransformationRule{{Field: "nope"}})
	var unknown *accessor.UnknownFieldError
	assert.ErrorAs(t, err, &unknown)

	_, err = NewTransformer(engine, []config.TransformationRule{{Field: "portfolio", Actions: []config.TransformationAction{{Type: "explode"}}}})
	assert.ErrorContains(t, err, "unknown transformation type: explode")

	_, err = NewTransformer(engine, []config.TransformationRule{{Field: "portfolio", Actions: []config.TransformationAction{{Type: "regex_replace", Find: "["}}}})
	assert.ErrorContains(t, err, "invalid regex pattern")

	_, err = NewTransformer(engine, []config.TransformationRule{{Field: "portfolio", Actions: []config.TransformationAction{{Type: "if_empty_use_field", Value: "ghost"}}}})
	assert.ErrorAs(t, err, &unknown)

	tr, err := NewTransformer(engine, nil)
	require.NoError(t, err)
	assert.Zero(t, tr.Len())
}

func TestNewTransformerRejectsGroupKeyFields(t *testing.T) {
	for _, name := range model.GroupKeyFields {
		t.Run(name, func(t *testing.T) {
			_, err := NewTransformer(mapper.Default(), []config.TransformationRule{
				{Field: name, Actions: []config.TransformationAction{{Type: "prepend_string", Value: "MX-"}}},
			})
			assert.ErrorContains(t, err, "rule 1 ("+name+"): field carries the group key")
		})
	}
}

func TestTransformerKeepsGroupKey(t *testing.T) {
	tr, err := NewTransformer(mapper.Default(), []config.TransformationRule{
		{Field: "murexComment", Actions: []config.TransformationAction{
			{Type: "if_empty_use_field", Value: "externalDealId"},
			{Type: "prepend_string", Value: "MX-"},
		}},
	})
	require.NoError(t, err)

	rec := &model.ExternalRecord{ID: "r1", ExternalDealID: "D1", GroupComment: "C", GroupNavType: "N", GroupTypology: "FX Swap"}
	before := rec.Key()
	require.NoError(t, tr.ApplyAll([]*model.ExternalRecord{rec}))

	assert.Equal(t, "MX-D1", rec.MurexComment)
	assert.Equal(t, before, rec.Key())
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "00€", PadLeft("€", 3, '0'))
	assert.Equal(t, "abc", PadLeft("abc", 2, '0'))
	assert.Equal(t, "a..", PadRight("a", 3, '.'))
}
