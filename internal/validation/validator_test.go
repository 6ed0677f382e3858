package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
)

type stubHandler struct{ strategy.Claim }

func (stubHandler) Handle(context.Context, *strategy.Context) (*strategy.ProcessingResult, error) {
	return &strategy.ProcessingResult{}, nil
}

func newTestValidator(opts ValidationOptions) *Validator {
	registry := strategy.NewRegistry(
		stubHandler{strategy.Claim{Event: model.EventInception, Typology: model.TypologyFXSwap}},
		stubHandler{strategy.Claim{Event: model.EventInception, Typology: model.TypologyNDF}},
	)
	return NewValidatorWithOptions(nil, registry, opts)
}

func validConfig() *config.EventConfig {
	return &config.EventConfig{
		InstructionEvent: "Inception",
		Path:             "configs/inception.yaml",
		Overrides: config.OverrideConfig{
			Default: map[string]any{"portfolio": "HEDGE", "spotRate": "1.0850"},
			ByTypology: map[string]map[string]any{
				"NDF": {"counterparty": "CP-NDF"},
			},
		},
		TransformationRules: []config.TransformationRule{
			{Field: "murexComment", Actions: []config.TransformationAction{{Type: "uppercase"}}},
		},
	}
}

func TestValidateAll_Valid(t *testing.T) {
	v := newTestValidator(ValidationOptions{})

	result := v.ValidateAll(config.EventConfigs{validConfig()})

	assert.True(t, result.IsValid)
	assert.Equal(t, 1, result.ConfigsValidated)
	assert.Zero(t, result.ErrorCount)
	assert.Zero(t, result.WarningCount)
	assert.Equal(t, "No validation errors.", FormatErrors(result.Errors))
}

func TestValidateEventConfig_Problems(t *testing.T) {
	cfg := validConfig()
	cfg.Overrides.Default["notAField"] = "x"
	cfg.Overrides.Default["amount1"] = "lots"
	cfg.Overrides.ByTypology["FX Spot"] = map[string]any{"portfolio": "SPOT"}
	cfg.TransformationRules = append(cfg.TransformationRules,
		config.TransformationRule{Field: "murexComment", Actions: []config.TransformationAction{{Type: "explode"}}},
		config.TransformationRule{Field: "missing", Actions: []config.TransformationAction{{Type: "trim"}}},
	)

	errs := newTestValidator(ValidationOptions{}).ValidateEventConfig(cfg)

	byRule := map[string][]*ValidationError{}
	for _, e := range errs {
		byRule[e.Rule] = append(byRule[e.Rule], e)
	}

	require.Len(t, byRule["overrides.default"], 2)
	amount := byRule["overrides.default"][0]
	assert.Equal(t, "amount1", amount.Field)
	assert.Equal(t, SeverityError, amount.Severity)
	assert.Equal(t, "lots", amount.Value)
	unknown := byRule["overrides.default"][1]
	assert.Equal(t, "notAField", unknown.Field)
	assert.Equal(t, SeverityWarning, unknown.Severity)

	require.Len(t, byRule["override_typology"], 1)
	assert.Equal(t, "FX Spot", byRule["override_typology"][0].Value)
	assert.Equal(t, SeverityWarning, byRule["override_typology"][0].Severity)

	require.Len(t, byRule["transformation_rule"], 2)
	for _, e := range byRule["transformation_rule"] {
		assert.Equal(t, SeverityError, e.Severity)
	}
	assert.Equal(t, "missing", byRule["transformation_rule"][1].Field)
	assert.Contains(t, byRule["transformation_rule"][1].Message, "rule 3")
}

func TestValidateEventConfig_GroupKeyRule(t *testing.T) {
	cfg := validConfig()
	cfg.TransformationRules = append(cfg.TransformationRules, config.TransformationRule{
		Field:   "externalDealId",
		Actions: []config.TransformationAction{{Type: "prepend_string", Value: "MX-"}},
	})

	errs := newTestValidator(ValidationOptions{}).ValidateEventConfig(cfg)

	require.Len(t, errs, 1)
	assert.Equal(t, "transformation_rule", errs[0].Rule)
	assert.Equal(t, "externalDealId", errs[0].Field)
	assert.Equal(t, SeverityError, errs[0].Severity)
	assert.Contains(t, errs[0].Message, "rule 2: field carries the group key")
}

func TestValidateEventConfig_UnknownEvent(t *testing.T) {
	cfg := validConfig()
	cfg.InstructionEvent = "Matured"

	errs := newTestValidator(ValidationOptions{}).ValidateEventConfig(cfg)

	require.Len(t, errs, 1)
	assert.Equal(t, "instruction_event", errs[0].Rule)
	assert.Equal(t, SeverityError, errs[0].Severity)
}

func TestValidateEventConfig_NoHandlers(t *testing.T) {
	cfg := validConfig()
	cfg.InstructionEvent = "RolledOver"
	cfg.Overrides.ByTypology = nil

	errs := newTestValidator(ValidationOptions{}).ValidateEventConfig(cfg)

	require.Len(t, errs, 1)
	assert.Equal(t, "handlers", errs[0].Rule)
	assert.Contains(t, errs[0].Message, "RolledOver")
}

func TestValidateAll_WarningsAsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Overrides.Default["notAField"] = "x"

	lenient := newTestValidator(ValidationOptions{}).ValidateAll(config.EventConfigs{cfg})
	assert.True(t, lenient.IsValid)
	assert.Equal(t, 1, lenient.WarningCount)

	strict := newTestValidator(ValidationOptions{TreatWarningsAsErrors: true}).ValidateAll(config.EventConfigs{cfg})
	assert.False(t, strict.IsValid)
	assert.Zero(t, strict.ErrorCount)
}

func TestFormatErrors(t *testing.T) {
	errs := []*ValidationError{
		{Severity: SeverityError, Event: "Inception", Source: "a.yaml", Field: "amount1", Value: "lots", Message: "value cannot be used as decimal"},
		{Severity: SeverityWarning, Event: "Inception", Message: "no handler"},
	}

	out := FormatErrors(errs)

	assert.Contains(t, out, "Validation completed with 2 problem(s)")
	assert.Contains(t, out, "1. [ERROR] Inception (a.yaml), field 'amount1': value cannot be used as decimal (value: 'lots')")
	assert.Contains(t, out, "2. [WARNING] Inception: no handler")
}
