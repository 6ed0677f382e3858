// =============================================================================
// FX Booking Transformer - Configuration Validation
// =============================================================================
//
// Checks event configs against the record shapes and the registered
// handlers before any data is touched:
//   - the instruction event is known and has handlers
//   - override fields exist on the TradeLeg shape and their values fit the
//     field kind
//   - typology overrides name a typology a handler supports
//   - transformation rules compile against the ExternalRecord shape and
//     leave the group key fields alone
//
// ERROR HANDLING:
//   - Problems are collected, not returned one by one
//   - Errors make a config unusable; warnings point at settings that will
//     silently do nothing
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/converter"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Typologies are the hedge instrument types checked for handler coverage.
var Typologies = []model.Typology{model.TypologyFXSpot, model.TypologyFXSwap, model.TypologyNDF}

// =============================================================================
// VALIDATION ERROR STRUCTURE
// =============================================================================

// ValidationError is one problem found in an event config.
type ValidationError struct {
	Severity string

	// Event is the configured instruction event.
	Event string

	// Source is the config file path.
	Source string

	// Field is the record field concerned, if any.
	Field string

	// Value is the offending value, if any.
	Value string

	// Rule names the check, e.g. "override_field".
	Rule string

	Message string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Severity), e.Event)
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ", field '%s'", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	return b.String()
}

// ValidationResult is the outcome of validating a set of configs.
type ValidationResult struct {
	IsValid          bool
	Errors           []*ValidationError
	ErrorCount       int
	WarningCount     int
	ConfigsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions control a Validator.
type ValidationOptions struct {
	// TreatWarningsAsErrors makes any warning invalidate the result.
	TreatWarningsAsErrors bool
}

// Validator checks event configs.
type Validator struct {
	engine   *mapper.Engine
	registry *strategy.Registry
	options  ValidationOptions
}

// NewValidator returns a validator with default options.
func NewValidator(engine *mapper.Engine, registry *strategy.Registry) *Validator {
	return NewValidatorWithOptions(engine, registry, ValidationOptions{})
}

func NewValidatorWithOptions(engine *mapper.Engine, registry *strategy.Registry, options ValidationOptions) *Validator {
	if engine == nil {
		engine = mapper.Default()
	}
	return &Validator{engine: engine, registry: registry, options: options}
}

// ValidateAll validates every config.
func (v *Validator) ValidateAll(configs config.EventConfigs) *ValidationResult {
	result := &ValidationResult{IsValid: true, Errors: []*ValidationError{}}

	for _, cfg := range configs {
		result.ConfigsValidated++
		for _, e := range v.ValidateEventConfig(cfg) {
			result.Errors = append(result.Errors, e)
			if e.Severity == SeverityWarning {
				result.WarningCount++
				if v.options.TreatWarningsAsErrors {
					result.IsValid = false
				}
			} else {
				result.ErrorCount++
				result.IsValid = false
			}
		}
	}
	return result
}

// ValidateEventConfig returns the problems of one config.
func (v *Validator) ValidateEventConfig(cfg *config.EventConfig) []*ValidationError {
	var errs []*ValidationError
	report := func(severity, rule, field, value, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Severity: severity,
			Event:    cfg.InstructionEvent,
			Source:   cfg.Path,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	event, err := model.ParseEvent(cfg.InstructionEvent)
	if err != nil {
		report(SeverityError, "instruction_event", "", cfg.InstructionEvent, "%v", err)
	} else if v.registry != nil {
		v.checkHandlers(event, cfg, report)
	}

	v.checkOverrides("overrides.default", cfg.Overrides.Default, report)
	for _, typology := range sortedKeys(cfg.Overrides.ByTypology) {
		v.checkOverrides("overrides.by_typology."+typology, cfg.Overrides.ByTypology[typology], report)
	}

	v.checkRules(cfg.TransformationRules, report)

	return errs
}

type reporter func(severity, rule, field, value, format string, args ...any)

func (v *Validator) checkHandlers(event model.Event, cfg *config.EventConfig, report reporter) {
	covered := false
	for _, t := range Typologies {
		if v.registry.Has(event, t) {
			covered = true
			break
		}
	}
	if !covered {
		report(SeverityWarning, "handlers", "", "", "no transformation strategy is registered for instruction event %s", event)
	}

	for _, typology := range sortedKeys(cfg.Overrides.ByTypology) {
		if !v.registry.Has(event, model.Typology(typology)) {
			report(SeverityWarning, "override_typology", "", typology,
				"no transformation strategy found for instruction event: %s and typology: %s", event, typology)
		}
	}
}

func (v *Validator) checkOverrides(rule string, overrides map[string]any, report reporter) {
	table, err := v.engine.Table(model.TradeLegShape)
	if err != nil {
		report(SeverityError, rule, "", "", "%v", err)
		return
	}

	for _, name := range sortedKeys(overrides) {
		value := overrides[name]
		field, ok := table.Field(name)
		if !ok {
			report(SeverityWarning, rule, name, "",
				"field not found on %s, the override will be skipped", table.Shape().Name())
			continue
		}
		if _, ok := accessor.Coerce(field.Kind(), value); !ok {
			report(SeverityError, rule, name, fmt.Sprint(value),
				"value cannot be used as %s", field.Kind())
		}
	}
}

func (v *Validator) checkRules(rules []config.TransformationRule, report reporter) {
	table, err := v.engine.Table(model.ExternalRecordShape)
	if err != nil {
		report(SeverityError, "transformation_rule", "", "", "%v", err)
		return
	}

	for i, rule := range rules {
		if !table.Has(rule.Field) {
			report(SeverityError, "transformation_rule", rule.Field, "",
				"rule %d: field not found on %s", i+1, table.Shape().Name())
			continue
		}
		if model.IsGroupKeyField(rule.Field) {
			report(SeverityError, "transformation_rule", rule.Field, "",
				"rule %d: field carries the group key and cannot be transformed", i+1)
			continue
		}
		for _, action := range rule.Actions {
			switch {
			case !converter.KnownAction(action.Type):
				report(SeverityError, "transformation_rule", rule.Field, action.Type,
					"rule %d: unknown transformation type", i+1)
			case action.Type == "regex_replace" && action.Find != "":
				if _, err := regexp.Compile(action.Find); err != nil {
					report(SeverityError, "transformation_rule", rule.Field, action.Find,
						"rule %d: invalid regex pattern: %v", i+1, err)
				}
			case action.Type == "if_empty_use_field" && !table.Has(action.Value):
				report(SeverityError, "transformation_rule", rule.Field, action.Value,
					"rule %d: fallback field not found on %s", i+1, table.Shape().Name())
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// FormatErrors renders errors as a numbered list.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d problem(s):\n\n", len(errors))
	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}
	return builder.String()
}
