// =============================================================================
// FX Booking Transformer - Transformation Rules
// =============================================================================
//
// Applies the transformation rules of an event config to the external
// records generated by the pipeline. A rule names an ExternalRecord field and
// a list of string actions applied in order:
//
//	transformation_rules:
//	  - field: murexComment
//	    actions:
//	      - type: prepend_string
//	        value: "HEDGE-"
//	      - type: ensure_length
//	        value: "20"
//
// The field is read through the accessor table and rendered as text, the
// actions run on the text, and the result is written back through the same
// field, so it must still be a valid value of the field's kind.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// Actions lists the supported action types.
var Actions = []string{
	"prepend_string",
	"append_string",
	"trim",
	"trim_left",
	"trim_right",
	"uppercase",
	"lowercase",
	"replace",
	"regex_replace",
	"substring",
	"pad_zeros_to_length",
	"pad_spaces_to_length",
	"ensure_length",
	"format_number",
	"remove_leading_zeros",
	"lookup",
	"lookup_with_default",
	"if_empty_use_default",
	"if_empty_use_field",
	"extract_digits",
	"normalize_whitespace",
}

// KnownAction reports whether typ is a supported action type.
func KnownAction(typ string) bool { return slices.Contains(Actions, typ) }

var (
	digitsPattern     = regexp.MustCompile(`\d+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies a compiled rule set to external records.
type Transformer struct {
	table *accessor.Table
	rules []compiledRule
}

type compiledRule struct {
	field   *accessor.Field
	actions []compiledAction
}

type compiledAction struct {
	config.TransformationAction
	re *regexp.Regexp
}

// NewTransformer checks rules against the ExternalRecord shape and compiles
// them. Unknown fields, group key fields, unknown action types and bad
// patterns are errors.
func NewTransformer(engine *mapper.Engine, rules []config.TransformationRule) (*Transformer, error) {
	table, err := engine.Table(model.ExternalRecordShape)
	if err != nil {
		return nil, err
	}

	t := &Transformer{table: table}
	for i, rule := range rules {
		field, ok := table.Field(rule.Field)
		if !ok {
			return nil, fmt.Errorf("rule %d: %w", i+1, &accessor.UnknownFieldError{Shape: table.Shape().Name(), Field: rule.Field})
		}
		if model.IsGroupKeyField(rule.Field) {
			return nil, fmt.Errorf("rule %d (%s): field carries the group key and cannot be transformed", i+1, rule.Field)
		}

		compiled := compiledRule{field: field}
		for _, action := range rule.Actions {
			if !KnownAction(action.Type) {
				return nil, fmt.Errorf("rule %d (%s): unknown transformation type: %s", i+1, rule.Field, action.Type)
			}
			ca := compiledAction{TransformationAction: action}
			if action.Type == "regex_replace" && action.Find != "" {
				if ca.re, err = regexp.Compile(action.Find); err != nil {
					return nil, fmt.Errorf("rule %d (%s): invalid regex pattern: %w", i+1, rule.Field, err)
				}
			}
			if action.Type == "if_empty_use_field" && !table.Has(action.Value) {
				return nil, fmt.Errorf("rule %d (%s): %w", i+1, rule.Field, &accessor.UnknownFieldError{Shape: table.Shape().Name(), Field: action.Value})
			}
			compiled.actions = append(compiled.actions, ca)
		}
		t.rules = append(t.rules, compiled)
	}
	return t, nil
}

// Len returns the number of rules.
func (t *Transformer) Len() int { return len(t.rules) }

// Apply runs every rule on rec, in rule order.
func (t *Transformer) Apply(rec *model.ExternalRecord) error {
	lookup := func(name string) string {
		f, ok := t.table.Field(name)
		if !ok {
			return ""
		}
		return accessor.Format(f.Kind(), f.Read(rec))
	}

	for _, rule := range t.rules {
		value := accessor.Format(rule.field.Kind(), rule.field.Read(rec))
		for _, action := range rule.actions {
			var err error
			value, err = applyAction(value, action, lookup)
			if err != nil {
				return fmt.Errorf("field %s: transformation '%s' failed: %w", rule.field.Name(), action.Type, err)
			}
		}
		if err := rule.field.Write(rec, value); err != nil {
			return fmt.Errorf("field %s: %w", rule.field.Name(), err)
		}
	}
	return nil
}

// ApplyAll runs the rules on every record and stops at the first failure.
func (t *Transformer) ApplyAll(records []*model.ExternalRecord) error {
	for _, rec := range records {
		if err := t.Apply(rec); err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// ApplyTransformation applies a single action to value. lookup returns the
// text of another field of the same record and may be nil.
func ApplyTransformation(value string, action config.TransformationAction, lookup func(string) string) (string, error) {
	ca := compiledAction{TransformationAction: action}
	if action.Type == "regex_replace" && action.Find != "" {
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		ca.re = re
	}
	if lookup == nil {
		lookup = func(string) string { return "" }
	}
	return applyAction(value, ca, lookup)
}

func applyAction(value string, action compiledAction, lookup func(string) string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if action.re == nil {
			return value, nil
		}
		return action.re.ReplaceAllString(value, action.Value), nil

	case "substring":
		// Value is "start,end", zero-based and end-exclusive.
		parts := strings.Split(action.Value, ",")
		if len(parts) != 2 {
			return value, nil
		}
		start, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
		start = max(start, 0)
		end = min(end, len(value))
		if start >= end {
			return "", nil
		}
		return value[start:end], nil

	// =========================================================================
	// LENGTH AND NUMBER FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value, nil
		}
		return PadLeft(value, n, '0'), nil

	case "pad_spaces_to_length":
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value, nil
		}
		return PadRight(value, n, ' '), nil

	case "ensure_length":
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value, nil
		}
		if len(value) > n {
			return value[:n], nil
		}
		return PadLeft(value, n, '0'), nil

	case "format_number":
		places, err := strconv.Atoi(action.Value)
		if err != nil || places < 0 {
			return value, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return value, nil
		}
		return d.StringFixed(int32(places)), nil

	case "remove_leading_zeros":
		result := strings.TrimLeft(value, "0")
		if result == "" {
			return "0", nil
		}
		return result, nil

	// =========================================================================
	// LOOKUPS AND DEFAULTS
	// =========================================================================

	case "lookup":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return action.Value, nil

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			return lookup(action.Value), nil
		}
		return value, nil

	// =========================================================================
	// CLEANUP
	// =========================================================================

	case "extract_digits":
		return strings.Join(digitsPattern.FindAllString(value, -1), ""), nil

	case "normalize_whitespace":
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(value, " ")), nil
	}

	return "", fmt.Errorf("unknown transformation type: %s", action.Type)
}

// PadLeft pads s on the left with padChar up to length runes.
func PadLeft(s string, length int, padChar rune) string {
	n := length - len([]rune(s))
	if n <= 0 {
		return s
	}
	return strings.Repeat(string(padChar), n) + s
}

// PadRight pads s on the right with padChar up to length runes.
func PadRight(s string, length int, padChar rune) string {
	n := length - len([]rune(s))
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(string(padChar), n)
}
