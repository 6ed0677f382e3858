package mapper

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

// SkippedOverride is an override that could not be applied.
type SkippedOverride struct {
	Field  string
	Value  any
	Reason error
}

// OverrideReport lists what ApplyOverrides did.
type OverrideReport struct {
	Applied []string
	Skipped []SkippedOverride
}

// HasSkipped reports whether any override was skipped.
func (r OverrideReport) HasSkipped() bool {
	return len(r.Skipped) > 0
}

// ApplyOverrides writes each override into target by field name. Keys the
// target's shape does not declare, and values that do not fit the field, are
// skipped and reported. Overrides are applied in key order.
//
// Call it after every other field has been populated: an override always
// has the last word.
func (e *Engine) ApplyOverrides(target accessor.Record, overrides map[string]any) OverrideReport {
	var report OverrideReport
	if len(overrides) == 0 {
		return report
	}

	shape := target.Shape()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table, err := e.tables.Table(shape)
	if err != nil {
		for _, k := range keys {
			report.Skipped = append(report.Skipped, SkippedOverride{Field: k, Value: overrides[k], Reason: err})
		}
		e.logger.WithError(err).WithField("shape", shape.Name()).Warn("skipping overrides: shape unavailable")
		return report
	}

	for _, k := range keys {
		value := overrides[k]
		log := e.logger.WithFields(logrus.Fields{"field": k, "shape": shape.Name()})

		field, ok := table.Field(k)
		if !ok {
			report.Skipped = append(report.Skipped, SkippedOverride{
				Field:  k,
				Value:  value,
				Reason: &accessor.UnknownFieldError{Shape: shape.Name(), Field: k},
			})
			log.Debug("skipping override: field not found")
			continue
		}
		if err := field.Write(target, value); err != nil {
			report.Skipped = append(report.Skipped, SkippedOverride{Field: k, Value: value, Reason: err})
			log.WithError(err).Debug("skipping override: value does not fit field")
			continue
		}
		report.Applied = append(report.Applied, k)
		log.WithField("value", value).Debug("overridden field")
	}
	return report
}
