package accessor

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Layouts used to parse and render date values.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

var (
	dateLayouts     = []string{DateLayout, "20060102", "02/01/2006", time.RFC3339}
	dateTimeLayouts = []string{time.RFC3339Nano, DateTimeLayout, "2006-01-02 15:04:05", DateLayout}
)

// Coerce converts value into the canonical type of kind. Strings are parsed,
// numbers are widened, and nil becomes the zero value. The second result is
// false when the value cannot represent the kind.
func Coerce(kind Kind, value any) (any, bool) {
	switch kind {
	case KindString:
		return coerceString(value)
	case KindDecimal:
		return coerceDecimal(value)
	case KindDate:
		t, ok := coerceTime(value, dateLayouts)
		if !ok {
			return nil, false
		}
		if t.IsZero() {
			return t, true
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), true
	case KindDateTime:
		return coerceTime(value, dateTimeLayouts)
	case KindInt:
		return coerceInt(value)
	case KindBool:
		return coerceBool(value)
	}
	return nil, false
}

func coerceString(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return nil, false
}

func coerceDecimal(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, true
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, true
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, false
		}
		return d, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	}
	return nil, false
}

func coerceTime(value any, layouts []string) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, true
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, true
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, true
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func coerceInt(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return int64(0), true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != float64(int64(v)) {
			return nil, false
		}
		return int64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return int64(0), true
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

func coerceBool(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return false, true
	case bool:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false, true
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// Format renders a value of the given kind as text. Zero times render as
// the empty string so unset dates do not show up as year one.
func Format(kind Kind, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return v.String()
	case time.Time:
		if v.IsZero() {
			return ""
		}
		if kind == KindDate {
			return v.Format(DateLayout)
		}
		return v.Format(DateTimeLayout)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
