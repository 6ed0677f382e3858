package accessor

// Kind is the value type of a field. Every value stored through an accessor
// is held in the canonical Go type of its kind:
//
//	KindString   string
//	KindDecimal  decimal.Decimal
//	KindDate     time.Time (midnight, date part only)
//	KindDateTime time.Time
//	KindInt      int64
//	KindBool     bool
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindDecimal
	KindDate
	KindDateTime
	KindInt
	KindBool
)

var kindNames = map[Kind]string{
	KindInvalid:  "invalid",
	KindString:   "string",
	KindDecimal:  "decimal",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindInt:      "int",
	KindBool:     "bool",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}
