package fetch

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

// ColumnToField converts a snake_case column name to the lowerCamel field
// naming of the record shapes. Names without underscores are returned as is.
//
//	comment_0            -> comment0
//	HEDGE_AMT_ALLOCATION -> hedgeAmtAllocation
func ColumnToField(column string) string {
	if !strings.Contains(column, "_") {
		return column
	}

	var b strings.Builder
	first := true
	for _, part := range strings.Split(column, "_") {
		if part == "" {
			continue
		}
		part = strings.ToLower(part)
		if first {
			b.WriteString(part)
			first = false
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}

// How closely a column name matches a field name. Lower is better.
const (
	matchExact = iota
	matchCamel
	matchFold
)

// resolveColumn finds the field a column feeds: the exact name, then the
// lowerCamel form, then a case-insensitive match.
func resolveColumn(table *accessor.Table, column string) (string, int, bool) {
	column = strings.TrimSpace(column)
	if table.Has(column) {
		return column, matchExact, true
	}
	if name := ColumnToField(column); table.Has(name) {
		return name, matchCamel, true
	}
	for _, name := range table.Names() {
		if strings.EqualFold(name, column) {
			return name, matchFold, true
		}
	}
	return "", 0, false
}

// binding feeds one field from one column.
type binding struct {
	column string
	field  string
}

// columnPlan is the column to field assignment of one fetch.
type columnPlan struct {
	bindings []binding

	// unknown columns match no field.
	unknown []string

	// shadowed columns match a field another column already feeds.
	shadowed []string
}

// planColumns assigns at most one column to each field. The best match
// wins; on equal matches the first column in sorted order wins.
func planColumns(table *accessor.Table, columns []string) columnPlan {
	sorted := append([]string(nil), columns...)
	sort.Strings(sorted)

	type choice struct {
		column string
		rank   int
	}
	chosen := make(map[string]choice)
	var plan columnPlan

	for _, column := range sorted {
		field, rank, ok := resolveColumn(table, column)
		if !ok {
			plan.unknown = append(plan.unknown, column)
			continue
		}
		prev, taken := chosen[field]
		switch {
		case !taken:
			chosen[field] = choice{column: column, rank: rank}
		case rank < prev.rank:
			plan.shadowed = append(plan.shadowed, prev.column)
			chosen[field] = choice{column: column, rank: rank}
		default:
			plan.shadowed = append(plan.shadowed, column)
		}
	}

	for _, column := range sorted {
		field, _, ok := resolveColumn(table, column)
		if ok && chosen[field].column == column {
			plan.bindings = append(plan.bindings, binding{column: column, field: field})
		}
	}
	sort.Strings(plan.shadowed)
	return plan
}

// rowColumns lists every column present in any row.
func rowColumns(rows []Row) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for column := range row {
			if _, ok := seen[column]; !ok {
				seen[column] = struct{}{}
				columns = append(columns, column)
			}
		}
	}
	return columns
}
