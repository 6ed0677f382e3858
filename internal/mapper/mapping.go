package mapper

import (
	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/oncemap"
)

// Pair joins a source getter and a target setter for one field name.
type Pair struct {
	Name   string
	Source *accessor.Field
	Target *accessor.Field
}

// Mapping is the set of fields a source shape can copy into a target shape.
// Direction matters: the mapping from A to B and the one from B to A are
// distinct cache entries, even when they pair the same names.
type Mapping struct {
	source       *accessor.Shape
	target       *accessor.Shape
	pairs        map[string]Pair
	names        []string
	incompatible []string
}

// Source returns the shape values are read from.
func (m *Mapping) Source() *accessor.Shape { return m.source }

// Target returns the shape values are written to.
func (m *Mapping) Target() *accessor.Shape { return m.target }

// Len returns the number of paired fields.
func (m *Mapping) Len() int { return len(m.names) }

// Pair looks up the accessor pair for name.
func (m *Mapping) Pair(name string) (Pair, bool) {
	p, ok := m.pairs[name]
	return p, ok
}

// Names returns the paired field names in the target's declaration order.
func (m *Mapping) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Incompatible returns names declared by both shapes with different kinds.
// They are left out of the mapping.
func (m *Mapping) Incompatible() []string {
	out := make([]string, len(m.incompatible))
	copy(out, m.incompatible)
	return out
}

type pairKey struct {
	source *accessor.Shape
	target *accessor.Shape
}

// MappingCache builds each (source, target) mapping once and shares it.
type MappingCache struct {
	tables   *accessor.Cache
	mappings oncemap.Map[pairKey, *Mapping]
}

// NewMappingCache returns a mapping cache drawing tables from tables.
func NewMappingCache(tables *accessor.Cache) *MappingCache {
	return &MappingCache{tables: tables}
}

// Mapping returns the mapping from source to target.
func (c *MappingCache) Mapping(source, target *accessor.Shape) (*Mapping, error) {
	return c.mappings.Load(pairKey{source: source, target: target}, c.build)
}

func (c *MappingCache) build(key pairKey) (*Mapping, error) {
	src, err := c.tables.Table(key.source)
	if err != nil {
		return nil, err
	}
	dst, err := c.tables.Table(key.target)
	if err != nil {
		return nil, err
	}

	m := &Mapping{
		source: key.source,
		target: key.target,
		pairs:  make(map[string]Pair),
	}
	for _, name := range dst.Names() {
		sf, ok := src.Field(name)
		if !ok {
			continue
		}
		tf, _ := dst.Field(name)
		if sf.Kind() != tf.Kind() {
			m.incompatible = append(m.incompatible, name)
			continue
		}
		m.pairs[name] = Pair{Name: name, Source: sf, Target: tf}
		m.names = append(m.names, name)
	}
	return m, nil
}
