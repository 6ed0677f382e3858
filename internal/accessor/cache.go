package accessor

import (
	"sort"

	"github.com/ginjaninja78/fx-booking-transformer/internal/oncemap"
)

// Cache holds one Table per shape. Tables are built on first use, at most
// once per shape, and then shared by every caller for the life of the
// cache. Build failures are cached as well.
//
// Default returns the process-wide cache. Tests that need a clean slate
// create their own with NewCache.
type Cache struct {
	tables oncemap.Map[*Shape, *Table]
}

var defaultCache = NewCache()

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Default returns the process-wide cache.
func Default() *Cache {
	return defaultCache
}

// Table returns the accessor table for s, building it if needed.
func (c *Cache) Table(s *Shape) (*Table, error) {
	return c.tables.Load(s, buildTable)
}

// Get reads a field by name from rec.
func (c *Cache) Get(rec Record, name string) (any, error) {
	t, err := c.Table(rec.Shape())
	if err != nil {
		return nil, err
	}
	return t.Get(rec, name)
}

// Set writes a field by name on rec.
func (c *Cache) Set(rec Record, name string, value any) error {
	t, err := c.Table(rec.Shape())
	if err != nil {
		return err
	}
	return t.Set(rec, name, value)
}

// Shapes returns the shapes with a built table, sorted by name.
func (c *Cache) Shapes() []*Shape {
	var shapes []*Shape
	c.tables.Range(func(s *Shape, _ *Table) bool {
		shapes = append(shapes, s)
		return true
	})
	sort.Slice(shapes, func(i, j int) bool { return shapes[i].Name() < shapes[j].Name() })
	return shapes
}
