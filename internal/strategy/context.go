package strategy

import (
	"time"

	"github.com/ginjaninja78/fx-booking-transformer/internal/grouping"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// Params are the request-level values handlers may need besides the records.
type Params struct {
	BusinessDate  time.Time
	InputCurrency string
	USDCurrency   string
	Portfolio     string
}

// Context is what a handler receives for one group. It is immutable after
// NewContext returns and may be shared between goroutines.
type Context struct {
	event     model.Event
	group     *grouping.GroupedRecord
	overrides map[string]any
	params    Params
	batch     *grouping.Batch
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithOverrides sets the field overrides applied to generated trades.
// The map is copied.
func WithOverrides(overrides map[string]any) ContextOption {
	return func(c *Context) {
		c.overrides = make(map[string]any, len(overrides))
		for k, v := range overrides {
			c.overrides[k] = v
		}
	}
}

// WithParams sets the request parameters.
func WithParams(p Params) ContextOption {
	return func(c *Context) { c.params = p }
}

// WithBatch gives the handler read access to every group of the batch.
func WithBatch(b *grouping.Batch) ContextOption {
	return func(c *Context) { c.batch = b }
}

// NewContext builds the context for one group.
func NewContext(event model.Event, group *grouping.GroupedRecord, opts ...ContextOption) *Context {
	c := &Context{event: event, group: group}
	for _, opt := range opts {
		opt(c)
	}
	if c.batch == nil {
		c.batch = grouping.NewBatch([]*grouping.GroupedRecord{group})
	}
	return c
}

func (c *Context) Event() model.Event             { return c.event }
func (c *Context) Group() *grouping.GroupedRecord { return c.group }
func (c *Context) Typology() model.Typology       { return c.group.Typology() }
func (c *Context) Key() model.GroupKey            { return c.group.Key() }
func (c *Context) Params() Params                 { return c.params }
func (c *Context) Batch() *grouping.Batch         { return c.batch }
func (c *Context) HasOverrides() bool             { return len(c.overrides) > 0 }

// Overrides returns a copy of the override map.
func (c *Context) Overrides() map[string]any {
	out := make(map[string]any, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}
