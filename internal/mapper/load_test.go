package mapper

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

// TestConcurrentMixedOperations drives one shared engine from many
// goroutines. Every operation succeeds except the ones aimed at a field
// name no shape declares.
func TestConcurrentMixedOperations(t *testing.T) {
	callers, opsPerCaller := 1000, 2000
	if testing.Short() {
		callers, opsPerCaller = 50, 200
	}

	e := New()
	include := Fields("contract", "comment0", "amount", "onlyTarget")

	var ok, unknown, unexpected atomic.Int64
	var g errgroup.Group
	for c := range callers {
		g.Go(func() error {
			src := sample()
			for i := range opsPerCaller {
				var err error
				switch i % 10 {
				case 0, 1, 2:
					err = e.Set(src, "comment0", fmt.Sprintf("c%d-%d", c, i))
				case 3:
					err = e.Set(src, "amount", int64(i))
				case 4, 5, 6:
					_, err = e.Get(src, "contract")
				case 7, 8:
					_, err = e.Copy(src, targetShape, include)
				case 9:
					_, err = e.Get(src, "noSuchField")
				}

				var unknownErr *accessor.UnknownFieldError
				switch {
				case err == nil:
					ok.Add(1)
				case errors.As(err, &unknownErr):
					unknown.Add(1)
				default:
					unexpected.Add(1)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	total := int64(callers * opsPerCaller)
	assert.Zero(t, unexpected.Load())
	assert.Equal(t, total/10, unknown.Load())
	assert.Equal(t, total-unknown.Load(), ok.Load())
}
