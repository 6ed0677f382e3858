package oncemap

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuildsOncePerKeyUnderContention(t *testing.T) {
	var m Map[string, *int]
	var builds atomic.Int32

	const callers = 64
	results := make([]*int, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := m.Load("shape", func(string) (*int, error) {
				builds.Add(1)
				n := 42
				return &n, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, m.Len())
}

func TestLoadErrorIsSticky(t *testing.T) {
	var m Map[int, string]
	boom := errors.New("boom")
	calls := 0

	build := func(int) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok", nil
	}

	_, err := m.Load(1, build)
	require.ErrorIs(t, err, boom)
	_, err = m.Load(1, build)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, m.Len())
}

func TestLoadRecoversPanic(t *testing.T) {
	var m Map[string, int]
	_, err := m.Load("bad", func(string) (int, error) { panic("no fields") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields")

	_, again := m.Load("bad", func(string) (int, error) { return 1, nil })
	assert.Equal(t, err, again)
}

func TestRangeVisitsOnlyBuiltKeys(t *testing.T) {
	var m Map[string, int]
	_, _ = m.Load("a", func(string) (int, error) { return 1, nil })
	_, _ = m.Load("b", func(string) (int, error) { return 0, errors.New("nope") })

	seen := map[string]int{}
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]int{"a": 1}, seen)
}
