package schemacache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/jacoelho/yang/pkg/schema"
)

func compileAs(name string, calls *atomic.Int64) CompileFunc {
	return func() (*schema.Model, error) {
		calls.Inc()
		return &schema.Model{Name: name}, nil
	}
}

func TestCacheHitAndMiss(t *testing.T) {
	c := New()
	var calls atomic.Int64

	m1, hit, err := c.Get("module a {}", compileAs("a", &calls))
	require.NoError(t, err)
	assert.False(t, hit)

	m2, hit, err := c.Get("module a {}", compileAs("other", &calls))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, m1, m2)

	m3, _, err := c.Get("module b {}", compileAs("b", &calls))
	require.NoError(t, err)
	assert.Equal(t, "b", m3.Name)

	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, Stats{Entries: 2, Hits: 1, Misses: 2, Compiles: 2}, c.Stats())
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	var calls atomic.Int64
	fail := func() (*schema.Model, error) {
		calls.Inc()
		return nil, boom
	}

	_, _, err := c.Get("bad", fail)
	require.ErrorIs(t, err, boom)
	_, _, err = c.Get("bad", fail)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(2), c.Stats().Failures)
}

func TestCacheDedupesConcurrentCompiles(t *testing.T) {
	c := New()
	var calls atomic.Int64
	release := make(chan struct{})
	compile := func() (*schema.Model, error) {
		calls.Inc()
		<-release
		return &schema.Model{Name: "shared"}, nil
	}

	const goroutines = 16
	models := make([]*schema.Model, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			m, _, err := c.Get("module shared {}", compile)
			if err == nil {
				models[i] = m
			}
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, m := range models {
		require.NotNil(t, m)
		assert.Same(t, models[0], m)
	}
}

func TestCachePurgeAndClose(t *testing.T) {
	c := New()
	var calls atomic.Int64

	_, _, err := c.Get("x", compileAs("x", &calls))
	require.NoError(t, err)
	c.Purge()
	assert.Equal(t, 0, c.Len())

	_, hit, err := c.Get("x", compileAs("x", &calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, c.Len())

	c.Close()
	assert.True(t, c.Closed())
	assert.Equal(t, 0, c.Len())

	for range 2 {
		m, hit, err := c.Get("x", compileAs("x", &calls))
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, "x", m.Name)
	}
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(4), calls.Load())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
