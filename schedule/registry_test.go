package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodcost/pricefeed/market"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get(market.SourceManual)
	assert.False(t, ok)

	c := newFakeCollector(nil)
	r.Register(c)

	got, ok := r.Get(market.SourceManual)
	require.True(t, ok)
	assert.Same(t, c, got.(*fakeCollector))

	// Registering the same kind again replaces the previous instance.
	c2 := newFakeCollector(nil)
	r.Register(c2)
	got, _ = r.Get(market.SourceManual)
	assert.Same(t, c2, got.(*fakeCollector))

	assert.Equal(t, []market.SourceKind{market.SourceManual}, r.Kinds())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeCollector(nil))
	assert.NoError(t, r.CloseAll())
}
