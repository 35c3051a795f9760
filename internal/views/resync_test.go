package views

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResyncer struct{ n atomic.Int32 }

func (c *countingResyncer) Resync() { c.n.Add(1) }

func TestSweeper(t *testing.T) {
	_, err := NewSweeper("every tuesday")
	require.Error(t, err)

	s, err := NewSweeper("@every 6h")
	require.NoError(t, err)

	a, b := &countingResyncer{}, &countingResyncer{}
	s.Register("a", a)
	s.Register("b", b)
	s.Sweep()
	assert.Equal(t, int32(1), a.n.Load())
	assert.Equal(t, int32(1), b.n.Load())

	s.Unregister("a")
	s.Sweep()
	assert.Equal(t, int32(1), a.n.Load())
	assert.Equal(t, int32(2), b.n.Load())

	s.Start()
	s.Stop()
}
