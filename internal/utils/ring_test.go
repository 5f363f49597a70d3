package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_PushAndEvict(t *testing.T) {
	r := NewRing[int](3)
	assert.Equal(t, 0, r.Len())
	_, ok := r.Last()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())
	assert.Equal(t, []int{3, 4, 5}, r.Values())
	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, 5, last)
}

func TestRing_Newest(t *testing.T) {
	r := NewRing[string](4)
	r.Push("a")
	r.Push("b")
	r.Push("c")

	assert.Equal(t, []string{"c", "b"}, r.Newest(2))
	assert.Equal(t, []string{"c", "b", "a"}, r.Newest(0))
	assert.Equal(t, []string{"c", "b", "a"}, r.Newest(10))
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := NewRing[float64](0)
	r.Push(1)
	r.Push(2)
	assert.Equal(t, []float64{2}, r.Values())
}
