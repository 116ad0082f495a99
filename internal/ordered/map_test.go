package ordered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_SetKeepsPosition(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)
	m.Set("a", 10)

	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestMap_Delete(t *testing.T) {
	m := New[string]()
	m.Set("x", "1")
	m.Set("y", "2")
	m.Set("z", "3")

	assert.True(t, m.Delete("y"))
	assert.False(t, m.Delete("y"))
	assert.Equal(t, []string{"x", "z"}, m.Keys())

	// index must be rebuilt for trailing keys
	v, ok := m.Get("z")
	require.True(t, ok)
	assert.Equal(t, "3", v)

	m.Set("y", "4")
	assert.Equal(t, []string{"x", "z", "y"}, m.Keys())
}

func TestMap_Merge(t *testing.T) {
	left := New[string]()
	left.Set("one", "L1")
	left.Set("two", "L2")
	right := New[string]()
	right.Set("three", "R3")
	right.Set("one", "R1")

	left.Merge(right)
	assert.Equal(t, []string{"one", "two", "three"}, left.Keys())
	v, _ := left.Get("one")
	assert.Equal(t, "R1", v)
}

func TestMap_NilAndZero(t *testing.T) {
	var nilMap *Map[int]
	assert.Equal(t, 0, nilMap.Len())
	assert.False(t, nilMap.Has("a"))
	assert.Nil(t, nilMap.Keys())

	var zero Map[int]
	zero.Set("a", 1)
	assert.Equal(t, 1, zero.Len())
}

func TestMap_CloneIsIndependent(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	c := m.Clone()
	c.Set("b", 2)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, c.Len())
}

func TestMap_RangeStops(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	var seen []string
	m.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return false
	})
	assert.Equal(t, []string{"a"}, seen)
}
