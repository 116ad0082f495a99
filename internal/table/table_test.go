package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AddRejectsDuplicates(t *testing.T) {
	tb := New()
	require.True(t, tb.Add(Record{Name: "web", ID: 1}))
	assert.False(t, tb.Add(Record{Name: "web", ID: 2}))
	rec, ok := tb.Get("web")
	require.True(t, ok)
	assert.Equal(t, 1, rec.ID)
}

func TestTable_OrderAndRemove(t *testing.T) {
	tb := New()
	tb.Add(Record{Name: "a", ID: 1})
	tb.Add(Record{Name: "b", ID: 2})
	tb.Add(Record{Name: "c", ID: 3})
	assert.Equal(t, []string{"a", "b", "c"}, tb.Names())

	assert.True(t, tb.Remove("b"))
	assert.False(t, tb.Remove("b"))
	assert.False(t, tb.Has("b"))

	tb.Add(Record{Name: "b", ID: 4})
	assert.Equal(t, []string{"a", "c", "b"}, tb.Names())
	recs := tb.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, 4, recs[2].ID)
}

func TestTable_Empty(t *testing.T) {
	tb := New()
	assert.Equal(t, 0, tb.Len())
	assert.Empty(t, tb.Records())
	assert.Empty(t, tb.Names())
}
