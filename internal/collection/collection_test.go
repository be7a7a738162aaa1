package collection

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id   string
	rank int
}

func (i item) EntityID() string { return i.id }

func byRankDesc(a, b item) bool { return a.rank > b.rank }

func TestUpsert_InsertsAtRequestedEnd(t *testing.T) {
	c := New[item]()

	assert.False(t, c.Upsert(item{id: "a"}, Tail))
	assert.False(t, c.Upsert(item{id: "b"}, Head))
	assert.False(t, c.Upsert(item{id: "c"}, Tail))

	if diff := deep.Equal(c.IDs(), []string{"b", "a", "c"}); diff != nil {
		t.Fatal(diff)
	}
}

func TestUpsert_ReplacesInPlace(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a"}, Tail)
	c.Upsert(item{id: "b"}, Tail)
	c.Upsert(item{id: "c"}, Tail)

	replaced := c.Upsert(item{id: "b", rank: 7}, Head)
	require.True(t, replaced)

	assert.Equal(t, []string{"a", "b", "c"}, c.IDs(), "position must not change on replace")
	got, ok := c.Find("b")
	require.True(t, ok)
	assert.Equal(t, 7, got.rank)
	assert.Equal(t, 3, c.Len())
}

func TestFind_Missing(t *testing.T) {
	c := New[item]()
	_, ok := c.Find("nope")
	assert.False(t, ok)

	var nilColl *Collection[item]
	_, ok = nilColl.Find("nope")
	assert.False(t, ok)
	assert.Equal(t, 0, nilColl.Len())
}

func TestRemove(t *testing.T) {
	c := New[item]()
	for _, id := range []string{"a", "b", "c", "d"} {
		c.Upsert(item{id: id}, Tail)
	}

	require.True(t, c.Remove("b"))
	assert.Equal(t, []string{"a", "c", "d"}, c.IDs())

	assert.False(t, c.Remove("b"), "second remove is a no-op")
	assert.Equal(t, []string{"a", "c", "d"}, c.IDs())

	// Index stays coherent after the shift.
	got, ok := c.Find("d")
	require.True(t, ok)
	assert.Equal(t, "d", got.id)
	require.True(t, c.Remove("d"))
	assert.Equal(t, []string{"a", "c"}, c.IDs())
}

func TestInsertOrdered_KeepsOrderAndTiesGoFirst(t *testing.T) {
	c := New[item]()
	c.InsertOrdered(item{id: "a", rank: 1}, byRankDesc)
	c.InsertOrdered(item{id: "b", rank: 3}, byRankDesc)
	c.InsertOrdered(item{id: "c", rank: 2}, byRankDesc)
	c.InsertOrdered(item{id: "d", rank: 2}, byRankDesc)

	assert.Equal(t, []string{"b", "d", "c", "a"}, c.IDs())

	// Re-inserting an existing id moves it to its new ordered position.
	c.InsertOrdered(item{id: "a", rank: 5}, byRankDesc)
	assert.Equal(t, []string{"a", "b", "d", "c"}, c.IDs())
	assert.Equal(t, 4, c.Len())
}

func TestUpdate(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a", rank: 1}, Tail)

	ok := c.Update("a", func(i item) item {
		i.rank++
		return i
	})
	require.True(t, ok)
	got, _ := c.Find("a")
	assert.Equal(t, 2, got.rank)

	assert.False(t, c.Update("missing", func(i item) item { return i }))
}

func TestItems_ReturnsCopy(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a", rank: 1}, Tail)

	items := c.Items()
	items[0].rank = 99

	got, _ := c.Find("a")
	assert.Equal(t, 1, got.rank)
}

func TestClear(t *testing.T) {
	c := New[item]()
	c.Upsert(item{id: "a"}, Tail)
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Items())
	c.Upsert(item{id: "a"}, Tail)
	assert.True(t, c.Contains("a"))
}

func TestZeroValueIsUsable(t *testing.T) {
	var c Collection[item]
	c.Upsert(item{id: "a"}, Head)
	assert.True(t, c.Contains("a"))
}
