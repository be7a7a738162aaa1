// Package collection provides an ordered, id-keyed container.
//
// A Collection keeps entities in sequence order and guarantees at most one
// entity per id. Upserting an existing id replaces it in place, so an update
// never moves an entity. Lookups that miss report false rather than handing
// back an index the caller could misuse.
//
// Collection is not safe for concurrent use; owners guard it with their own
// lock.
package collection

// Entity is anything with a stable identifier.
type Entity interface {
	EntityID() string
}

// Position selects which end of the sequence a new entity is inserted at.
type Position int

const (
	// Head inserts before every existing entity.
	Head Position = iota
	// Tail inserts after every existing entity.
	Tail
)

// Collection is an ordered sequence of entities keyed by id.
type Collection[T Entity] struct {
	items []T
	index map[string]int
}

// New returns an empty collection.
func New[T Entity]() *Collection[T] {
	return &Collection[T]{index: make(map[string]int)}
}

// Upsert replaces the entity with the same id in place, or inserts it at pos
// when absent. It reports whether an existing entity was replaced.
func (c *Collection[T]) Upsert(e T, pos Position) bool {
	c.init()
	id := e.EntityID()
	if i, ok := c.index[id]; ok {
		c.items[i] = e
		return true
	}
	switch pos {
	case Head:
		c.insertAt(0, e)
	default:
		c.items = append(c.items, e)
		c.index[id] = len(c.items) - 1
	}
	return false
}

// InsertOrdered places e before the first entity x for which less(x, e) is
// false, so a new entity precedes existing ones it ties with. If e's id is
// already present the old entry is removed first. The sequence must already
// be ordered by less.
func (c *Collection[T]) InsertOrdered(e T, less func(a, b T) bool) {
	c.init()
	c.Remove(e.EntityID())
	i := 0
	for i < len(c.items) && less(c.items[i], e) {
		i++
	}
	c.insertAt(i, e)
}

// Find returns the entity with the given id.
func (c *Collection[T]) Find(id string) (T, bool) {
	var zero T
	if c == nil || c.index == nil {
		return zero, false
	}
	i, ok := c.index[id]
	if !ok {
		return zero, false
	}
	return c.items[i], true
}

// Contains reports whether id is present.
func (c *Collection[T]) Contains(id string) bool {
	_, ok := c.Find(id)
	return ok
}

// Update replaces the entity with the given id by fn's result, keeping its
// position. It reports false and does nothing when id is absent. fn must not
// change the id.
func (c *Collection[T]) Update(id string, fn func(T) T) bool {
	if c == nil || c.index == nil {
		return false
	}
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.items[i] = fn(c.items[i])
	return true
}

// Remove deletes the entity with the given id. It reports false, and changes
// nothing, when id is absent.
func (c *Collection[T]) Remove(id string) bool {
	if c == nil || c.index == nil {
		return false
	}
	i, ok := c.index[id]
	if !ok {
		return false
	}
	var zero T
	copy(c.items[i:], c.items[i+1:])
	c.items[len(c.items)-1] = zero
	c.items = c.items[:len(c.items)-1]
	delete(c.index, id)
	c.reindex(i)
	return true
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Items returns a copy of the sequence.
func (c *Collection[T]) Items() []T {
	if c == nil || len(c.items) == 0 {
		return nil
	}
	dup := make([]T, len(c.items))
	copy(dup, c.items)
	return dup
}

// IDs returns the ids in sequence order.
func (c *Collection[T]) IDs() []string {
	if c == nil || len(c.items) == 0 {
		return nil
	}
	ids := make([]string, len(c.items))
	for i, e := range c.items {
		ids[i] = e.EntityID()
	}
	return ids
}

// Clear removes every entity.
func (c *Collection[T]) Clear() {
	c.items = nil
	c.index = make(map[string]int)
}

func (c *Collection[T]) init() {
	if c.index == nil {
		c.index = make(map[string]int)
	}
}

func (c *Collection[T]) insertAt(i int, e T) {
	var zero T
	c.items = append(c.items, zero)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = e
	c.reindex(i)
}

// reindex refreshes index entries from position i to the end.
func (c *Collection[T]) reindex(from int) {
	for i := from; i < len(c.items); i++ {
		c.index[c.items[i].EntityID()] = i
	}
}
