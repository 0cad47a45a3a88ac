package content

import (
	"slices"
	"time"
)

// Collection is an ordered list of items of one variant. Prev and Next of
// a member are its neighbours in the list.
type Collection struct {
	name  string
	items []*Item
}

// NewCollection returns an empty collection.
func NewCollection(name string) *Collection { return &Collection{name: name} }

func (c *Collection) Name() string { return c.name }

// Append adds it at the tail.
func (c *Collection) Append(it *Item) {
	it.coll = c
	it.index = len(c.items)
	c.items = append(c.items, it)
}

func (c *Collection) Len() int { return len(c.items) }

// At returns the item at i, nil when out of range.
func (c *Collection) At(i int) *Item {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

func (c *Collection) Head() *Item { return c.At(0) }
func (c *Collection) Tail() *Item { return c.At(len(c.items) - 1) }

// All returns the items in order.
func (c *Collection) All() []*Item { return slices.Clone(c.items) }

// Reverse returns the items tail first.
func (c *Collection) Reverse() []*Item {
	out := slices.Clone(c.items)
	slices.Reverse(out)
	return out
}

// Chunks splits the items into runs of at most n.
func (c *Collection) Chunks(n int) [][]*Item { return chunk(c.items, n) }

// Ordered returns the items in a page_order: "newest" (default) for most
// recent first, "oldest", or "path" for walk order.
func Ordered(items []*Item, order string) []*Item {
	out := slices.Clone(items)
	switch order {
	case "path":
	case "oldest":
		slices.SortStableFunc(out, func(a, b *Item) int { return a.date.Compare(b.date) })
	default:
		slices.SortStableFunc(out, func(a, b *Item) int { return b.date.Compare(a.date) })
	}
	return out
}

// Newest returns the most recent date among items.
func Newest(items []*Item) time.Time {
	var t time.Time
	for _, it := range items {
		if it.date.After(t) {
			t = it.date
		}
	}
	return t
}

func chunk(items []*Item, n int) [][]*Item {
	if n <= 0 {
		n = len(items)
	}
	var out [][]*Item
	for start := 0; start < len(items); start += n {
		end := min(start+n, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}
