package application

import "slices"

type record interface {
	RecordID() int64
	RecordName() string
}

// collection keeps records sorted by id for lookups alongside the order they
// were added in, which listing and name filtering follow.
type collection[T record] struct {
	sorted []T
	order  []int64
}

// search runs a binary search over the sorted records. When id is absent the
// returned position is where it would be inserted.
func (c *collection[T]) search(id int64) (int, bool) {
	lo, hi := 0, len(c.sorted)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch current := c.sorted[mid].RecordID(); {
		case current < id:
			lo = mid + 1
		case current > id:
			hi = mid - 1
		default:
			return mid, true
		}
	}
	return lo, false
}

func (c *collection[T]) get(id int64) (T, bool) {
	if idx, ok := c.search(id); ok {
		return c.sorted[idx], true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) contains(id int64) bool {
	_, ok := c.search(id)
	return ok
}

func (c *collection[T]) insert(rec T) bool {
	idx, ok := c.search(rec.RecordID())
	if ok {
		return false
	}
	c.sorted = slices.Insert(c.sorted, idx, rec)
	c.order = append(c.order, rec.RecordID())
	return true
}

func (c *collection[T]) replace(rec T) bool {
	idx, ok := c.search(rec.RecordID())
	if !ok {
		return false
	}
	c.sorted[idx] = rec
	return true
}

func (c *collection[T]) remove(id int64) bool {
	idx, ok := c.search(id)
	if !ok {
		return false
	}
	c.sorted = slices.Delete(c.sorted, idx, idx+1)
	if pos := slices.Index(c.order, id); pos >= 0 {
		c.order = slices.Delete(c.order, pos, pos+1)
	}
	return true
}

// at returns the record at position i of insertion order.
func (c *collection[T]) at(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(c.order) {
		return zero, false
	}
	return c.get(c.order[i])
}

func (c *collection[T]) len() int { return len(c.order) }

// filter returns records whose name satisfies match, in insertion order.
func (c *collection[T]) filter(match func(name string) bool) []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		rec, ok := c.get(id)
		if ok && match(rec.RecordName()) {
			out = append(out, rec)
		}
	}
	return out
}

func (c *collection[T]) reset(records []T) {
	c.sorted = slices.Clone(records)
	slices.SortFunc(c.sorted, func(a, b T) int {
		switch {
		case a.RecordID() < b.RecordID():
			return -1
		case a.RecordID() > b.RecordID():
			return 1
		default:
			return 0
		}
	})
	c.order = make([]int64, 0, len(records))
	for _, rec := range records {
		c.order = append(c.order, rec.RecordID())
	}
}
