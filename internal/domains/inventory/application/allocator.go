package application

import "math"

// FirstID is the first identifier handed out by a fresh store.
const FirstID int64 = 1001

// allocator issues ids from one counter shared by parts and products. Ids are
// never reused, even after deletes or failed writes. Ids handed out ahead of a
// create are tracked until that create redeems them.
type allocator struct {
	next      int64
	exhausted bool
	issued    map[int64]struct{}
}

func newAllocator(first int64) *allocator {
	if first <= 0 {
		first = FirstID
	}
	return &allocator{next: first, issued: make(map[int64]struct{})}
}

func (a *allocator) allocate() (int64, error) {
	if a.exhausted {
		return 0, ErrIDsExhausted
	}
	id := a.next
	if id == math.MaxInt64 {
		a.exhausted = true
	} else {
		a.next++
	}
	return id, nil
}

// reserve allocates an id that a later create may carry explicitly.
func (a *allocator) reserve() (int64, error) {
	id, err := a.allocate()
	if err != nil {
		return 0, err
	}
	a.issued[id] = struct{}{}
	return id, nil
}

// redeem consumes a reserved id. Each reservation redeems once.
func (a *allocator) redeem(id int64) bool {
	if _, ok := a.issued[id]; !ok {
		return false
	}
	delete(a.issued, id)
	return true
}

// release hands a redeemed id back to its holder after the create failed to
// persist, so a retry with the same id is accepted.
func (a *allocator) release(id int64) {
	a.issued[id] = struct{}{}
}

// observe moves the counter past an id that entered the store from the backend.
func (a *allocator) observe(id int64) {
	if a.exhausted || id < a.next {
		return
	}
	if id == math.MaxInt64 {
		a.exhausted = true
		return
	}
	a.next = id + 1
}
