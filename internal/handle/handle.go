// Package handle issues opaque, address-sized tokens for Go values that must be owned by
// a foreign caller.
//
// A Table plays the role runtime/cgo.Handle plays for cgo callbacks, with two differences:
// ids are never reused, so a released handle is reported as stale instead of aliasing a new
// value, and Release closes the value it removes.
//
// The table itself is safe for concurrent use. The values it holds are not guarded: Borrow
// and BorrowMut hand out the same pointer, and callers must not use one handle from two
// goroutines at once.
package handle

import (
	"errors"
	"sync"
)

var (
	ErrNullHandle  = errors.New("handle: null handle")
	ErrStaleHandle = errors.New("handle: unknown or released handle")
)

// Handle is an opaque token. The zero value is the null handle.
type Handle uintptr

// Null is the sentinel handle that addresses nothing.
const Null Handle = 0

// IsNull reports whether h is the null sentinel.
func (h Handle) IsNull() bool {
	return h == Null
}

// Closer is implemented by values a Table can release.
type Closer interface {
	Close() error
}

type Table[T Closer] struct {
	mu     sync.Mutex
	next   Handle
	values map[Handle]T
}

func NewTable[T Closer]() *Table[T] {
	return &Table[T]{values: make(map[Handle]T)}
}

// Bind takes ownership of v and returns a new non-null handle for it.
func (t *Table[T]) Bind(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.values[h] = v
	return h
}

// Borrow returns the value bound to h for reading.
func (t *Table[T]) Borrow(h Handle) (T, error) {
	return t.lookup(h)
}

// BorrowMut returns the value bound to h for mutation. Exclusivity is the caller's
// responsibility; nothing stops a concurrent Borrow of the same handle.
func (t *Table[T]) BorrowMut(h Handle) (T, error) {
	return t.lookup(h)
}

func (t *Table[T]) lookup(h Handle) (T, error) {
	var zero T
	if h.IsNull() {
		return zero, ErrNullHandle
	}
	t.mu.Lock()
	v, ok := t.values[h]
	t.mu.Unlock()
	if !ok {
		return zero, ErrStaleHandle
	}
	return v, nil
}

// Release unbinds h and closes its value. h must not be used afterwards.
func (t *Table[T]) Release(h Handle) error {
	if h.IsNull() {
		return ErrNullHandle
	}
	t.mu.Lock()
	v, ok := t.values[h]
	delete(t.values, h)
	t.mu.Unlock()
	if !ok {
		return ErrStaleHandle
	}
	return v.Close()
}

// Len reports how many handles are currently bound.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.values)
}
