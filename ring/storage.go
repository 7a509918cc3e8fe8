package ring

import (
	"fmt"
	"sync/atomic"
)

// storageTags hands every Storage a distinct tag so a Reader can be matched
// to the storage that created it. Zero is never issued.
var storageTags atomic.Uint64

// Storage is a ring buffer of T read by any number of Readers. Each Reader
// sees the values written since its previous Read, in write order.
type Storage[T any] struct {
	buf      []T
	capacity int
	writeIdx int    // Slot the next write goes to.
	written  uint64 // Total writes modulo mod.
	mod      uint64
	nextID   uint32
	tag      uint64
	opts     options
}

// New creates a storage holding up to capacity values.
func New[T any](capacity int, opts ...Option) (*Storage[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	s := &Storage[T]{
		buf:      make([]T, 0, capacity),
		capacity: capacity,
		nextID:   1,
		tag:      storageTags.Add(1),
		opts:     options{wrapFactor: DefaultWrapFactor},
	}

	for _, opt := range opts {
		opt.apply(&s.opts)
	}

	if s.opts.rep == nil {
		s.opts.rep = reporter{}
	}

	s.mod = uint64(capacity) * s.opts.wrapFactor
	return s, nil
}

// Cap returns the number of values the storage can hold.
func (s *Storage[T]) Cap() int {
	return s.capacity
}

// Len returns the number of slots filled so far. It stops growing once it
// reaches Cap.
func (s *Storage[T]) Len() int {
	return len(s.buf)
}

// Written returns the write counter. It wraps to zero every Cap times the
// wrap factor writes.
func (s *Storage[T]) Written() uint64 {
	return s.written
}

// Write writes items in order. A batch larger than the capacity is rejected
// with ErrTooLargeWrite and nothing from it is written.
func (s *Storage[T]) Write(items ...T) error {
	if len(items) == 0 {
		return nil
	}

	if len(items) > s.capacity {
		s.opts.rep.Warn(fmt.Sprintf("ring write of %d items rejected (capacity %d)", len(items), s.capacity))
		return fmt.Errorf("%w: %d > %d", ErrTooLargeWrite, len(items), s.capacity)
	}

	for _, item := range items {
		s.WriteOne(item)
	}
	return nil
}

// WriteOne writes a single value, overwriting the oldest one once the
// storage is full.
func (s *Storage[T]) WriteOne(item T) {
	if len(s.buf) < s.capacity {
		s.buf = append(s.buf, item)
	} else {
		s.buf[s.writeIdx] = item
	}

	s.writeIdx++
	if s.writeIdx == s.capacity {
		s.writeIdx = 0
	}

	s.written++
	if s.written == s.mod {
		s.written = 0
	}
}

// NewReader returns a Reader positioned at the current write position. Its
// first Read only sees values written after this call.
func (s *Storage[T]) NewReader() Reader[T] {
	r := Reader[T]{
		tag:     s.tag,
		id:      s.nextID,
		readIdx: s.writeIdx,
		seen:    s.written,
	}
	s.nextID++
	return r
}

// Read returns the values written since r last read, oldest first, and moves
// r up to the current write position.
//
// When r fell more than Cap writes behind, the returned slice is the whole
// buffer, oldest first, and the error is a *LostDataError carrying the same
// slice and the number of values r never saw.
func (s *Storage[T]) Read(r *Reader[T]) ([]T, error) {
	return s.ReadAppend(nil, r)
}

// ReadAppend is like Read but appends the values to dst and returns the
// extended slice.
func (s *Storage[T]) ReadAppend(dst []T, r *Reader[T]) ([]T, error) {
	if r == nil || r.tag != s.tag {
		return dst, ErrInvalidReader
	}

	unread := s.unread(r.seen)
	start := r.readIdx

	// The reader is moved up before anything is returned so the same gap
	// is never reported twice.
	r.readIdx = s.writeIdx
	r.seen = s.written

	if unread > uint64(s.capacity) {
		lost := unread - uint64(s.capacity)
		n := len(dst)
		dst = append(dst, s.buf[s.writeIdx:]...)
		dst = append(dst, s.buf[:s.writeIdx]...)

		s.opts.rep.Alert(lost)
		return dst, &LostDataError[T]{
			Salvage: dst[n:len(dst):len(dst)],
			Lost:    int(lost),
		}
	}

	if unread == 0 {
		return dst, nil
	}

	// start == writeIdx with unread == Cap means exactly one lap: the whole
	// buffer, starting at start.
	if start < s.writeIdx {
		return append(dst, s.buf[start:s.writeIdx]...), nil
	}
	dst = append(dst, s.buf[start:]...)
	return append(dst, s.buf[:s.writeIdx]...), nil
}

// unread returns how many writes happened since the counter read seen.
func (s *Storage[T]) unread(seen uint64) uint64 {
	return (s.written + s.mod - seen) % s.mod
}
