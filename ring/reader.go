package ring

import "fmt"

// Reader is a cursor into a Storage. It is created by Storage.NewReader and
// must only be used with that storage. The zero Reader is not valid.
//
// A Reader is not safe for concurrent use.
type Reader[T any] struct {
	tag     uint64
	id      uint32
	readIdx int
	seen    uint64
}

// ID returns the reader's ordinal within its storage, starting at 1.
func (r Reader[T]) ID() uint32 {
	return r.id
}

func (r Reader[T]) String() string {
	return fmt.Sprintf("reader-%d", r.id)
}
