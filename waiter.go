package ringcast

import (
	"context"
	"sync"

	"code.cloudfoundry.org/go-ringcast/ring"
)

// Waiter will use a channel signal to alert readers to when data is
// available.
type Waiter[T any] struct {
	Source[T]
	mu  sync.Mutex
	c   chan struct{} // Closed and replaced on every write.
	ctx context.Context
}

type waiterOptions struct {
	ctx context.Context
}

// WaiterConfigOption can be used to setup the waiter.
type WaiterConfigOption func(*waiterOptions)

// WithWaiterContext sets the context to cancel any retrieval (Next()). It
// will not change any results for adding data (Write()). Default is
// context.Background().
func WithWaiterContext(ctx context.Context) WaiterConfigOption {
	return WaiterConfigOption(func(o *waiterOptions) {
		o.ctx = ctx
	})
}

// NewWaiter returns a new Waiter that wraps the given source.
func NewWaiter[T any](s Source[T], opts ...WaiterConfigOption) *Waiter[T] {
	o := waiterOptions{
		ctx: context.Background(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &Waiter[T]{
		Source: s,
		c:      make(chan struct{}),
		ctx:    o.ctx,
	}
}

// Write invokes the wrapped source's Write with the given items and wakes
// up every reader blocked in Next.
func (w *Waiter[T]) Write(items ...T) error {
	if err := w.Source.Write(items...); err != nil {
		return err
	}
	if len(items) > 0 {
		w.broadcast()
	}
	return nil
}

// broadcast wakes every reader waiting on the current signal channel.
func (w *Waiter[T]) broadcast() {
	w.mu.Lock()
	defer w.mu.Unlock()

	close(w.c)
	w.c = make(chan struct{})
}

func (w *Waiter[T]) signal() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.c
}

// Next returns the values written since r last read. If there are none, it
// will wait for Write to be called or the context to be done. If the context
// is done, then nil will be returned. r must come from the wrapped source;
// an invalid reader never gets data.
func (w *Waiter[T]) Next(r *ring.Reader[T]) []T {
	for {
		// Taken before TryNext so a write in between is not missed.
		c := w.signal()

		data, ok := w.Source.TryNext(r)
		if ok {
			return data
		}

		select {
		case <-w.ctx.Done():
			return nil
		case <-c:
		}
	}
}
