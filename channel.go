package ringcast

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"code.cloudfoundry.org/go-ringcast/ring"
)

// Source is anything Poller and Waiter can read from.
type Source[T any] interface {
	Write(items ...T) error
	NewReader() *ring.Reader[T]
	TryNext(r *ring.Reader[T]) ([]T, bool)
}

// Assert Channel implements Source.
var _ Source[int] = (*Channel[int])(nil)

// Channel is a ring.Storage that is safe for concurrent use. Writes are
// serialized with each other and with reads. Reads with different readers
// may run concurrently; a single reader must still only be used by one
// goroutine at a time.
type Channel[T any] struct {
	mu      sync.RWMutex
	storage *ring.Storage[T]
	metrics *channelMetrics
	log     zerolog.Logger

	// Set after the first failed read is logged at error level.
	readFailed atomic.Bool
}

// NewChannel creates a channel holding up to capacity values. It fails for
// a capacity below one or when metrics registration fails.
func NewChannel[T any](capacity int, opts ...ChannelConfigOption) (*Channel[T], error) {
	o := channelOptions{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	rep := &channelReporter{
		log:     LogReporter{Logger: o.logger},
		alerter: o.alerter,
	}

	storage, err := ring.New[T](capacity, ring.WithReporter(rep), ring.WithWrapFactor(o.wrapFactor))
	if err != nil {
		return nil, err
	}

	c := &Channel[T]{
		storage: storage,
		log:     o.logger,
	}

	if o.registerer != nil {
		c.metrics, err = newChannelMetrics(o.registerer, o.name)
		if err != nil {
			return nil, fmt.Errorf("register metrics for channel %q: %w", o.name, err)
		}
		rep.metrics = c.metrics
	}

	return c, nil
}

// Cap returns the channel capacity.
func (c *Channel[T]) Cap() int {
	return c.storage.Cap()
}

// Write writes items as one batch. A batch larger than the capacity fails
// with ring.ErrTooLargeWrite and nothing is written.
func (c *Channel[T]) Write(items ...T) error {
	c.mu.Lock()
	err := c.storage.Write(items...)
	c.mu.Unlock()

	if c.metrics != nil {
		if err != nil {
			c.metrics.recordRejected()
		} else {
			c.metrics.recordWrite(len(items))
		}
	}
	return err
}

// WriteOne writes a single value.
func (c *Channel[T]) WriteOne(item T) {
	c.mu.Lock()
	c.storage.WriteOne(item)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.recordWrite(1)
	}
}

// NewReader registers a new reader. It only sees values written after it
// was created.
func (c *Channel[T]) NewReader() *ring.Reader[T] {
	c.mu.Lock()
	r := c.storage.NewReader()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.recordReader()
	}
	c.log.Debug().Stringer("reader", r).Msg("reader registered")
	return &r
}

// Read returns everything written since r last read. See ring.Storage.Read
// for the lost data case.
func (c *Channel[T]) Read(r *ring.Reader[T]) ([]T, error) {
	c.mu.RLock()
	data, err := c.storage.Read(r)
	c.mu.RUnlock()

	if c.metrics != nil {
		c.metrics.recordRead(len(data))
	}
	return data, err
}

// TryNext returns everything written since r last read, or false when there
// is nothing new. Lost data is reported to the Alerter and the salvaged
// values are returned as if nothing had happened. A reader from another
// channel always gets false; only the first such failure is logged as an
// error, later ones at debug level.
func (c *Channel[T]) TryNext(r *ring.Reader[T]) ([]T, bool) {
	data, err := c.Read(r)
	if err != nil && !errors.Is(err, ring.ErrLostData) {
		if c.readFailed.CompareAndSwap(false, true) {
			c.log.Error().Err(err).Msg("read failed")
		} else {
			c.log.Debug().Err(err).Msg("read failed")
		}
		return nil, false
	}
	return data, len(data) > 0
}
