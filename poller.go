package ringcast

import (
	"context"
	"runtime"
	"time"

	"code.cloudfoundry.org/go-ringcast/ring"
)

// Poller will poll a source until values are available.
type Poller[T any] struct {
	Source[T]
	interval time.Duration
}

type pollerOptions struct {
	interval time.Duration
}

// PollerConfigOption can be used to setup the poller.
type PollerConfigOption func(*pollerOptions)

// WithPollingInterval sets the interval at which the source is queried
// for new data. The default is 10ms.
func WithPollingInterval(interval time.Duration) PollerConfigOption {
	return PollerConfigOption(func(o *pollerOptions) {
		o.interval = interval
	})
}

// NewPoller wraps a source to allow accessing data via polling.
func NewPoller[T any](s Source[T], opts ...PollerConfigOption) *Poller[T] {
	o := pollerOptions{
		interval: 10 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &Poller[T]{
		Source:   s,
		interval: o.interval,
	}
}

// Next polls the source until r has new values or ctx is done. It returns
// nil once ctx is done. An interval of zero or less polls without pausing.
// r must come from the wrapped source; an invalid reader never gets data.
func (p *Poller[T]) Next(ctx context.Context, r *ring.Reader[T]) []T {
	var tick <-chan time.Time
	if p.interval > 0 {
		t := time.NewTicker(p.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		data, ok := p.Source.TryNext(r)
		if ok {
			return data
		}

		if tick == nil {
			if ctx.Err() != nil {
				return nil
			}
			runtime.Gosched()
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
}
