package ring

// DefaultWrapFactor is the ratio between the write counter's modulus and the
// buffer capacity.
const DefaultWrapFactor = 1000

type options struct {
	rep        Reporter
	wrapFactor uint64
}

// Option configures how we set up the storage.
type Option interface {
	apply(*options)
}

// optionFunc wraps a function that modifies options into an implementation of
// the Option interface.
type optionFunc struct {
	f func(*options)
}

func (of *optionFunc) apply(o *options) {
	of.f(o)
}

// WithReporter returns an Option which sets a Reporter for the storage to use
// for lost data alerts and warnings.
func WithReporter(r Reporter) Option {
	return &optionFunc{
		f: func(o *options) {
			o.rep = r
		},
	}
}

// WithWrapFactor returns an Option which sets how many full buffers of writes
// the write counter covers before it wraps to zero. A reader left unread for
// more than that many writes can no longer be told how much it lost. Values
// below 2 are ignored.
func WithWrapFactor(k int) Option {
	return &optionFunc{
		f: func(o *options) {
			if k >= 2 {
				o.wrapFactor = uint64(k)
			}
		},
	}
}
