package ringcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type channelOptions struct {
	alerter    Alerter
	logger     zerolog.Logger
	registerer prometheus.Registerer
	name       string
	wrapFactor int
}

// ChannelConfigOption can be used to setup the channel.
type ChannelConfigOption func(*channelOptions)

// WithAlerter sets the Alerter told about values lost by lagging readers.
// It may be called from several readers at once.
func WithAlerter(a Alerter) ChannelConfigOption {
	return ChannelConfigOption(func(o *channelOptions) {
		o.alerter = a
	})
}

// WithLogger sets the logger used for lost data and rejected writes. The
// default discards everything.
func WithLogger(l zerolog.Logger) ChannelConfigOption {
	return ChannelConfigOption(func(o *channelOptions) {
		o.logger = l
	})
}

// WithMetrics registers the channel's Prometheus metrics with reg, labelled
// with name. A nil reg or empty name leaves metrics off.
func WithMetrics(reg prometheus.Registerer, name string) ChannelConfigOption {
	return ChannelConfigOption(func(o *channelOptions) {
		if reg != nil && name != "" {
			o.registerer = reg
			o.name = name
		}
	})
}

// WithWrapFactor is passed to the underlying storage as ring.WithWrapFactor.
func WithWrapFactor(k int) ChannelConfigOption {
	return ChannelConfigOption(func(o *channelOptions) {
		o.wrapFactor = k
	})
}
