package ringcast

import (
	"github.com/rs/zerolog"

	"code.cloudfoundry.org/go-ringcast/ring"
)

// Assert LogReporter implements ring.Reporter.
var _ ring.Reporter = LogReporter{}

// LogReporter is a ring.Reporter that writes to a zerolog.Logger.
type LogReporter struct {
	Logger zerolog.Logger
}

// Alert logs a lost data warning.
func (l LogReporter) Alert(lost uint64) {
	l.Logger.Warn().
		Uint64("lost", lost).
		Msg("reader lost data (consider using a larger ring)")
}

// Warn logs msg at warn level.
func (l LogReporter) Warn(msg string) {
	l.Logger.Warn().Msg(msg)
}

// channelReporter fans storage alerts out to the channel's logger, metrics
// and Alerter.
type channelReporter struct {
	log     LogReporter
	metrics *channelMetrics
	alerter Alerter
}

func (r *channelReporter) Alert(lost uint64) {
	r.log.Alert(lost)

	if r.metrics != nil {
		r.metrics.recordLost(lost)
	}

	if r.alerter != nil {
		r.alerter.Alert(int(lost))
	}
}

func (r *channelReporter) Warn(msg string) {
	r.log.Warn(msg)
}
