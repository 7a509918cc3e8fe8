package ring

// Reporter is used to report lost data and warnings.
type Reporter interface {
	Alert(lost uint64) // A reader missed values that were overwritten.
	Warn(msg string)   // A warning message was generated.
}

// Assert reporter implements Reporter.
var _ Reporter = reporter{}

// reporter satisfies Reporter without doing anything. Used when no Reporter
// is set.
type reporter struct{}

func (r reporter) Alert(lost uint64) {}
func (r reporter) Warn(msg string)   {}
