package streamplayer

import "time"

// TimeProvider abstracts wall-clock access so talkspurt-end timing can be
// driven deterministically in tests. Modeled on the teacher's own
// net.TimeProvider pattern, redeclared locally since av/video/rtp.go
// references a TimeProvider that is never defined anywhere inside the
// teacher's av package.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider is the production TimeProvider backed by the real
// system clock.
type DefaultTimeProvider struct{}

// Now returns the current wall-clock time.
func (DefaultTimeProvider) Now() time.Time {
	return time.Now()
}
