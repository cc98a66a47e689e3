package resolver

import (
	"time"

	"github.com/charmbracelet/log"
)

// Observer receives every Result, including the cause a status code hides
type Observer interface {
	Observe(res Result, elapsed time.Duration)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(res Result, elapsed time.Duration)

func (f ObserverFunc) Observe(res Result, elapsed time.Duration) {
	f(res, elapsed)
}

// LogObserver writes resolutions to the charmbracelet logger.
// Backend and document failures are warnings, ordinary misses are debug.
type LogObserver struct{}

func (LogObserver) Observe(res Result, elapsed time.Duration) {
	switch res.Outcome {
	case NotOurDomain:
		return
	case Found:
		log.Debug("Resolved container", "name", res.Name, "ip", res.IP(), "elapsed", elapsed)
		return
	}

	switch KindOf(res.Err) {
	case KindTransport, KindDecode, KindInvalidAddress:
		log.Warn("Failed to resolve container", "name", res.Name, "reason", KindOf(res.Err), "err", res.Err)
	default:
		log.Debug("Container not resolvable", "name", res.Name, "reason", KindOf(res.Err))
	}
}
