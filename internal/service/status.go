package service

import "sync"

// Status is the state of the global status popup.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// StatusListener observes status transitions, e.g. to render the popup.
type StatusListener func(status Status, message string)

// StatusSignal is the shared global status for one session. While it holds
// StatusLoading it also acts as the single-flight guard: only one
// transaction submission can be in progress at a time, and the popup cannot
// be dismissed until the submission resolves.
type StatusSignal struct {
	mu        sync.Mutex
	status    Status
	message   string
	listeners []StatusListener
}

// NewStatusSignal creates an idle signal.
func NewStatusSignal() *StatusSignal {
	return &StatusSignal{}
}

// OnChange registers a listener for status transitions.
func (g *StatusSignal) OnChange(l StatusListener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

// Current returns the current status and message.
func (g *StatusSignal) Current() (Status, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, g.message
}

// BeginLoading moves to StatusLoading. Reports false when a submission is
// already in flight — the caller must back off.
func (g *StatusSignal) BeginLoading(message string) bool {
	g.mu.Lock()
	if g.status == StatusLoading {
		g.mu.Unlock()
		return false
	}
	g.status = StatusLoading
	g.message = message
	listeners := append([]StatusListener(nil), g.listeners...)
	g.mu.Unlock()

	for _, l := range listeners {
		l(StatusLoading, message)
	}
	return true
}

// Resolve leaves StatusLoading for a terminal status.
func (g *StatusSignal) Resolve(status Status, message string) {
	g.mu.Lock()
	g.status = status
	g.message = message
	listeners := append([]StatusListener(nil), g.listeners...)
	g.mu.Unlock()

	for _, l := range listeners {
		l(status, message)
	}
}

// Dismiss returns to idle. Refused while loading: the popup cannot be
// dismissed mid-submission.
func (g *StatusSignal) Dismiss() bool {
	g.mu.Lock()
	if g.status == StatusLoading {
		g.mu.Unlock()
		return false
	}
	g.status = StatusIdle
	g.message = ""
	listeners := append([]StatusListener(nil), g.listeners...)
	g.mu.Unlock()

	for _, l := range listeners {
		l(StatusIdle, "")
	}
	return true
}
