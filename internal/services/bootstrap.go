package services

// BootstrapState tracks the calendar-list fetch lifecycle. The fetch
// may transiently fail; the budgeted retry and the auto-provision
// fallback are modeled as explicit states so the terminal outcomes are
// testable rather than buried in ad hoc counters.
type BootstrapState int

const (
	BootstrapIdle BootstrapState = iota
	BootstrapLoading
	BootstrapRetrying
	BootstrapReady
	BootstrapFailed
)

func (s BootstrapState) String() string {
	switch s {
	case BootstrapIdle:
		return "idle"
	case BootstrapLoading:
		return "loading"
	case BootstrapRetrying:
		return "retrying"
	case BootstrapReady:
		return "ready"
	case BootstrapFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Bootstrap is the state machine for one calendar-list load.
type Bootstrap struct {
	state      BootstrapState
	attempts   int
	maxRetries int
}

// NewBootstrap creates a bootstrap with the given retry budget
// (extra attempts beyond the first).
func NewBootstrap(maxRetries int) *Bootstrap {
	return &Bootstrap{state: BootstrapIdle, maxRetries: maxRetries}
}

// State returns the current state.
func (b *Bootstrap) State() BootstrapState {
	return b.state
}

// Begin records the start of a fetch attempt.
func (b *Bootstrap) Begin() {
	b.attempts++
	if b.attempts > 1 {
		b.state = BootstrapRetrying
	} else {
		b.state = BootstrapLoading
	}
}

// Retry reports whether another attempt is allowed after a failure and
// moves to Retrying when it is.
func (b *Bootstrap) Retry() bool {
	if b.attempts > b.maxRetries {
		return false
	}
	b.state = BootstrapRetrying
	return true
}

// Ready marks the load as successful.
func (b *Bootstrap) Ready() {
	b.state = BootstrapReady
}

// Fail marks the load as terminally failed.
func (b *Bootstrap) Fail() {
	b.state = BootstrapFailed
}
