package jobs

// Priority is one of the four scheduling tiers from spec §4.3. Higher
// priorities preempt dispatch order but never kill an already-running task
// of a lower priority — a running task always runs to completion or to its
// own cancellation point.
type Priority int

const (
	PriorityIdle Priority = iota
	PriorityBackground
	PriorityNormal
	PriorityInteractive
)

func (p Priority) String() string {
	switch p {
	case PriorityInteractive:
		return "interactive"
	case PriorityNormal:
		return "normal"
	case PriorityBackground:
		return "background"
	case PriorityIdle:
		return "idle"
	default:
		return "unknown"
	}
}
