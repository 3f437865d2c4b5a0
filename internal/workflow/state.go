package workflow

// State is a phase of one sync invocation.
type State int

const (
	StatePending State = iota
	StateCommitting
	StatePushing
	StatePushRecovering
	StatePushRetrying
	StateSyncing
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitting:
		return "committing"
	case StatePushing:
		return "pushing"
	case StatePushRecovering:
		return "push-recovering"
	case StatePushRetrying:
		return "push-retrying"
	case StateSyncing:
		return "syncing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
