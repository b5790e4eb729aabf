package domain

// NotificationState is the ordinal id of a notification state.
type NotificationState int64

const (
	StatePending   NotificationState = 1
	StateResponded NotificationState = 2
	StateScheduled NotificationState = 3
	StateInactive  NotificationState = 4
	StateAccepted  NotificationState = 5
	StateRejected  NotificationState = 6
)

var stateNames = map[NotificationState]string{
	StatePending:   "Pending",
	StateResponded: "Responded",
	StateScheduled: "Scheduled",
	StateInactive:  "Inactive",
	StateAccepted:  "Accepted",
	StateRejected:  "Rejected",
}

// String returns the state name, or "" for ids outside the known set.
func (s NotificationState) String() string { return stateNames[s] }

// Known reports whether s is one of the enumerated states.
func (s NotificationState) Known() bool {
	_, ok := stateNames[s]
	return ok
}

// StateInfo is the listing shape of a notification state.
type StateInfo struct {
	StateID int64  `json:"notification_state_id"`
	Name    string `json:"name"`
}

// States returns every enumerated state ordered by id.
func States() []StateInfo {
	out := make([]StateInfo, 0, len(stateNames))
	for s := StatePending; s <= StateRejected; s++ {
		out = append(out, StateInfo{StateID: int64(s), Name: s.String()})
	}
	return out
}

// TransitionPolicy decides whether a notification may move between states.
type TransitionPolicy interface {
	Allow(from, to NotificationState) bool
}

// AllowAll permits every transition.
type AllowAll struct{}

func (AllowAll) Allow(_, _ NotificationState) bool { return true }

// TransitionTable permits only the listed transitions. A state may always be
// set to itself so retried updates stay idempotent.
type TransitionTable map[NotificationState][]NotificationState

func (t TransitionTable) Allow(from, to NotificationState) bool {
	if from == to {
		return true
	}
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}
