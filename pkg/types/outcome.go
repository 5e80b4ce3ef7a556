package types

import "time"

// SessionOutcome summarizes one session for reporting. It never feeds back
// into extraction or translation.
type SessionOutcome struct {
	Name      string        `json:"name"`
	Browser   string        `json:"browser,omitempty"`
	Succeeded bool          `json:"succeeded"`
	ItemCount int           `json:"item_count"`
	Err       *SessionError `json:"error,omitempty"`

	// ReleaseErr is set when closing the session failed. It does not
	// change Succeeded.
	ReleaseErr *SessionError `json:"release_error,omitempty"`

	// Fallbacks counts items whose translation failed.
	Fallbacks int `json:"fallbacks"`

	Items     []ItemResult  `json:"items,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// FailedOutcome builds the outcome of a session that failed with err.
func FailedOutcome(name string, err *SessionError) SessionOutcome {
	return SessionOutcome{
		Name:      name,
		Succeeded: false,
		Err:       err,
		StartedAt: time.Now(),
	}
}

// Kind returns the failure kind, or the empty kind for a successful session.
func (o SessionOutcome) Kind() FailureKind {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind
}
