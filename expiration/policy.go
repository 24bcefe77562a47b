package expiration

import (
	"fmt"
	"time"
)

// Policy is the rule governing when an entry's countdown restarts.
type Policy uint8

const (
	// Unspecified is the zero value. Wherever a policy is optional it means
	// "use the map default".
	Unspecified Policy = iota

	// Created expires an entry a fixed duration after it was created or its
	// value was replaced.
	Created

	// Accessed expires an entry a fixed duration after its last successful read.
	Accessed

	// None never expires an entry by time.
	None
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Unspecified:
		return "UNSPECIFIED"
	case Created:
		return "CREATED"
	case Accessed:
		return "ACCESSED"
	case None:
		return "NONE"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// Valid reports whether p is one of Created, Accessed or None.
func (p Policy) Valid() bool {
	return p == Created || p == Accessed || p == None
}

// Expires reports whether entries under this policy are expired by the scheduler.
func (p Policy) Expires() bool {
	return p == Created || p == Accessed
}

// RefreshOnAccess reports whether a successful read restarts the countdown.
func (p Policy) RefreshOnAccess() bool {
	return p == Accessed
}

// Or returns p, or def if p is Unspecified.
func (p Policy) Or(def Policy) Policy {
	if p == Unspecified {
		return def
	}
	return p
}

// Deadline returns the instant an entry written at now with the given duration
// is due. For policies that never expire it returns the zero time, which callers
// must not compare against; check Expires first.
//
// now should come from a clock that carries a monotonic reading so the deadline
// is immune to wall-clock adjustments.
func (p Policy) Deadline(now time.Time, d time.Duration) time.Time {
	if !p.Expires() {
		return time.Time{}
	}
	return now.Add(d)
}

// IsExpired reports whether an entry under this policy with the given deadline
// is due at now. The deadline itself counts as expired.
func (p Policy) IsExpired(now, deadline time.Time) bool {
	if !p.Expires() {
		return false
	}
	return !deadline.After(now)
}
