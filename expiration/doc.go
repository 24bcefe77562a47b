// Package expiration defines the policies that decide when the countdown of an
// expiring map entry starts and whether it restarts.
//
// A Policy is attached to every entry. Created entries expire a fixed duration
// after they were written, Accessed entries restart their countdown on every
// successful read, and None entries are never expired by the scheduler (they
// are still subject to capacity eviction).
package expiration
