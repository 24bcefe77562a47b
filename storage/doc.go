// Package storage provides the entry stores behind an expiring map.
//
// A Store keeps key to entry associations and answers which entry is next in
// line for expiration. Two variants exist:
//
//   - NewFixed keeps entries in insertion order. When every entry shares one
//     duration, the oldest entry is always the first to expire, so every
//     operation is O(1).
//   - NewVariable keeps entries ordered by deadline, breaking ties by write
//     order. Entries may carry independent durations; operations are O(log n).
//
// Stores are not safe for concurrent use. The owning map serializes access.
package storage
