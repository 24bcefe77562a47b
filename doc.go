// Package expiringmap provides a thread-safe map whose entries expire
// automatically.
//
// Each entry carries an expiration policy and duration. A single timer per map
// is armed for the entry next in line for expiration; when it fires, due
// entries are removed and expiration listeners are notified. Maps may also be
// bounded in size, in which case inserting into a full map evicts the entry
// closest to expiring, and may load missing values on demand.
//
// Basic Usage:
//
//	m, err := expiringmap.New(
//	    expiringmap.WithExpiration[string, int](30*time.Second),
//	    expiringmap.WithMaxSize[string, int](1000),
//	)
//	if err != nil {
//	    return err
//	}
//	m.Put("answer", 42)
//	if v, ok, _ := m.Get("answer"); ok {
//	    fmt.Println(v)
//	}
//
// By default all entries share the map's policy and duration and are kept in
// insertion order. Maps built with WithVariableExpiration let every entry
// carry its own settings at a logarithmic cost per operation.
//
// Timers and asynchronous listeners run on the goroutines of a Services value,
// shared by every map built without WithServices.
package expiringmap
