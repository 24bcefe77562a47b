package panicutil

import (
	"github.com/sourcegraph/conc/panics"
)

// Guard runs f on the calling goroutine and isolates its failures.
//
// A panic is recovered and returned as *panics.ErrRecovered. runtime.Goexit
// cannot be stopped: onGoexit (if non-nil) is called before the goroutine
// unwinds, so the caller can hand its work to a replacement goroutine.
// A normal return yields nil.
func Guard(f func(), onGoexit func()) (err error) {
	var (
		returned   bool
		panicked   bool
		panicValue panics.Recovered
	)
	defer func() {
		if !returned && !panicked && onGoexit != nil {
			onGoexit()
		}
	}()
	func() {
		defer func() {
			if !returned {
				panicValue = panics.NewRecovered(2, recover())
			}
		}()
		f()
		returned = true
	}()
	if !returned {
		// reaching here means the inner call unwound through a recovered panic
		panicked = true
		err = panicValue.AsError()
	}
	return err
}
