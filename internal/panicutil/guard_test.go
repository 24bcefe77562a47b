package panicutil_test

import (
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/pajama10000/expiringmap/internal/panicutil"
	"github.com/sourcegraph/conc/panics"
)

func TestGuard(t *testing.T) {
	t.Parallel()

	t.Run("Normal return", func(t *testing.T) {
		t.Parallel()

		called := false
		err := panicutil.Guard(func() { called = true }, func() {
			t.Error("onGoexit must not be called on normal return")
		})
		if err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
		if !called {
			t.Error("f was not called")
		}
	})

	t.Run("Panic with string", func(t *testing.T) {
		t.Parallel()

		err := panicutil.Guard(func() { panic("test panic") }, nil)
		var recoveredErr *panics.ErrRecovered
		if !errors.As(err, &recoveredErr) {
			t.Fatalf("expected error to be of type *panics.ErrRecovered, got: %T", err)
		}
		if recoveredErr.Value != "test panic" {
			t.Errorf("expected panic value 'test panic', got: %v", err)
		}
	})

	t.Run("Panic with error", func(t *testing.T) {
		t.Parallel()

		customErr := errors.New("custom error")
		err := panicutil.Guard(func() { panic(customErr) }, nil)
		var recoveredErr *panics.ErrRecovered
		if !errors.As(err, &recoveredErr) {
			t.Fatalf("expected error to be of type *panics.ErrRecovered, got: %T", err)
		}
		if recoveredErr.Value != customErr {
			t.Errorf("expected panic value custom error, got: %v", err)
		}
	})

	t.Run("Runtime.Goexit", func(t *testing.T) {
		t.Parallel()

		var wg sync.WaitGroup
		exited := false
		returned := false

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = panicutil.Guard(func() {
				runtime.Goexit()
			}, func() {
				exited = true
			})
			returned = true
		}()
		wg.Wait()

		if !exited {
			t.Error("onGoexit was not called")
		}
		if returned {
			t.Error("Guard must not return after runtime.Goexit")
		}
	})

	t.Run("Nested panic", func(t *testing.T) {
		t.Parallel()

		var inner error
		err := panicutil.Guard(func() {
			inner = panicutil.Guard(func() { panic("inner panic") }, nil)
		}, nil)
		if err != nil {
			t.Errorf("outer Guard must not see the inner panic, got: %v", err)
		}
		var recoveredErr *panics.ErrRecovered
		if !errors.As(inner, &recoveredErr) || recoveredErr.Value != "inner panic" {
			t.Errorf("expected inner panic value 'inner panic', got: %v", inner)
		}
	})
}
