package expiringmap_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	expiringmap "github.com/pajama10000/expiringmap"
	"github.com/pajama10000/expiringmap/expiration"
	"github.com/pajama10000/expiringmap/scheduler/clocktest"
)

func Example() {
	clk := clocktest.New(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := expiringmap.NewServices(expiringmap.WithClock(clk))
	defer svc.Shutdown(context.Background())

	m, err := expiringmap.New(
		expiringmap.WithServices[string, int](svc),
		expiringmap.WithExpiration[string, int](10*time.Second),
		expiringmap.WithMaxSize[string, int](2),
		expiringmap.WithExpirationListener[string, int](expiringmap.ExpirationListenerFunc[string, int](func(key string, value int) {
			fmt.Printf("expired %s=%d\n", key, value)
		})),
	)
	if err != nil {
		panic(err)
	}

	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3) // the map is full, so a goes first
	fmt.Println("len:", m.Len())

	clk.Advance(10 * time.Second)
	svc.Flush()
	fmt.Println("len:", m.Len())

	// Output:
	// expired a=1
	// len: 2
	// expired b=2
	// expired c=3
	// len: 0
}

func ExampleMap_PutWithExpiration() {
	clk := clocktest.New(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := expiringmap.NewServices(expiringmap.WithClock(clk))
	defer svc.Shutdown(context.Background())

	m, err := expiringmap.New(
		expiringmap.WithServices[string, string](svc),
		expiringmap.WithVariableExpiration[string, string](),
	)
	if err != nil {
		panic(err)
	}

	m.PutWithExpiration("session", "alice", 2*time.Second)
	m.PutWithExpiration("token", "t-123", time.Hour)
	m.PutWithPolicy("config", "debug=false", expiration.None)

	clk.Advance(3 * time.Second)
	svc.Flush()
	for k, v := range m.All() {
		fmt.Printf("%s=%s\n", k, v)
	}

	// Output:
	// token=t-123
	// config=debug=false
}

func ExampleWithEntryLoader() {
	m, err := expiringmap.New(
		expiringmap.WithEntryLoader[string, string](expiringmap.EntryLoaderFunc[string, string](func(_ context.Context, key string) (string, error) {
			if key == "" {
				return "", expiringmap.ErrNotFound
			}
			fmt.Println("loading", key)
			return strings.ToUpper(key), nil
		})),
	)
	if err != nil {
		panic(err)
	}

	v, _, _ := m.Get("gopher")
	fmt.Println(v)
	v, _, _ = m.Get("gopher")
	fmt.Println(v)
	_, ok, _ := m.Get("")
	fmt.Println(ok)

	// Output:
	// loading gopher
	// GOPHER
	// GOPHER
	// false
}

func ExampleMap_SetEntryExpirationPolicy() {
	m, err := expiringmap.New[string, int]()
	if err != nil {
		panic(err)
	}
	m.Put("k", 1)

	_, err = m.SetEntryExpirationPolicy("k", expiration.Accessed)
	fmt.Println(errors.Is(err, expiringmap.ErrUnsupportedOperation))

	// Output:
	// true
}
