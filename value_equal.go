package expiringmap

import (
	"github.com/goccy/go-reflect"
)

// DefaultValueEqual returns the equality used to decide whether a write
// replaces a value with an equal one.
//
// Values of comparable types are compared with ==. Values of types that
// cannot be compared with == (slices, maps, functions and structs holding
// them) are compared structurally with reflect.DeepEqual. For interface types
// the decision is made per call from the dynamic values.
func DefaultValueEqual[V ValueConstraint]() func(a, b V) bool {
	var zero V
	return defaultValueEqualAny[V](zero)
}

func defaultValueEqualAny[V ValueConstraint](zero any) func(a, b V) bool {
	if zero == nil {
		// V is an interface type; the zero value carries no dynamic type.
		return dynamicValueEqual[V]
	}
	if reflect.TypeOf(zero).Comparable() {
		return comparableValueEqual[V]
	}
	return deepValueEqual[V]
}

func comparableValueEqual[V ValueConstraint](a, b V) (equal bool) {
	// == still panics on interface fields holding incomparable values
	defer func() {
		if recover() != nil {
			equal = deepValueEqual(a, b)
		}
	}()
	return any(a) == any(b)
}

func dynamicValueEqual[V ValueConstraint](a, b V) bool {
	x, y := any(a), any(b)
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	if typ := reflect.TypeOf(x); !typ.Comparable() {
		return deepValueEqual(a, b)
	}
	return comparableValueEqual(a, b)
}

func deepValueEqual[V ValueConstraint](a, b V) bool {
	return reflect.DeepEqual(a, b)
}
