package nn

import (
	"strconv"
	"strings"
)

// Shape describes a (batch, features) layout. A dimension of -1 is unknown
// until the first batch is observed.
type Shape []int

// Features returns the trailing dimension, or -1 if it is not known.
func (s Shape) Features() int {
	if len(s) == 0 {
		return -1
	}
	return s[len(s)-1]
}

// Clone returns a copy that does not alias s.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	return append(Shape(nil), s...)
}

// Equal reports whether two shapes have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders unknown dimensions as None, e.g. "(None, 784)".
func (s Shape) String() string {
	if len(s) == 0 {
		return "?"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		if d == -1 {
			parts[i] = "None"
		} else {
			parts[i] = strconv.Itoa(d)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
