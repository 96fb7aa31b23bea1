// Package collections holds small generic containers shared by the extractor.
package collections

import (
	"cmp"
	"fmt"
	"slices"
)

// Set is an unordered set backed by a map with zero-size values
type Set[T comparable] map[T]struct{}

// NewSet creates a Set holding vs
func NewSet[T comparable](vs ...T) Set[T] {
	s := make(Set[T], len(vs))
	s.Add(vs...)
	return s
}

func (s Set[T]) Add(vs ...T) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Difference returns the members of s missing from other
func (s Set[T]) Difference(other Set[T]) Set[T] {
	out := Set[T]{}
	for v := range s {
		if !other.Has(v) {
			out.Add(v)
		}
	}
	return out
}

// Members returns the values in unspecified order
func (s Set[T]) Members() []T {
	r := make([]T, 0, len(s))
	for v := range s {
		r = append(r, v)
	}
	return r
}

func (s Set[T]) String() string {
	return fmt.Sprintf("%v", s.Members())
}

// Sorted returns the members of an ordered set in ascending order
func Sorted[T cmp.Ordered](s Set[T]) []T {
	r := s.Members()
	slices.Sort(r)
	return r
}
