// Package testutils provides small helpers shared by this module's test files.
package testutils

import "testing"

var current *testing.T

// SetT registers the active *testing.T so NoErr/Err can fail the right test.
func SetT(t *testing.T) {
	current = t
}

// NoErr fails the current test if err is non-nil, and returns val otherwise.
func NoErr[T any](val T, err error) T {
	if err != nil {
		if current != nil {
			current.Fatalf("unexpected error: %v", err)
		}
		panic(err)
	}
	return val
}

// Err fails the current test if err is nil, and returns val otherwise.
func Err[T any](val T, err error) T {
	if err == nil {
		if current != nil {
			current.Fatalf("expected an error, got none")
		}
		panic("expected an error, got none")
	}
	return val
}
