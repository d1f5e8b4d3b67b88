// Package resolver determines the canonical external profile of a reported
// player by racing independent lookup sources.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Lookup is one attempt to produce a value.
type Lookup[T any] func(ctx context.Context) (T, error)

// ErrNoLookups is returned by FirstSuccess when called without lookups.
var ErrNoLookups = errors.New("no lookups to race")

// AllSourcesFailedError is returned once every raced lookup has failed.
// Errors holds one entry per lookup, in completion order.
type AllSourcesFailedError struct {
	Errors []error
}

func (e *AllSourcesFailedError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all %d sources failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AllSourcesFailedError) Unwrap() []error {
	return e.Errors
}

type outcome[T any] struct {
	value    T
	err      error
	panicked bool
	panicVal any
}

// FirstSuccess starts every lookup concurrently and returns the value of the
// first one that succeeds. A failure only ends the race when it is the last
// lookup outstanding, in which case an *AllSourcesFailedError carrying every
// failure is returned.
//
// The context handed to the lookups is cancelled once the race is decided;
// results arriving later are discarded. Each lookup writes into a buffer
// sized for all of them, so no goroutine blocks after the decision. A panic
// inside a lookup is re-raised on the caller's goroutine.
func FirstSuccess[T any](ctx context.Context, lookups ...Lookup[T]) (T, error) {
	var zero T
	if len(lookups) == 0 {
		return zero, ErrNoLookups
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome[T], len(lookups))
	for _, lookup := range lookups {
		go func(lookup Lookup[T]) {
			defer func() {
				if p := recover(); p != nil {
					results <- outcome[T]{panicked: true, panicVal: p}
				}
			}()
			v, err := lookup(raceCtx)
			results <- outcome[T]{value: v, err: err}
		}(lookup)
	}

	failures := make([]error, 0, len(lookups))
	for pending := len(lookups); pending > 0; pending-- {
		select {
		case res := <-results:
			if res.panicked {
				panic(res.panicVal)
			}
			if res.err == nil {
				return res.value, nil
			}
			failures = append(failures, res.err)
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, &AllSourcesFailedError{Errors: failures}
}
