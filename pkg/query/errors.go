// pkg/query/errors.go
package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSuchElement is the sentinel for "zero matches". Transport
// implementations return an error wrapping it from FindElement, and the
// engine returns a *NoMatchError satisfying errors.Is(err, ErrNoSuchElement)
// when a query exhausts its retry policy.
var ErrNoSuchElement = errors.New("no such element")

// NoMatchError is returned by First and AllRequired when the retry policy is
// exhausted without any selector producing a match. Selectors carries a
// comma-joined summary of every criterion attempted.
type NoMatchError struct {
	Selectors string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("element(s) not found using selectors: %s", e.Selectors)
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoSuchElement }

// noMatch builds the NoMatchError for the given selector set.
func noMatch(selectors []*Selector) *NoMatchError {
	criteria := make([]string, len(selectors))
	for i, s := range selectors {
		criteria[i] = s.by.String()
	}
	return &NoMatchError{Selectors: "[" + strings.Join(criteria, ",") + "]"}
}

// TimeoutError is returned by a Waiter terminal when the condition did not
// become true within the retry policy. Message is the caller-supplied
// description; there is no structured payload beyond it.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for condition: %s", e.Message)
}
