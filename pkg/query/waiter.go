// pkg/query/waiter.go
package query

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Waiter blocks, with retry, until a boolean condition over a single
// previously-located element becomes true. It shares the Policy pacing
// behavior with Query but terminates on a boolean rather than a non-empty
// result set.
//
// Like Query, a Waiter is built fluently and consumed by a terminal
// condition method:
//
//	err := session.WaitFor(el, "login button clickable").
//		Within(5*time.Second, 250*time.Millisecond).
//		Clickable(ctx)
type Waiter struct {
	element Element
	policy  Policy
	message string

	// inverted flips the predicate result before comparing to "success".
	// The Not* condition terminals set it instead of duplicating predicate
	// logic.
	inverted bool

	// ignoreErrors controls what happens when the predicate's own remote
	// call fails: true (the default) treats the check as "condition not yet
	// met, keep polling"; false propagates the error immediately.
	ignoreErrors bool

	logger *zap.Logger
}

// NewWaiter starts a wait over el. The message is the human-readable
// description carried by the TimeoutError on policy exhaustion.
func NewWaiter(el Element, policy Policy, message string) *Waiter {
	return &Waiter{
		element:      el,
		policy:       policy,
		message:      message,
		ignoreErrors: true,
		logger:       zap.NewNop(),
	}
}

// WithLogger attaches a logger for attempt-level debug output.
func (w *Waiter) WithLogger(logger *zap.Logger) *Waiter {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// WithPolicy overrides the retry policy for this wait only.
func (w *Waiter) WithPolicy(p Policy) *Waiter {
	w.policy = p
	return w
}

// Within overrides the policy with Deadline(timeout, interval) for this
// wait only.
func (w *Waiter) Within(timeout, interval time.Duration) *Waiter {
	return w.WithPolicy(Deadline(timeout, interval))
}

// Not inverts the condition: the wait succeeds when the predicate is false.
func (w *Waiter) Not() *Waiter {
	w.inverted = !w.inverted
	return w
}

// IgnoreErrors sets whether predicate errors are absorbed as "condition not
// yet met" (true, the default) or propagated immediately (false).
func (w *Waiter) IgnoreErrors(ignore bool) *Waiter {
	w.ignoreErrors = ignore
	return w
}

// -- Named condition terminals --

// Displayed waits until the element is visible.
func (w *Waiter) Displayed(ctx context.Context) error {
	return w.run(ctx, IsDisplayed(), false)
}

// NotDisplayed waits until the element is not visible.
func (w *Waiter) NotDisplayed(ctx context.Context) error {
	return w.run(ctx, IsDisplayed(), true)
}

// Enabled waits until the element is enabled.
func (w *Waiter) Enabled(ctx context.Context) error {
	return w.run(ctx, IsEnabled(), false)
}

// NotEnabled waits until the element is disabled.
func (w *Waiter) NotEnabled(ctx context.Context) error {
	return w.run(ctx, IsEnabled(), true)
}

// Selected waits until the element is selected.
func (w *Waiter) Selected(ctx context.Context) error {
	return w.run(ctx, IsSelected(), false)
}

// NotSelected waits until the element is not selected.
func (w *Waiter) NotSelected(ctx context.Context) error {
	return w.run(ctx, IsSelected(), true)
}

// Clickable waits until the element is displayed and enabled.
func (w *Waiter) Clickable(ctx context.Context) error {
	return w.run(ctx, IsClickable(), false)
}

// NotClickable waits until the element is not clickable.
func (w *Waiter) NotClickable(ctx context.Context) error {
	return w.run(ctx, IsClickable(), true)
}

// Stale waits until the element's presence check reports false, i.e. the
// handle no longer resolves to a live node.
func (w *Waiter) Stale(ctx context.Context) error {
	return w.run(ctx, presence(), true)
}

// HasAttribute waits until the named attribute satisfies m.
func (w *Waiter) HasAttribute(ctx context.Context, name string, m Matcher) error {
	return w.run(ctx, AttributeIs(name, m), false)
}

// HasNotAttribute waits until the named attribute does not satisfy m.
func (w *Waiter) HasNotAttribute(ctx context.Context, name string, m Matcher) error {
	return w.run(ctx, AttributeIs(name, m), true)
}

// HasAttributes waits until every attribute pair is satisfied.
func (w *Waiter) HasAttributes(ctx context.Context, pairs []AttributePair) error {
	return w.run(ctx, AttributesAre(pairs), false)
}

// HasNotAttributes waits until the attribute pairs are not all satisfied.
func (w *Waiter) HasNotAttributes(ctx context.Context, pairs []AttributePair) error {
	return w.run(ctx, AttributesAre(pairs), true)
}

// HasProperty waits until the named DOM property satisfies m.
func (w *Waiter) HasProperty(ctx context.Context, name string, m Matcher) error {
	return w.run(ctx, PropertyIs(name, m), false)
}

// HasNotProperty waits until the named DOM property does not satisfy m.
func (w *Waiter) HasNotProperty(ctx context.Context, name string, m Matcher) error {
	return w.run(ctx, PropertyIs(name, m), true)
}

// HasProperties waits until every property pair is satisfied.
func (w *Waiter) HasProperties(ctx context.Context, pairs []AttributePair) error {
	return w.run(ctx, PropertiesAre(pairs), false)
}

// HasNotProperties waits until the property pairs are not all satisfied.
func (w *Waiter) HasNotProperties(ctx context.Context, pairs []AttributePair) error {
	return w.run(ctx, PropertiesAre(pairs), true)
}

// HasCSSValue waits until the named computed CSS property satisfies m.
func (w *Waiter) HasCSSValue(ctx context.Context, name string, m Matcher) error {
	return w.run(ctx, CSSValueIs(name, m), false)
}

// HasNotCSSValue waits until the named computed CSS property does not
// satisfy m.
func (w *Waiter) HasNotCSSValue(ctx context.Context, name string, m Matcher) error {
	return w.run(ctx, CSSValueIs(name, m), true)
}

// HasCSSValues waits until every CSS property pair is satisfied.
func (w *Waiter) HasCSSValues(ctx context.Context, pairs []AttributePair) error {
	return w.run(ctx, CSSValuesAre(pairs), false)
}

// HasNotCSSValues waits until the CSS property pairs are not all satisfied.
func (w *Waiter) HasNotCSSValues(ctx context.Context, pairs []AttributePair) error {
	return w.run(ctx, CSSValuesAre(pairs), true)
}

// Condition waits until the caller-supplied predicate is satisfied.
func (w *Waiter) Condition(ctx context.Context, f Filter) error {
	return w.run(ctx, f, false)
}

// presence wraps Element.Present as a filter for Stale.
func presence() Filter {
	return Filter{
		Name: "present",
		Test: func(ctx context.Context, el Element) (bool, error) {
			return el.Present(ctx)
		},
	}
}

// run drives the shared poll loop for one predicate. The invert argument
// composes with the Waiter's own inverted flag, so Not().Displayed() and
// NotDisplayed() behave identically.
func (w *Waiter) run(ctx context.Context, f Filter, invert bool) error {
	inverted := w.inverted != invert
	plan := w.policy.plan()

	tries := 0
	start := time.Now()
	for {
		tries++

		ok, err := f.Test(ctx, w.element)
		if err != nil {
			if !w.ignoreErrors {
				return err
			}
			w.logger.Debug("condition check errored, treating as not met",
				zap.String("condition", f.String()),
				zap.Int("attempt", tries),
				zap.Error(err))
			ok = false
		}
		if ok != inverted {
			return nil
		}

		if plan.exhausted(start, tries) {
			return &TimeoutError{Message: w.message}
		}

		if err := plan.pause(ctx, start, tries); err != nil {
			return err
		}
	}
}
