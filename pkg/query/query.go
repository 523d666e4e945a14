// pkg/query/query.go
package query

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Query finds one or more elements matching any of several fallback
// criteria, each with its own locally-applied filter chain, retrying under a
// Policy until a match appears or the policy is exhausted.
//
// A Query is built fluently and consumed by one of the terminal operations
// (Exists, First, All, AllRequired); it must not be reused or mutated after
// a terminal operation begins.
//
// Example:
//
//	el, err := session.Query(query.ByCSS("button.submit")).
//		MatchingText(query.Contains("Sign in")).
//		Or(query.ByID("login")).
//		Within(10*time.Second, 500*time.Millisecond).
//		First(ctx)
type Query struct {
	source    Source
	policy    Policy
	selectors []*Selector
	logger    *zap.Logger
}

// New starts a query over src with an initial criterion. The policy governs
// every terminal operation except Exists, which always runs a single
// attempt.
func New(src Source, policy Policy, by By) *Query {
	return &Query{
		source:    src,
		policy:    policy,
		selectors: []*Selector{NewSelector(by)},
		logger:    zap.NewNop(),
	}
}

// WithLogger attaches a logger for attempt-level debug output.
func (q *Query) WithLogger(logger *zap.Logger) *Query {
	if logger != nil {
		q.logger = logger
	}
	return q
}

// WithPolicy overrides the retry policy for this query only.
func (q *Query) WithPolicy(p Policy) *Query {
	q.policy = p
	return q
}

// Within overrides the policy with Deadline(timeout, interval) for this
// query only.
func (q *Query) Within(timeout, interval time.Duration) *Query {
	return q.WithPolicy(Deadline(timeout, interval))
}

// NoWait overrides the policy with Once for this query only.
func (q *Query) NoWait() *Query {
	return q.WithPolicy(Once())
}

// Or adds a fallback criterion. Filters added after this call apply to the
// new criterion, up until the next Or.
func (q *Query) Or(by By) *Query {
	q.selectors = append(q.selectors, NewSelector(by))
	return q
}

// WithFilter appends a filter to the most recently added criterion.
func (q *Query) WithFilter(f Filter) *Query {
	q.selectors[len(q.selectors)-1].AddFilter(f)
	return q
}

// Single marks the most recently added criterion as single-result: the
// lookup fetches at most one raw match. Faster, but filters on this
// criterion only ever see that one candidate. To simply take the first
// element after filtering, use First instead.
func (q *Query) Single() *Query {
	q.selectors[len(q.selectors)-1].SetSingle()
	return q
}

// -- Built-in filter sugar, applying to the most recently added criterion. --

func (q *Query) MatchingText(m Matcher) *Query               { return q.WithFilter(TextIs(m)) }
func (q *Query) WithID(m Matcher) *Query                     { return q.WithFilter(IDIs(m)) }
func (q *Query) WithClass(m Matcher) *Query                  { return q.WithFilter(ClassIs(m)) }
func (q *Query) WithTag(m Matcher) *Query                    { return q.WithFilter(TagIs(m)) }
func (q *Query) WithValue(m Matcher) *Query                  { return q.WithFilter(ValueIs(m)) }
func (q *Query) WithAttribute(name string, m Matcher) *Query { return q.WithFilter(AttributeIs(name, m)) }
func (q *Query) WithAttributes(pairs []AttributePair) *Query { return q.WithFilter(AttributesAre(pairs)) }
func (q *Query) WithProperty(name string, m Matcher) *Query  { return q.WithFilter(PropertyIs(name, m)) }
func (q *Query) WithProperties(pairs []AttributePair) *Query { return q.WithFilter(PropertiesAre(pairs)) }
func (q *Query) WithCSSValue(name string, m Matcher) *Query  { return q.WithFilter(CSSValueIs(name, m)) }
func (q *Query) WithCSSValues(pairs []AttributePair) *Query  { return q.WithFilter(CSSValuesAre(pairs)) }
func (q *Query) AndEnabled() *Query                          { return q.WithFilter(IsEnabled()) }
func (q *Query) AndNotEnabled() *Query                       { return q.WithFilter(IsNotEnabled()) }
func (q *Query) AndSelected() *Query                         { return q.WithFilter(IsSelected()) }
func (q *Query) AndNotSelected() *Query                      { return q.WithFilter(IsNotSelected()) }
func (q *Query) AndDisplayed() *Query                        { return q.WithFilter(IsDisplayed()) }
func (q *Query) AndNotDisplayed() *Query                     { return q.WithFilter(IsNotDisplayed()) }
func (q *Query) AndClickable() *Query                        { return q.WithFilter(IsClickable()) }
func (q *Query) AndNotClickable() *Query                     { return q.WithFilter(IsNotClickable()) }

// -- Terminal operations --

// Exists reports whether any selector currently matches. It performs a
// single attempt per selector regardless of the configured policy and never
// sleeps.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	elements, err := q.runPoller(ctx, Once().plan())
	if err != nil {
		var nm *NoMatchError
		if errors.As(err, &nm) {
			return false, nil
		}
		return false, err
	}
	return len(elements) > 0, nil
}

// First returns the first element of the first selector that produced a
// non-empty post-filter result on the winning attempt. When the policy is
// exhausted it returns a *NoMatchError summarizing every criterion tried.
func (q *Query) First(ctx context.Context) (Element, error) {
	elements, err := q.runPoller(ctx, q.policy.plan())
	if err != nil {
		return nil, err
	}
	return elements[0], nil
}

// All returns the full winning result set, or an empty slice when the
// policy is exhausted without a match. It fails only on fatal remote errors.
func (q *Query) All(ctx context.Context) ([]Element, error) {
	elements, err := q.runPoller(ctx, q.policy.plan())
	if err != nil {
		var nm *NoMatchError
		if errors.As(err, &nm) {
			return nil, nil
		}
		return nil, err
	}
	return elements, nil
}

// AllRequired is All, except that an empty result is a *NoMatchError.
func (q *Query) AllRequired(ctx context.Context) ([]Element, error) {
	return q.runPoller(ctx, q.policy.plan())
}

// runPoller drives the shared poll loop. Within one attempt the selectors
// run in declaration order and the first non-empty post-filter result wins;
// for deadline policies the elapsed-time check runs per selector, right
// after its filters, so a slow early selector can consume the whole budget
// before a later one is tried. That early-selector priority is load-bearing
// for callers and must not be "fixed" here.
func (q *Query) runPoller(ctx context.Context, plan pollPlan) ([]Element, error) {
	if len(q.selectors) == 0 {
		return nil, noMatch(q.selectors)
	}

	tries := 0
	start := time.Now()
	for {
		tries++

		for _, sel := range q.selectors {
			elements, err := sel.evaluate(ctx, q.source)
			if err != nil {
				return nil, err
			}
			if len(elements) > 0 {
				q.logger.Debug("query matched",
					zap.Stringer("by", sel.By()),
					zap.Int("attempt", tries),
					zap.Int("count", len(elements)))
				return elements, nil
			}

			if plan.hasTimeout && time.Since(start) >= plan.timeout && tries >= plan.minTries {
				return nil, noMatch(q.selectors)
			}
		}

		if !plan.hasTimeout && tries >= plan.minTries {
			return nil, noMatch(q.selectors)
		}

		if err := plan.pause(ctx, start, tries); err != nil {
			return nil, err
		}
	}
}
