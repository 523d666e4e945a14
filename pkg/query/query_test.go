// pkg/query/query_test.go
package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProtocol = errors.New("protocol error: connection reset")

func TestQueryFirstReturnsFirstMatch(t *testing.T) {
	el1 := newFakeElement()
	el2 := newFakeElement()
	src := newFakeSource()
	by := ByCSS("div.result")
	src.on(by, respond(el1, el2))

	got, err := New(src, Once(), by).First(context.Background())
	require.NoError(t, err)
	assert.Same(t, el1, got)
	assert.Equal(t, 1, src.lookupCount(by))
}

func TestQueryFirstNoMatchSummarizesSelectors(t *testing.T) {
	src := newFakeSource()

	_, err := New(src, Once(), ByID("login")).
		Or(ByXPath("//button")).
		First(context.Background())

	require.Error(t, err)
	var nm *NoMatchError
	require.ErrorAs(t, err, &nm)
	assert.ErrorIs(t, err, ErrNoSuchElement)
	assert.Contains(t, nm.Selectors, `id["login"]`)
	assert.Contains(t, nm.Selectors, `xpath["//button"]`)
}

func TestQueryEmptySelectorListFailsWithoutLookups(t *testing.T) {
	src := newFakeSource()
	q := New(src, Attempts(5, time.Millisecond), ByCSS("x"))
	q.selectors = nil

	_, err := q.First(context.Background())
	require.ErrorIs(t, err, ErrNoSuchElement)
	assert.Zero(t, src.totalLookups())
}

func TestQueryExists(t *testing.T) {
	t.Run("false on empty source without retrying", func(t *testing.T) {
		src := newFakeSource()
		by := ByCSS("p")

		// A generous policy must not make Exists poll or sleep.
		q := New(src, Deadline(time.Minute, time.Second), by)
		start := time.Now()
		ok, err := q.Exists(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, src.lookupCount(by))
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("true when any selector matches", func(t *testing.T) {
		src := newFakeSource()
		first, second := ByCSS("a"), ByCSS("b")
		src.on(second, respond(newFakeElement()))

		ok, err := New(src, Once(), first).Or(second).Exists(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("fatal errors still propagate", func(t *testing.T) {
		src := newFakeSource()
		by := ByCSS("broken(")
		src.on(by, respondErr(errProtocol))

		_, err := New(src, Once(), by).Exists(context.Background())
		assert.ErrorIs(t, err, errProtocol)
	})
}

func TestQueryAll(t *testing.T) {
	t.Run("returns the full winning set", func(t *testing.T) {
		el1, el2, el3 := newFakeElement(), newFakeElement(), newFakeElement()
		src := newFakeSource()
		by := ByTag("li")
		src.on(by, respond(el1, el2, el3))

		got, err := New(src, Once(), by).All(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("empty slice on exhaustion", func(t *testing.T) {
		src := newFakeSource()
		got, err := New(src, Attempts(2, time.Millisecond), ByTag("li")).All(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("all required fails on exhaustion", func(t *testing.T) {
		src := newFakeSource()
		_, err := New(src, Once(), ByTag("li")).AllRequired(context.Background())
		assert.ErrorIs(t, err, ErrNoSuchElement)
	})
}

func TestQueryRetriesUntilSourceYields(t *testing.T) {
	// The source yields nothing for three calls, then one element on the
	// fourth. Attempts(5) must stop on the fourth call with the element.
	el := newFakeElement()
	src := newFakeSource()
	by := ByCSS("div.late")
	src.on(by, respond(), respond(), respond(), respond(el))

	got, err := New(src, Attempts(5, 10*time.Millisecond), by).First(context.Background())
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 4, src.lookupCount(by))
}

func TestQueryAttemptsInvokesLookupExactly(t *testing.T) {
	src := newFakeSource()
	by := ByCSS("div.never")

	_, err := New(src, Attempts(3, time.Millisecond), by).First(context.Background())
	require.ErrorIs(t, err, ErrNoSuchElement)
	assert.Equal(t, 3, src.lookupCount(by))
}

func TestQueryDeadlineWallClockBounds(t *testing.T) {
	src := newFakeSource()
	by := ByCSS("div.never")
	timeout := 100 * time.Millisecond
	interval := 25 * time.Millisecond

	start := time.Now()
	_, err := New(src, Deadline(timeout, interval), by).First(context.Background())
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrNoSuchElement)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+interval)
}

func TestQueryDeadlineMinAttemptsLowerBounds(t *testing.T) {
	src := newFakeSource()
	by := ByCSS("div.never")

	// Short timeout, slow interval: the attempt floor dominates.
	start := time.Now()
	_, err := New(src, DeadlineMinAttempts(time.Millisecond, 10*time.Millisecond, 4), by).
		First(context.Background())
	require.ErrorIs(t, err, ErrNoSuchElement)
	assert.GreaterOrEqual(t, src.lookupCount(by), 4)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestQuerySelectorFallbackOrdering(t *testing.T) {
	// S1 never matches, S2 matches on the engine's second attempt. First
	// must return S2's element, and S1 is re-tried on every attempt up to
	// and including the winning one.
	el := newFakeElement()
	src := newFakeSource()
	s1, s2 := ByCSS("div.s1"), ByCSS("div.s2")
	src.on(s2, respond(), respond(el))

	got, err := New(src, Attempts(5, time.Millisecond), s1).Or(s2).First(context.Background())
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 2, src.lookupCount(s1))
	assert.Equal(t, 2, src.lookupCount(s2))
}

func TestQueryFirstSelectorWinsWithinAttempt(t *testing.T) {
	elA, elB := newFakeElement(), newFakeElement()
	src := newFakeSource()
	a, b := ByCSS("div.a"), ByCSS("div.b")
	src.on(a, respond(elA))
	src.on(b, respond(elB))

	got, err := New(src, Once(), a).Or(b).First(context.Background())
	require.NoError(t, err)
	assert.Same(t, elA, got)
	// The winning selector short-circuits the attempt.
	assert.Zero(t, src.lookupCount(b))
}

func TestQueryFilterChain(t *testing.T) {
	t.Run("short-circuits once the set is empty", func(t *testing.T) {
		el := newFakeElement()
		src := newFakeSource()
		by := ByCSS("div")
		src.on(by, respond(el))

		var ranA, ranB int
		_, err := New(src, Once(), by).
			WithFilter(countingFilter("reject all", false, &ranA)).
			WithFilter(countingFilter("never reached", true, &ranB)).
			First(context.Background())

		require.ErrorIs(t, err, ErrNoSuchElement)
		assert.Equal(t, 1, ranA)
		assert.Zero(t, ranB, "second filter must not run after the set became empty")
	})

	t.Run("filters narrow the set in declared order", func(t *testing.T) {
		match := newFakeElement()
		match.text = "Sign in"
		other := newFakeElement()
		other.text = "Register"
		src := newFakeSource()
		by := ByCSS("button")
		src.on(by, respond(other, match))

		got, err := New(src, Once(), by).
			MatchingText(Contains("Sign")).
			First(context.Background())
		require.NoError(t, err)
		assert.Same(t, match, got)
	})

	t.Run("a filter error rejects the candidate", func(t *testing.T) {
		broken := newFakeElement()
		broken.err = errProtocol
		healthy := newFakeElement()
		healthy.text = "ok"
		src := newFakeSource()
		by := ByCSS("span")
		src.on(by, respond(broken, healthy))

		got, err := New(src, Once(), by).MatchingText(Contains("ok")).First(context.Background())
		require.NoError(t, err)
		assert.Same(t, healthy, got)
	})
}

func TestQuerySingleUsesSingleLookup(t *testing.T) {
	el := newFakeElement()
	el.text = "only"
	src := newFakeSource()
	by := ByCSS("div.single")
	src.on(by, respond(el, newFakeElement(), newFakeElement()))

	got, err := New(src, Once(), by).Single().First(context.Background())
	require.NoError(t, err)
	// FindElement returns only the first scripted element.
	assert.Same(t, el, got)
}

func TestQueryFatalErrorAbortsImmediately(t *testing.T) {
	src := newFakeSource()
	by := ByCSS("div")
	src.on(by, respondErr(errProtocol))

	start := time.Now()
	_, err := New(src, Deadline(time.Minute, time.Second), by).First(context.Background())
	assert.ErrorIs(t, err, errProtocol)
	assert.Equal(t, 1, src.lookupCount(by), "fatal errors must not be retried")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestQueryStateFilters(t *testing.T) {
	enabled := newFakeElement()
	disabled := newFakeElement()
	disabled.enabled = false
	src := newFakeSource()
	by := ByCSS("input")
	src.on(by, respond(disabled, enabled))

	got, err := New(src, Once(), by).AndEnabled().First(context.Background())
	require.NoError(t, err)
	assert.Same(t, enabled, got)

	src2 := newFakeSource()
	src2.on(by, respond(disabled, enabled))
	got, err = New(src2, Once(), by).AndNotEnabled().First(context.Background())
	require.NoError(t, err)
	assert.Same(t, disabled, got)
}

func TestQueryAttributeAndPropertyFilters(t *testing.T) {
	target := newFakeElement()
	target.attrs["data-testid"] = "login-form"
	target.props["value"] = "hello"
	target.css["display"] = "block"
	decoy := newFakeElement()
	src := newFakeSource()
	by := ByCSS("form")
	src.on(by, respond(decoy, target))

	got, err := New(src, Once(), by).
		WithAttribute("data-testid", Exact("login-form")).
		WithValue(Prefix("he")).
		WithCSSValue("display", Exact("block")).
		First(context.Background())
	require.NoError(t, err)
	assert.Same(t, target, got)
}

func TestQueryContextCancellationStopsPolling(t *testing.T) {
	src := newFakeSource()
	by := ByCSS("div.never")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := New(src, Deadline(time.Minute, 50*time.Millisecond), by).First(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("query did not stop after context cancellation")
	}
}
