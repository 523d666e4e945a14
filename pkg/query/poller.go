// pkg/query/poller.go
package query

import (
	"context"
	"fmt"
	"time"
)

type policyKind int

const (
	policyOnce policyKind = iota
	policyDeadline
	policyAttempts
	policyDeadlineMinAttempts
)

// Policy describes how long a Query or Waiter keeps polling and at what
// cadence. The zero value is equivalent to Once.
type Policy struct {
	kind     policyKind
	timeout  time.Duration
	interval time.Duration
	minTries int
}

// Once performs exactly one attempt with no waiting.
func Once() Policy {
	return Policy{kind: policyOnce}
}

// Deadline keeps polling until timeout has elapsed since the first attempt,
// with interval as the minimum time between the start of consecutive
// attempts. An attempt that overruns its slot narrows or removes the gap
// before the next one; later intervals are never shortened to compensate.
func Deadline(timeout, interval time.Duration) Policy {
	return Policy{kind: policyDeadline, timeout: timeout, interval: interval}
}

// Attempts performs exactly count attempts, regardless of elapsed time,
// pacing them by interval.
func Attempts(count int, interval time.Duration) Policy {
	return Policy{kind: policyAttempts, interval: interval, minTries: count}
}

// DeadlineMinAttempts keeps polling until both the timeout has elapsed and
// at least minAttempts attempts have completed, whichever bound is reached
// last.
func DeadlineMinAttempts(timeout, interval time.Duration, minAttempts int) Policy {
	return Policy{
		kind:     policyDeadlineMinAttempts,
		timeout:  timeout,
		interval: interval,
		minTries: minAttempts,
	}
}

func (p Policy) String() string {
	switch p.kind {
	case policyDeadline:
		return fmt.Sprintf("deadline(%s, %s)", p.timeout, p.interval)
	case policyAttempts:
		return fmt.Sprintf("attempts(%d, %s)", p.minTries, p.interval)
	case policyDeadlineMinAttempts:
		return fmt.Sprintf("deadline(%s, %s, min %d)", p.timeout, p.interval, p.minTries)
	default:
		return "once"
	}
}

// pollPlan is the normalized form of a Policy consumed by the poll loops.
// Both the Query engine and the Waiter engine run off the same plan, so the
// timeout/attempt-count/interval interactions behave identically.
type pollPlan struct {
	hasTimeout  bool
	timeout     time.Duration
	hasInterval bool
	interval    time.Duration
	minTries    int
}

func (p Policy) plan() pollPlan {
	switch p.kind {
	case policyDeadline:
		return pollPlan{hasTimeout: true, timeout: p.timeout, hasInterval: true, interval: p.interval}
	case policyAttempts:
		return pollPlan{hasInterval: true, interval: p.interval, minTries: p.minTries}
	case policyDeadlineMinAttempts:
		return pollPlan{
			hasTimeout:  true,
			timeout:     p.timeout,
			hasInterval: true,
			interval:    p.interval,
			minTries:    p.minTries,
		}
	default:
		// A single attempt: no timeout, no interval, stop once tries >= 0.
		return pollPlan{}
	}
}

// exhausted reports whether the loop must stop after a failed attempt.
func (pl pollPlan) exhausted(start time.Time, tries int) bool {
	if pl.hasTimeout {
		return time.Since(start) >= pl.timeout && tries >= pl.minTries
	}
	return tries >= pl.minTries
}

// pause sleeps until the next attempt is due. The target instant for
// attempt n+1 is start + interval*n, so variable attempt latency does not
// accumulate drift; an attempt that ran past its slot proceeds immediately.
// Returns the context error if the caller's context ends during the sleep.
func (pl pollPlan) pause(ctx context.Context, start time.Time, tries int) error {
	if !pl.hasInterval {
		return ctx.Err()
	}

	minimumElapsed := pl.interval * time.Duration(tries)
	actualElapsed := time.Since(start)
	if actualElapsed >= minimumElapsed {
		return ctx.Err()
	}

	timer := time.NewTimer(minimumElapsed - actualElapsed)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
