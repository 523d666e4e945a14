// pkg/query/selector.go
package query

import (
	"context"
	"errors"
)

// Selector couples one lookup criterion with an ordered filter chain and an
// optional single-result lookup hint.
type Selector struct {
	by      By
	filters []Filter

	// single instructs the lookup to fetch at most one raw match. This can
	// be slightly faster, but filters then only ever see that single
	// candidate, so it must not be combined with filters that need the full
	// match set.
	single bool
}

// NewSelector returns a selector for the given criterion with no filters.
func NewSelector(by By) *Selector {
	return &Selector{by: by}
}

// By returns the selector's criterion.
func (s *Selector) By() By { return s.by }

// AddFilter appends f to the selector's filter chain.
func (s *Selector) AddFilter(f Filter) {
	s.filters = append(s.filters, f)
}

// SetSingle switches the selector to single-result lookups.
func (s *Selector) SetSingle() {
	s.single = true
}

// evaluate performs the raw lookup and runs the filter chain. A "no such
// element" outcome from the source maps to an empty slice; any other lookup
// error propagates and aborts the whole poll.
func (s *Selector) evaluate(ctx context.Context, src Source) ([]Element, error) {
	var (
		elements []Element
		err      error
	)
	if s.single {
		var el Element
		el, err = src.FindElement(ctx, s.by)
		if err == nil {
			elements = []Element{el}
		}
	} else {
		elements, err = src.FindElements(ctx, s.by)
	}
	if err != nil {
		if errors.Is(err, ErrNoSuchElement) {
			return nil, nil
		}
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return s.runFilters(ctx, elements), nil
}

// runFilters applies the chain in declared order. Each filter consumes the
// current candidate slice and produces a possibly smaller one; the chain
// stops the moment the slice becomes empty. A filter error rejects that
// candidate only.
func (s *Selector) runFilters(ctx context.Context, elements []Element) []Element {
	for _, f := range s.filters {
		kept := elements[:0]
		for _, el := range elements {
			ok, err := f.Test(ctx, el)
			if err != nil {
				continue
			}
			if ok {
				kept = append(kept, el)
			}
		}
		elements = kept
		if len(elements) == 0 {
			break
		}
	}
	return elements
}
