// pkg/query/mocks_test.go
package query

import (
	"context"
	"fmt"
	"sync"
)

// fakeElement implements Element with static state and per-accessor error
// injection. Tests mutate the public fields directly.
type fakeElement struct {
	mu sync.Mutex

	text      string
	tag       string
	attrs     map[string]string
	props     map[string]string
	css       map[string]string
	enabled   bool
	selected  bool
	displayed bool
	present   bool

	// err, when set, is returned by every accessor.
	err error

	// calls counts accessor invocations by name, e.g. "text", "enabled".
	calls map[string]int
}

func newFakeElement() *fakeElement {
	return &fakeElement{
		tag:       "div",
		attrs:     map[string]string{},
		props:     map[string]string{},
		css:       map[string]string{},
		enabled:   true,
		displayed: true,
		present:   true,
		calls:     map[string]int{},
	}
}

func (f *fakeElement) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeElement) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeElement) Text(ctx context.Context) (string, error) {
	f.record("text")
	return f.text, f.err
}

func (f *fakeElement) TagName(ctx context.Context) (string, error) {
	f.record("tag")
	return f.tag, f.err
}

func (f *fakeElement) Attribute(ctx context.Context, name string) (string, error) {
	f.record("attribute")
	return f.attrs[name], f.err
}

func (f *fakeElement) Property(ctx context.Context, name string) (string, error) {
	f.record("property")
	return f.props[name], f.err
}

func (f *fakeElement) CSSValue(ctx context.Context, name string) (string, error) {
	f.record("css")
	return f.css[name], f.err
}

func (f *fakeElement) Enabled(ctx context.Context) (bool, error) {
	f.record("enabled")
	return f.enabled, f.err
}

func (f *fakeElement) Selected(ctx context.Context) (bool, error) {
	f.record("selected")
	return f.selected, f.err
}

func (f *fakeElement) Displayed(ctx context.Context) (bool, error) {
	f.record("displayed")
	return f.displayed, f.err
}

func (f *fakeElement) Clickable(ctx context.Context) (bool, error) {
	f.record("clickable")
	if f.err != nil {
		return false, f.err
	}
	return f.displayed && f.enabled, nil
}

func (f *fakeElement) Present(ctx context.Context) (bool, error) {
	f.record("present")
	return f.present, f.err
}

// fakeSource implements Source with a scripted response sequence per
// criterion. Each lookup consumes the next entry of the criterion's script;
// once the script is exhausted the last entry repeats.
type fakeSource struct {
	mu sync.Mutex

	// scripts maps By.String() to the ordered responses for that criterion.
	scripts map[string][]sourceResponse

	// lookups counts FindElements/FindElement calls by criterion.
	lookups map[string]int

	total int
}

type sourceResponse struct {
	elements []Element
	err      error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		scripts: map[string][]sourceResponse{},
		lookups: map[string]int{},
	}
}

// on scripts the responses for a criterion, in call order.
func (f *fakeSource) on(by By, responses ...sourceResponse) {
	f.scripts[by.String()] = responses
}

func (f *fakeSource) next(by By) sourceResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := by.String()
	n := f.lookups[key]
	f.lookups[key]++
	f.total++

	script := f.scripts[key]
	if len(script) == 0 {
		return sourceResponse{}
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n]
}

func (f *fakeSource) lookupCount(by By) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups[by.String()]
}

func (f *fakeSource) totalLookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

func (f *fakeSource) FindElements(ctx context.Context, by By) ([]Element, error) {
	r := f.next(by)
	return r.elements, r.err
}

func (f *fakeSource) FindElement(ctx context.Context, by By) (Element, error) {
	r := f.next(by)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.elements) == 0 {
		return nil, fmt.Errorf("%s: %w", by, ErrNoSuchElement)
	}
	return r.elements[0], nil
}

// respond builds a successful response with the given elements.
func respond(elements ...Element) sourceResponse {
	return sourceResponse{elements: elements}
}

// respondErr builds a failing response.
func respondErr(err error) sourceResponse {
	return sourceResponse{err: err}
}

// countingFilter returns a filter that records how often it ran and keeps
// or rejects every candidate.
func countingFilter(name string, keep bool, counter *int) Filter {
	return Filter{
		Name: name,
		Test: func(ctx context.Context, el Element) (bool, error) {
			*counter++
			return keep, nil
		},
	}
}
