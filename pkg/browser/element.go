// pkg/browser/element.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/cdp"

	"github.com/xkilldash9x/probe/pkg/query"
)

// Element is a handle to a DOM node located by a query. It remains valid
// while the node stays attached to the document; a detached node surfaces
// through Present and through errors from the other accessors.
type Element struct {
	exec executor
	node *cdp.Node
	by   query.By
}

var (
	_ query.Element = (*Element)(nil)
	_ query.Source  = (*Element)(nil)
)

func newElement(exec executor, node *cdp.Node, by query.By) *Element {
	return &Element{exec: exec, node: node, by: by}
}

// By returns the criterion that located this element.
func (e *Element) By() query.By { return e.by }

// Node exposes the underlying DOM node for callers that need to compose
// their own chromedp actions against it.
func (e *Element) Node() *cdp.Node { return e.node }

// Query starts a fluent query scoped to this element's subtree, seeded
// with the session's default retry policy.
func (e *Element) Query(by query.By) *query.Query {
	return query.New(e, e.exec.defaultPolicy(), by).WithLogger(e.exec.log())
}

// Wait starts a fluent wait on this element, seeded with the session's
// default retry policy. The message is carried into any timeout error.
func (e *Element) Wait(message string) *query.Waiter {
	return query.NewWaiter(e, e.exec.defaultPolicy(), message).WithLogger(e.exec.log())
}

// -- query.Source (element-scoped lookups) --

// FindElements returns the elements under this element matching the
// criterion. A zero-match lookup returns an empty slice and no error.
func (e *Element) FindElements(ctx context.Context, by query.By) ([]query.Element, error) {
	return findElements(ctx, e.exec, by, e.node)
}

// FindElement returns the first element under this element matching the
// criterion, or an error wrapping query.ErrNoSuchElement.
func (e *Element) FindElement(ctx context.Context, by query.By) (query.Element, error) {
	return findElement(ctx, e.exec, by, e.node)
}

// -- query.Element accessors --

// Text returns the rendered text of the element.
func (e *Element) Text(ctx context.Context) (string, error) {
	var s string
	err := e.call(ctx, `function() {
		return this.innerText !== undefined ? this.innerText : this.textContent;
	}`, &s)
	return s, err
}

// TagName returns the element's tag name, lowercased.
func (e *Element) TagName(ctx context.Context) (string, error) {
	var s string
	err := e.call(ctx, `function() { return this.nodeName.toLowerCase(); }`, &s)
	return s, err
}

// Attribute returns the named attribute's value. An absent attribute
// yields the empty string, not an error.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	var s string
	err := e.call(ctx, fmt.Sprintf(`function() {
		const v = this.getAttribute(%s);
		return v === null ? "" : v;
	}`, jsString(name)), &s)
	return s, err
}

// Property returns the named DOM property, stringified. Absent properties
// yield the empty string.
func (e *Element) Property(ctx context.Context, name string) (string, error) {
	var s string
	err := e.call(ctx, fmt.Sprintf(`function() {
		const v = this[%s];
		return (v === null || v === undefined) ? "" : String(v);
	}`, jsString(name)), &s)
	return s, err
}

// CSSValue returns the computed value of the named CSS property.
func (e *Element) CSSValue(ctx context.Context, name string) (string, error) {
	var s string
	err := e.call(ctx, fmt.Sprintf(`function() {
		return window.getComputedStyle(this).getPropertyValue(%s);
	}`, jsString(name)), &s)
	return s, err
}

// Enabled reports whether the element accepts interaction, i.e. it does
// not carry the disabled state.
func (e *Element) Enabled(ctx context.Context) (bool, error) {
	var b bool
	err := e.call(ctx, `function() { return !this.disabled; }`, &b)
	return b, err
}

// Selected reports whether a checkbox or radio is checked, or an option
// is selected.
func (e *Element) Selected(ctx context.Context) (bool, error) {
	var b bool
	err := e.call(ctx, `function() {
		return !!(this.checked !== undefined ? this.checked : this.selected);
	}`, &b)
	return b, err
}

// Displayed reports whether the element takes up layout space and is not
// hidden via CSS.
func (e *Element) Displayed(ctx context.Context) (bool, error) {
	var b bool
	err := e.call(ctx, `function() {
		const rect = this.getBoundingClientRect();
		if (rect.width <= 0 || rect.height <= 0) { return false; }
		const style = window.getComputedStyle(this);
		return style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
	}`, &b)
	return b, err
}

// Clickable reports whether the element is both displayed and enabled.
func (e *Element) Clickable(ctx context.Context) (bool, error) {
	displayed, err := e.Displayed(ctx)
	if err != nil || !displayed {
		return false, err
	}
	return e.Enabled(ctx)
}

// Present reports whether the element is still attached to the document.
func (e *Element) Present(ctx context.Context) (bool, error) {
	return e.exec.nodePresent(ctx, e.node.BackendNodeID)
}

func (e *Element) call(ctx context.Context, decl string, out any) error {
	return e.exec.callOnNode(ctx, e.node.BackendNodeID, decl, out)
}

// jsString renders s as a JS string literal safe to splice into a function
// declaration.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
