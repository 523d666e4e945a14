// pkg/query/interfaces.go
package query

import "context"

// Element is an opaque handle to a DOM element owned by the remote session.
// All accessors issue remote calls and therefore take a context and return
// an error alongside the value.
//
// The id, class and value accessors of the remote protocol are deliberately
// not part of this interface; the built-in filters derive them through
// Attribute and Property, which keeps the transport surface minimal.
type Element interface {
	// Text returns the rendered (visible) text of the element.
	Text(ctx context.Context) (string, error)

	// TagName returns the lower-cased tag name.
	TagName(ctx context.Context) (string, error)

	// Attribute returns the value of the named attribute. An absent
	// attribute yields an empty string with a nil error.
	Attribute(ctx context.Context, name string) (string, error)

	// Property returns the named DOM property, stringified.
	Property(ctx context.Context, name string) (string, error)

	// CSSValue returns the computed value of the named CSS property.
	CSSValue(ctx context.Context, name string) (string, error)

	// Element state predicates.
	Enabled(ctx context.Context) (bool, error)
	Selected(ctx context.Context) (bool, error)
	Displayed(ctx context.Context) (bool, error)
	Clickable(ctx context.Context) (bool, error)

	// Present reports whether the handle still resolves to a live node in
	// the current document. A detached or replaced node is not present.
	Present(ctx context.Context) (bool, error)
}

// Source issues element lookups against the remote session. It is
// implemented by both the session root and by individual elements (scoped
// lookups), so a Query behaves identically over either.
type Source interface {
	// FindElements returns every element matching the criterion. Zero
	// matches is not an error; implementations return an empty slice.
	FindElements(ctx context.Context, by By) ([]Element, error)

	// FindElement returns the first element matching the criterion, or an
	// error satisfying errors.Is(err, ErrNoSuchElement) when there is none.
	FindElement(ctx context.Context, by By) (Element, error)
}
