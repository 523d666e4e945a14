// pkg/query/filter.go
package query

import (
	"context"
	"fmt"
)

// Filter is a named predicate over a single element. Filters may issue
// remote calls of their own, so evaluation takes a context and can fail.
//
// How a failure is treated depends on the engine: a Query filter chain
// rejects the candidate and keeps going, while a Waiter either propagates
// the error or treats the condition as not yet met, depending on its
// IgnoreErrors setting.
type Filter struct {
	// Name describes the filter in diagnostics and debug logs.
	Name string

	// Test evaluates the predicate against one element.
	Test func(ctx context.Context, el Element) (bool, error)
}

func (f Filter) String() string {
	if f.Name == "" {
		return "custom"
	}
	return f.Name
}

// NewFilter wraps a caller-supplied predicate function as a Filter.
func NewFilter(name string, test func(ctx context.Context, el Element) (bool, error)) Filter {
	return Filter{Name: name, Test: test}
}

// -- Built-in filters --
//
// Each built-in reads one remote accessor and applies a Matcher to the
// result. Errors from the accessor are returned raw; the engines decide
// what to do with them.

// TextIs matches elements whose rendered text satisfies m.
func TextIs(m Matcher) Filter {
	return Filter{
		Name: fmt.Sprintf("text %s", m),
		Test: func(ctx context.Context, el Element) (bool, error) {
			text, err := el.Text(ctx)
			if err != nil {
				return false, err
			}
			return m.MatchString(text), nil
		},
	}
}

// IDIs matches elements whose id attribute satisfies m.
func IDIs(m Matcher) Filter {
	return attributeFilter("id", m)
}

// ClassIs matches elements whose class attribute satisfies m.
func ClassIs(m Matcher) Filter {
	return attributeFilter("class", m)
}

// TagIs matches elements whose tag name satisfies m.
func TagIs(m Matcher) Filter {
	return Filter{
		Name: fmt.Sprintf("tag %s", m),
		Test: func(ctx context.Context, el Element) (bool, error) {
			tag, err := el.TagName(ctx)
			if err != nil {
				return false, err
			}
			return m.MatchString(tag), nil
		},
	}
}

// ValueIs matches elements whose value property satisfies m.
func ValueIs(m Matcher) Filter {
	return propertyFilter("value", m)
}

// AttributeIs matches elements whose named attribute satisfies m.
func AttributeIs(name string, m Matcher) Filter {
	return attributeFilter(name, m)
}

// AttributesAre matches elements satisfying every attribute pair.
func AttributesAre(pairs []AttributePair) Filter {
	return Filter{
		Name: fmt.Sprintf("attributes %v", pairs),
		Test: func(ctx context.Context, el Element) (bool, error) {
			for _, p := range pairs {
				val, err := el.Attribute(ctx, p.Name)
				if err != nil {
					return false, err
				}
				if !p.Match.MatchString(val) {
					return false, nil
				}
			}
			return true, nil
		},
	}
}

// PropertyIs matches elements whose named DOM property satisfies m.
func PropertyIs(name string, m Matcher) Filter {
	return propertyFilter(name, m)
}

// PropertiesAre matches elements satisfying every property pair.
func PropertiesAre(pairs []AttributePair) Filter {
	return Filter{
		Name: fmt.Sprintf("properties %v", pairs),
		Test: func(ctx context.Context, el Element) (bool, error) {
			for _, p := range pairs {
				val, err := el.Property(ctx, p.Name)
				if err != nil {
					return false, err
				}
				if !p.Match.MatchString(val) {
					return false, nil
				}
			}
			return true, nil
		},
	}
}

// CSSValueIs matches elements whose computed CSS property satisfies m.
func CSSValueIs(name string, m Matcher) Filter {
	return Filter{
		Name: fmt.Sprintf("css %s %s", name, m),
		Test: func(ctx context.Context, el Element) (bool, error) {
			val, err := el.CSSValue(ctx, name)
			if err != nil {
				return false, err
			}
			return m.MatchString(val), nil
		},
	}
}

// CSSValuesAre matches elements satisfying every CSS property pair.
func CSSValuesAre(pairs []AttributePair) Filter {
	return Filter{
		Name: fmt.Sprintf("css values %v", pairs),
		Test: func(ctx context.Context, el Element) (bool, error) {
			for _, p := range pairs {
				val, err := el.CSSValue(ctx, p.Name)
				if err != nil {
					return false, err
				}
				if !p.Match.MatchString(val) {
					return false, nil
				}
			}
			return true, nil
		},
	}
}

// IsEnabled matches enabled elements; IsNotEnabled the opposite.
func IsEnabled() Filter    { return stateFilter("enabled", Element.Enabled, true) }
func IsNotEnabled() Filter { return stateFilter("not enabled", Element.Enabled, false) }

// IsSelected matches selected elements; IsNotSelected the opposite.
func IsSelected() Filter    { return stateFilter("selected", Element.Selected, true) }
func IsNotSelected() Filter { return stateFilter("not selected", Element.Selected, false) }

// IsDisplayed matches visible elements; IsNotDisplayed the opposite.
func IsDisplayed() Filter    { return stateFilter("displayed", Element.Displayed, true) }
func IsNotDisplayed() Filter { return stateFilter("not displayed", Element.Displayed, false) }

// IsClickable matches elements that are both displayed and enabled.
func IsClickable() Filter    { return stateFilter("clickable", Element.Clickable, true) }
func IsNotClickable() Filter { return stateFilter("not clickable", Element.Clickable, false) }

// AttributePair names an attribute, property or CSS property together with
// the Matcher its value must satisfy.
type AttributePair struct {
	Name  string
	Match Matcher
}

func (p AttributePair) String() string { return fmt.Sprintf("%s %s", p.Name, p.Match) }

func attributeFilter(name string, m Matcher) Filter {
	return Filter{
		Name: fmt.Sprintf("attribute %s %s", name, m),
		Test: func(ctx context.Context, el Element) (bool, error) {
			val, err := el.Attribute(ctx, name)
			if err != nil {
				return false, err
			}
			return m.MatchString(val), nil
		},
	}
}

func propertyFilter(name string, m Matcher) Filter {
	return Filter{
		Name: fmt.Sprintf("property %s %s", name, m),
		Test: func(ctx context.Context, el Element) (bool, error) {
			val, err := el.Property(ctx, name)
			if err != nil {
				return false, err
			}
			return m.MatchString(val), nil
		},
	}
}

func stateFilter(name string, get func(Element, context.Context) (bool, error), want bool) Filter {
	return Filter{
		Name: name,
		Test: func(ctx context.Context, el Element) (bool, error) {
			state, err := get(el, ctx)
			if err != nil {
				return false, err
			}
			return state == want, nil
		},
	}
}
