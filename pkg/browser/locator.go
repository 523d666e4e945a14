// pkg/browser/locator.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/probe/pkg/query"
)

// cssSelector translates a lookup criterion into a CSS selector, or reports
// that the criterion is XPath-based.
func cssSelector(by query.By) (string, bool) {
	switch by.Strategy {
	case query.StrategyCSS:
		return by.Value, true
	case query.StrategyID:
		return attributeSelector("id", by.Value), true
	case query.StrategyName:
		return attributeSelector("name", by.Value), true
	case query.StrategyTag:
		return by.Value, true
	case query.StrategyClass:
		return attributeSelector("class", by.Value, "~"), true
	default:
		return "", false
	}
}

// attributeSelector builds an [name="value"] selector, escaping the value.
// An optional operator ("~", "^", ...) is spliced before the equals sign.
func attributeSelector(name, value string, operator ...string) string {
	op := ""
	if len(operator) > 0 {
		op = operator[0]
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return fmt.Sprintf(`[%s%s="%s"]`, name, op, escaped)
}

// xpathExpression turns an XPath criterion into the absolute expression to
// search for. Relative expressions (leading ".") are anchored at the root
// node when one is given.
func xpathExpression(by query.By, root *cdp.Node) string {
	expr := by.Value
	if root != nil && strings.HasPrefix(expr, ".") {
		expr = root.FullXPath() + strings.TrimPrefix(expr, ".")
	}
	return expr
}

// findElements performs one DOM lookup, scoped to root when it is non-nil.
// Zero matches is a successful empty result.
func findElements(ctx context.Context, exec executor, by query.By, root *cdp.Node) ([]query.Element, error) {
	var nodes []*cdp.Node

	if sel, ok := cssSelector(by); ok {
		opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
		if root != nil {
			opts = append(opts, chromedp.FromNode(root))
		}
		if err := exec.run(ctx, chromedp.Nodes(sel, &nodes, opts...)); err != nil {
			return nil, fmt.Errorf("locating %s: %w", by, err)
		}
	} else if by.Strategy == query.StrategyXPath {
		expr := xpathExpression(by, root)
		if err := exec.run(ctx, chromedp.Nodes(expr, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
			return nil, fmt.Errorf("locating %s: %w", by, err)
		}
	} else {
		return nil, fmt.Errorf("unsupported lookup strategy %q", by.Strategy)
	}

	elements := make([]query.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, newElement(exec, n, by))
	}
	return elements, nil
}

// findElement returns the first match for the criterion, or an error
// wrapping query.ErrNoSuchElement when there is none.
func findElement(ctx context.Context, exec executor, by query.By, root *cdp.Node) (query.Element, error) {
	elements, err := findElements(ctx, exec, by, root)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%s: %w", by, query.ErrNoSuchElement)
	}
	return elements[0], nil
}

func unmarshalValue(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding remote value %s: %w", raw, err)
	}
	return nil
}
