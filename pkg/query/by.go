// pkg/query/by.go
package query

import "fmt"

// Lookup strategies understood by the transport layer. The query engine
// treats a By as an opaque value; only its String form is used here, for
// error summaries.
const (
	StrategyCSS   = "css selector"
	StrategyXPath = "xpath"
	StrategyID    = "id"
	StrategyName  = "name"
	StrategyTag   = "tag name"
	StrategyClass = "class name"
)

// By is a single selection criterion: a lookup strategy plus its expression.
type By struct {
	Strategy string
	Value    string
}

func ByCSS(selector string) By  { return By{Strategy: StrategyCSS, Value: selector} }
func ByXPath(expr string) By    { return By{Strategy: StrategyXPath, Value: expr} }
func ByID(id string) By         { return By{Strategy: StrategyID, Value: id} }
func ByName(name string) By     { return By{Strategy: StrategyName, Value: name} }
func ByTag(tag string) By       { return By{Strategy: StrategyTag, Value: tag} }
func ByClassName(name string) By { return By{Strategy: StrategyClass, Value: name} }

// String renders the criterion for diagnostics, e.g. `css selector["#login"]`.
func (b By) String() string {
	return fmt.Sprintf("%s[%q]", b.Strategy, b.Value)
}
