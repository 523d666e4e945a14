// pkg/browser/mocks_test.go
package browser

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/probe/pkg/query"
)

// fakeExecutor stands in for a Session so element behaviour can be tested
// without a browser. Script results are keyed by a distinctive substring of
// the function declaration.
type fakeExecutor struct {
	mu sync.Mutex

	policy query.Policy

	// results maps a declaration substring to the value returned for it.
	results map[string]any
	// err, when set, is returned from every callOnNode invocation.
	err error

	present    bool
	presentErr error

	decls []string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		policy:  query.Once(),
		results: make(map[string]any),
		present: true,
	}
}

func (f *fakeExecutor) run(ctx context.Context, actions ...chromedp.Action) error {
	return ctx.Err()
}

func (f *fakeExecutor) callOnNode(ctx context.Context, id cdp.BackendNodeID, decl string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decls = append(f.decls, decl)

	if f.err != nil {
		return f.err
	}
	for key, v := range f.results {
		if strings.Contains(decl, key) {
			if out == nil {
				return nil
			}
			raw, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, out)
		}
	}
	// No scripted result: the zero value stands, as with an undefined
	// remote result.
	return nil
}

func (f *fakeExecutor) nodePresent(ctx context.Context, id cdp.BackendNodeID) (bool, error) {
	return f.present, f.presentErr
}

func (f *fakeExecutor) defaultPolicy() query.Policy { return f.policy }

func (f *fakeExecutor) log() *zap.Logger { return zap.NewNop() }

// callCount returns how many invoked declarations contained the substring.
func (f *fakeExecutor) callCount(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.decls {
		if strings.Contains(d, substr) {
			n++
		}
	}
	return n
}

func testElement(exec *fakeExecutor) *Element {
	node := &cdp.Node{NodeID: 1, BackendNodeID: 42, NodeName: "DIV"}
	return newElement(exec, node, query.ByCSS("div.card"))
}
