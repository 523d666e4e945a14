// pkg/browser/session.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/probe/internal/config"
	"github.com/xkilldash9x/probe/pkg/query"
)

// executor is the slice of Session that element handles depend on. Tests
// substitute a fake to exercise element behaviour without a browser.
type executor interface {
	// run executes chromedp actions against the session's tab, honoring
	// cancellation of the caller's context.
	run(ctx context.Context, actions ...chromedp.Action) error
	// callOnNode invokes a JS function with the node bound as `this` and
	// unmarshals the by-value result into out (which may be nil).
	callOnNode(ctx context.Context, id cdp.BackendNodeID, decl string, out any) error
	// nodePresent reports whether the node still resolves in the DOM.
	nodePresent(ctx context.Context, id cdp.BackendNodeID) (bool, error)

	defaultPolicy() query.Policy
	log() *zap.Logger
}

// Session owns a browser process and a single tab, and is the entry point
// for queries and waits against the page loaded in that tab.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig
	policy query.Policy

	// allocCtx manages the browser process; tabCtx is the tab derived
	// from it. Both are cancelled on Close.
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

var _ query.Source = (*Session)(nil)

// NewSession launches a browser, opens a tab and verifies it responds.
func NewSession(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*Session, error) {
	policy, err := cfg.Query.Policy()
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg.Browser,
		policy: policy,
	}
	s.logger = logger.Named("browser_session").With(zap.String("session_id", s.id))

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, buildAllocatorOptions(cfg.Browser)...)
	s.tabCtx, s.tabCancel = chromedp.NewContext(s.allocCtx)

	// Confirm the browser started and the tab is responsive before handing
	// the session out.
	probeCtx, cancel := context.WithTimeout(s.tabCtx, cfg.Browser.StartupTimeout)
	defer cancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	s.logger.Info("Browser session started")
	return s, nil
}

// buildAllocatorOptions assembles the browser launch flags, starting from
// chromedp's defaults and layering configuration on top.
func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", cfg.IgnoreTLSErrors),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	// Custom flags from configuration, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Flags required when running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}

	return opts
}

// Close terminates the tab and the browser process.
func (s *Session) Close() {
	if s.tabCancel != nil {
		s.tabCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.logger.Info("Browser session closed")
}

// ID returns the session identifier used in log entries.
func (s *Session) ID() string { return s.id }

// Navigate loads the given URL and waits for the page load to settle,
// bounded by the configured navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	s.logger.Debug("Navigating", zap.String("url", url))
	if err := s.run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Query starts a fluent element query rooted at the document, seeded with
// the session's default retry policy.
func (s *Session) Query(by query.By) *query.Query {
	return query.New(s, s.policy, by).WithLogger(s.logger)
}

// WaitFor starts a fluent wait on a previously located element, seeded with
// the session's default retry policy. The message is carried into any
// timeout error.
func (s *Session) WaitFor(el query.Element, message string) *query.Waiter {
	return query.NewWaiter(el, s.policy, message).WithLogger(s.logger)
}

// -- query.Source --

// FindElements returns all elements in the document matching the criterion.
// A zero-match lookup returns an empty slice and no error.
func (s *Session) FindElements(ctx context.Context, by query.By) ([]query.Element, error) {
	return findElements(ctx, s, by, nil)
}

// FindElement returns the first document element matching the criterion, or
// an error wrapping query.ErrNoSuchElement when there is none.
func (s *Session) FindElement(ctx context.Context, by query.By) (query.Element, error) {
	return findElement(ctx, s, by, nil)
}

// -- executor --

// run executes actions on the tab. The caller's context only gates the
// call: its cancellation or deadline stops the work, but no timeout is
// imposed beyond what the caller carries.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *Session) callOnNode(ctx context.Context, id cdp.BackendNodeID, decl string, out any) error {
	return s.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(id).Do(cctx)
		if err != nil {
			return fmt.Errorf("resolving node %d: %w", id, err)
		}
		defer releaseObject(cctx, obj.ObjectID)

		res, exc, err := cdpruntime.CallFunctionOn(decl).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(cctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return unmarshalValue([]byte(res.Value), out)
	}))
}

func (s *Session) nodePresent(ctx context.Context, id cdp.BackendNodeID) (bool, error) {
	var present bool
	err := s.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(id).Do(cctx)
		if err != nil {
			// DevTools reports a detached or unknown node as an error;
			// that is the "absent" answer, not a failure.
			if isNoSuchNode(err) {
				present = false
				return nil
			}
			return err
		}
		releaseObject(cctx, obj.ObjectID)
		present = true
		return nil
	}))
	return present, err
}

func (s *Session) defaultPolicy() query.Policy { return s.policy }

func (s *Session) log() *zap.Logger { return s.logger }

func releaseObject(ctx context.Context, id cdpruntime.RemoteObjectID) {
	if id != "" {
		_ = cdpruntime.ReleaseObject(id).Do(ctx)
	}
}

func isNoSuchNode(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no node with given id") ||
		strings.Contains(msg, "could not find node") ||
		strings.Contains(msg, "node with given id does not belong")
}
