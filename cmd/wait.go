// -- cmd/wait.go --
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/probe/pkg/browser"
	"github.com/xkilldash9x/probe/pkg/query"
)

// waitConditions maps --until names onto waiter terminals.
var waitConditions = map[string]func(ctx context.Context, w *query.Waiter) error{
	"displayed": func(ctx context.Context, w *query.Waiter) error { return w.Displayed(ctx) },
	"enabled":   func(ctx context.Context, w *query.Waiter) error { return w.Enabled(ctx) },
	"selected":  func(ctx context.Context, w *query.Waiter) error { return w.Selected(ctx) },
	"clickable": func(ctx context.Context, w *query.Waiter) error { return w.Clickable(ctx) },
	"stale":     func(ctx context.Context, w *query.Waiter) error { return w.Stale(ctx) },
}

func conditionNames() []string {
	names := make([]string, 0, len(waitConditions))
	for name := range waitConditions {
		names = append(names, name)
	}
	return names
}

// newWaitCmd creates the `wait` command: locate an element, then block
// until it reaches the requested state.
func newWaitCmd() *cobra.Command {
	var (
		strategy string
		until    string
		negate   bool
		strict   bool
	)

	waitCmd := &cobra.Command{
		Use:   "wait <url> <selector>",
		Short: "Waits until an element reaches the requested state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			url, selector := args[0], args[1]

			condition, ok := waitConditions[strings.ToLower(until)]
			if !ok {
				return fmt.Errorf("unknown condition %q (one of: %s)", until, strings.Join(conditionNames(), ", "))
			}
			by, err := parseBy(strategy, selector)
			if err != nil {
				return err
			}
			policy, err := effectivePolicy(cmd, cfg)
			if err != nil {
				return err
			}

			session, err := browser.NewSession(ctx, logger, cfg)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Navigate(ctx, url); err != nil {
				return err
			}

			el, err := session.Query(by).WithPolicy(policy).First(ctx)
			if err != nil {
				return err
			}

			message := fmt.Sprintf("waiting for %s to become %s", by, until)
			w := session.WaitFor(el, message).WithPolicy(policy)
			if negate {
				w = w.Not()
			}
			if strict {
				w = w.IgnoreErrors(false)
			}
			if err := condition(ctx, w); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	waitCmd.Flags().StringVar(&strategy, "by", "css", "lookup strategy: css, xpath, id, name, tag or class")
	waitCmd.Flags().StringVar(&until, "until", "displayed", "condition to wait for: "+strings.Join(conditionNames(), ", "))
	waitCmd.Flags().BoolVar(&negate, "not", false, "wait for the condition to become false instead")
	waitCmd.Flags().BoolVar(&strict, "strict", false, "treat errors while checking the condition as fatal")

	return waitCmd
}

func init() {
	rootCmd.AddCommand(newWaitCmd())
}
