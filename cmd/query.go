// -- cmd/query.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/probe/pkg/browser"
	"github.com/xkilldash9x/probe/pkg/query"
)

// newQueryCmd creates the `query` command: load a page, locate matching
// elements and print them.
func newQueryCmd() *cobra.Command {
	var (
		strategy string
		all      bool
		exists   bool
		text     string
		attrs    []string
		visible  bool
		enabled  bool
	)

	queryCmd := &cobra.Command{
		Use:   "query <url> <selector>",
		Short: "Locates elements on a page and prints them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			url, selector := args[0], args[1]

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

			q := session.Query(by).WithPolicy(policy)
			if text != "" {
				q = q.MatchingText(query.Contains(text))
			}
			for _, pair := range attrs {
				name, value, err := parsePair(pair)
				if err != nil {
					return err
				}
				q = q.WithAttribute(name, query.Exact(value))
			}
			if visible {
				q = q.AndDisplayed()
			}
			if enabled {
				q = q.AndEnabled()
			}

			switch {
			case exists:
				found, err := q.Exists(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), found)
				if !found {
					return fmt.Errorf("no element matched %s", by)
				}
				return nil
			case all:
				elements, err := q.All(ctx)
				if err != nil {
					return err
				}
				logger.Debug("Query finished", zap.Int("matches", len(elements)))
				for _, el := range elements {
					if err := printElement(cmd, el); err != nil {
						return err
					}
				}
				return nil
			default:
				el, err := q.First(ctx)
				if err != nil {
					return err
				}
				return printElement(cmd, el)
			}
		},
	}

	queryCmd.Flags().StringVar(&strategy, "by", "css", "lookup strategy: css, xpath, id, name, tag or class")
	queryCmd.Flags().BoolVar(&all, "all", false, "print every match instead of the first")
	queryCmd.Flags().BoolVar(&exists, "exists", false, "only check for presence, without waiting")
	queryCmd.Flags().StringVar(&text, "text", "", "keep only elements whose text contains this value")
	queryCmd.Flags().StringArrayVar(&attrs, "attr", nil, "keep only elements with this name=value attribute (repeatable)")
	queryCmd.Flags().BoolVar(&visible, "visible", false, "keep only displayed elements")
	queryCmd.Flags().BoolVar(&enabled, "enabled", false, "keep only enabled elements")

	return queryCmd
}

func printElement(cmd *cobra.Command, el query.Element) error {
	ctx := cmd.Context()

	tag, err := el.TagName(ctx)
	if err != nil {
		return err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "<%s> %s\n", tag, text)
	return nil
}

func init() {
	rootCmd.AddCommand(newQueryCmd())
}
