// -- cmd/helpers.go --
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/probe/internal/config"
	"github.com/xkilldash9x/probe/pkg/query"
)

// parseBy turns the --by flag and positional selector into a lookup
// criterion.
func parseBy(strategy, value string) (query.By, error) {
	switch strings.ToLower(strategy) {
	case "", "css":
		return query.ByCSS(value), nil
	case "xpath":
		return query.ByXPath(value), nil
	case "id":
		return query.ByID(value), nil
	case "name":
		return query.ByName(value), nil
	case "tag":
		return query.ByTag(value), nil
	case "class":
		return query.ByClassName(value), nil
	default:
		return query.By{}, fmt.Errorf("unknown lookup strategy %q", strategy)
	}
}

// effectivePolicy computes the retry policy for a command invocation: the
// configured default, with --timeout and --interval layered on top.
func effectivePolicy(cmd *cobra.Command, cfg *config.Config) (query.Policy, error) {
	qc := cfg.Query

	if cmd.Flags().Changed("timeout") {
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return query.Policy{}, err
		}
		qc.Poller = "deadline"
		qc.Timeout = timeout
	}
	if cmd.Flags().Changed("interval") {
		interval, err := cmd.Flags().GetDuration("interval")
		if err != nil {
			return query.Policy{}, err
		}
		qc.Interval = interval
	}

	return qc.Policy()
}

// parsePair splits a "name=value" flag argument.
func parsePair(s string) (name, value string, err error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", s)
	}
	return parts[0], parts[1], nil
}
