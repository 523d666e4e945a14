// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/probe/internal/config"
	"github.com/xkilldash9x/probe/internal/observability"
)

var (
	cfgFile string

	// cfg and logger are populated by the root PersistentPreRunE and shared
	// by every subcommand.
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "probe",
	Short:   "Probe locates and waits for elements on live web pages.",
	Version: Version,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		v, err := initializeViper()
		if err != nil {
			return err
		}
		if cfg, err = config.Load(v); err != nil {
			return err
		}
		if logger, err = observability.NewLogger(cfg.Logger); err != nil {
			return err
		}
		logger.Debug("Starting probe", zap.String("version", Version))
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		observability.Sync(logger)
	}
}

// Execute runs the root command. It is called once from main with a
// signal-aware context.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error("Command failed", zap.Error(err))
			observability.Sync(logger)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./probe.yaml)")
	rootCmd.PersistentFlags().Bool("headless", true, "run the browser headless")
	rootCmd.PersistentFlags().Duration("timeout", 0, "overall polling deadline (0 uses the configured default)")
	rootCmd.PersistentFlags().Duration("interval", 0, "polling interval (0 uses the configured default)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeViper builds the viper instance backing the config: file first,
// then PROBE_* environment variables, then the bound flags on top.
func initializeViper() (*viper.Viper, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("probe")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}

	if err := v.BindPFlag("browser.headless", rootCmd.PersistentFlags().Lookup("headless")); err != nil {
		return nil, err
	}
	return v, nil
}
