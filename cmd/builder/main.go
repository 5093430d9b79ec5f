// builder compiles prop-firm strategies into MetaTrader 5 Expert Advisors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/presets"
	"prop-strategy-builder/internal/strategyfile"
	"prop-strategy-builder/internal/types"
)

var (
	version    = "1.0.0"
	configPath string
	firmName   string
	outDir     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "builder",
		Short: "Compile prop-firm trading strategies into MT5 Expert Advisors",
		Long: `builder turns a strategy description (indicator conditions, risk settings
and a prop firm's limits) into an MQL5 Expert Advisor, a .set parameter file
and an installation README.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeSystem()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&firmName, "firm", "f", "", "Prop firm preset (defaults to the strategy file's firm, then default_firm)")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to output_dir)")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(libraryCmd())
	rootCmd.AddCommand(presetsCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(bridgeCmd())
	rootCmd.AddCommand(newsCmd())
	rootCmd.AddCommand(watchCmd())

	err := rootCmd.Execute()
	if logger.IsTracingEnabled() {
		_ = logger.Shutdown(context.Background())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "builder version %s\n", version)
		},
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// setup loads the config and wires the app for a command.
func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, outDir), nil
}

// resolvePreset applies --firm, then the saved configuration, then default_firm.
func (a *app) resolvePreset(ctx context.Context, saved *strategyfile.Configuration) types.PropFirmPreset {
	if firmName != "" {
		p, ok := presets.Get(firmName)
		if !ok {
			logger.Warn(ctx, "Unknown prop firm, using FTMO", "firm", firmName)
		}
		return p
	}
	if saved != nil {
		return saved.Preset(a.cfg.DefaultFirm)
	}
	p, _ := presets.Get(a.cfg.DefaultFirm)
	return p
}
