package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"prop-strategy-builder/internal/library"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/presets"
	"prop-strategy-builder/internal/strategyfile"
)

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Browse and export the preloaded strategies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List preloaded strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tDIFFICULTY\tDESCRIPTION")
			for _, info := range library.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.Category, info.Difficulty, info.Description)
			}
			return tw.Flush()
		},
	})

	var save string
	exportCmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Generate and export a preloaded strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			info, ok := library.ByName(args[0])
			if !ok {
				return fmt.Errorf("unknown library strategy %q (see 'builder library list')", args[0])
			}
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			preset := a.resolvePreset(ctx, nil)

			if save != "" {
				if filepath.Ext(save) == "" {
					save = filepath.Join(save, strategyfile.DefaultFileName(info.Name, ".json"))
				}
				cfg := strategyfile.Configuration{Strategy: info.Strategy, PropFirmPreset: &preset, SelectedPropFirmName: preset.FirmName}
				if err := strategyfile.Save(save, cfg, time.Now()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), save)
			}

			files, err := a.build(ctx, info.Strategy, preset, a.exporter(""))
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	exportCmd.Flags().StringVar(&save, "save", "", "Also save the strategy configuration to this file or directory")
	cmd.AddCommand(exportCmd)

	return cmd
}

func presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Show prop firm presets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List prop firm presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIRM\tDAILY DD %\tMAX DD %\tMAX TRADES\tMAGIC")
			for _, name := range presets.Available() {
				p, _ := presets.Get(name)
				fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%d\t%d\n", p.FirmName, p.DailyDrawdownPercent, p.MaxDrawdownPercent, p.MaxOpenTrades, p.MagicNumber)
			}
			return tw.Flush()
		},
	})

	var accountSize float64
	showCmd := &cobra.Command{
		Use:   "show <firm>",
		Short: "Show a firm's rules and recommended risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := presets.Get(args[0]); !ok {
				return fmt.Errorf("unknown prop firm %q (available: %v)", args[0], presets.Available())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, presets.Details(args[0]))
			if accountSize > 0 {
				r := presets.RecommendedRisk(accountSize)
				fmt.Fprintf(out, "\nRecommended for a %.0f account: risk %.2f%% per trade, SL %d pips, TP %d pips\n",
					accountSize, r.RiskPercentPerTrade, r.StopLossPips, r.TakeProfitPips)
			}
			return nil
		},
	}
	showCmd.Flags().Float64Var(&accountSize, "account-size", 0, "Account size for the risk recommendation")
	cmd.AddCommand(showCmd)

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <strategy-file>...",
		Short: "Check strategies against their prop firm's rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := setup(ctx)
			if err != nil {
				return err
			}

			var withErrors int
			out := cmd.OutOrStdout()
			for _, path := range args {
				saved, err := strategyfile.Load(path)
				if err != nil {
					return err
				}
				preset := a.resolvePreset(ctx, saved)
				issues := reportIssues(ctx, saved.Strategy, preset)
				if len(issues) == 0 {
					fmt.Fprintf(out, "%s: OK for %s\n", path, preset.FirmName)
					continue
				}
				for _, is := range issues {
					fmt.Fprintf(out, "%s: %s\n", path, is)
				}
				if issues.HasErrors() {
					logger.Error(ctx, "Strategy file has errors", "file", path, "firm", preset.FirmName)
					withErrors++
				}
			}
			if withErrors > 0 {
				return fmt.Errorf("%d strategies have errors", withErrors)
			}
			return nil
		},
	}
}
