package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"prop-strategy-builder/internal/strategyfile"
)

func generateCmd() *cobra.Command {
	var (
		globs  []string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "generate [strategy-file...]",
		Short: "Generate EA projects from strategy files (.json, .yaml)",
		Example: `  builder generate strategies/rsi.yaml
  builder generate --glob "strategies/**/*.yaml" --firm FundedNext
  builder generate rsi.json --stdout > RSI.mq5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := setup(ctx)
			if err != nil {
				return err
			}

			paths := append([]string(nil), args...)
			for _, g := range globs {
				found, err := strategyfile.Discover(".", g)
				if err != nil {
					return err
				}
				paths = append(paths, found...)
			}
			if len(paths) == 0 {
				return errors.New("no strategy files given (pass paths or --glob)")
			}

			var failed int
			exp := a.exporter("")
			for _, path := range paths {
				saved, err := strategyfile.Load(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}
				preset := a.resolvePreset(ctx, saved)

				if stdout {
					reportIssues(ctx, saved.Strategy, preset)
					art, err := a.generator.Generate(ctx, saved.Strategy, preset)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
						failed++
						continue
					}
					fmt.Fprint(cmd.OutOrStdout(), art.Source)
					continue
				}

				files, err := a.build(ctx, saved.Strategy, preset, exp)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d strategies failed", failed, len(paths))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&globs, "glob", "g", nil, "Doublestar pattern of strategy files, e.g. \"strategies/**/*.yaml\"")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the EA source instead of exporting a project folder")
	return cmd
}
