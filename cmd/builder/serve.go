package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prop-strategy-builder/internal/bridge"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/metrics"
	"prop-strategy-builder/internal/newscal"
)

func bridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Telemetry bridge between a running EA and this machine",
	}

	var listen string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive heartbeat, status, positions and account reports from the EA",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = a.cfg.Bridge.Listen
			}

			srv := bridge.NewServer(a.cfg.StaleAfter())
			events, unsubscribe := srv.Subscribe(64)
			defer unsubscribe()
			go logEvents(ctx, events)

			if a.cfg.Metrics.Enabled {
				go serveMetrics(ctx, a.cfg.Metrics.Listen)
			}
			return srv.ListenAndServe(ctx, listen)
		},
	}
	serveCmd.Flags().StringVar(&listen, "listen", "", "Listen address (defaults to bridge.listen)")
	cmd.AddCommand(serveCmd)

	var addr string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the bridge's view of the EA as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := bridgeClient(ctx, addr).State(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	}

	commandCmd := &cobra.Command{
		Use:     "command <action> [key=value...]",
		Short:   "Queue a command for the EA's next heartbeat",
		Example: "  builder bridge command UPDATE_PARAMS RiskPercent=0.5 EnableTrading=true",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			id, err := bridgeClient(ctx, addr).QueueCommand(ctx, args[0], params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	for _, c := range []*cobra.Command{statusCmd, commandCmd} {
		c.Flags().StringVar(&addr, "addr", "", "Bridge address (defaults to bridge.listen)")
		cmd.AddCommand(c)
	}
	return cmd
}

func bridgeClient(ctx context.Context, addr string) *bridge.Client {
	if addr == "" {
		if cfg, err := loadConfig(ctx, configPath); err == nil {
			addr = cfg.Bridge.Listen
		}
	}
	return bridge.NewClient(addr, bridge.WithRetry(bridge.DefaultRetryConfig()))
}

// parseParams turns key=value pairs into command parameters. Values that
// parse as JSON (numbers, booleans) keep their type.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("bad parameter %q, want key=value", p)
		}
		var typed any
		if err := json.Unmarshal([]byte(v), &typed); err == nil {
			params[k] = typed
		} else {
			params[k] = v
		}
	}
	return params, nil
}

func logEvents(ctx context.Context, events <-chan bridge.Event) {
	for ev := range events {
		switch ev.Kind {
		case bridge.EventAccount:
			logger.Info(ctx, "Account update",
				"balance", ev.Account.Balance,
				"equity", ev.Account.Equity,
				"daily_drawdown", ev.Account.DailyDrawdown,
				"total_drawdown", ev.Account.TotalDrawdown,
			)
		case bridge.EventPositions:
			logger.Info(ctx, "Positions update", "count", len(ev.Positions))
		case bridge.EventStatus:
			logger.Info(ctx, "EA status", "ea", ev.Status.EAName, "trading_enabled", ev.Status.IsTradingEnabled, "error", ev.Status.ErrorMessage)
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "Metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorWithErr(ctx, "Metrics server failed", err, "addr", addr)
	}
}

func newsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Economic calendar for the EA's news blackout hook",
	}

	var out string
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Scrape the configured calendar and write the blackout CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			n := a.cfg.News
			if n.URL == "" {
				return errors.New("news.url is not configured")
			}

			scraper, err := newscal.NewScraper(newscal.Source{
				URL:              n.URL,
				RowSelector:      n.RowSelector,
				TimeSelector:     n.TimeSelector,
				CurrencySelector: n.CurrencySelector,
				ImpactSelector:   n.ImpactSelector,
				TitleSelector:    n.TitleSelector,
				TimeLayout:       n.TimeLayout,
			}, newscal.Filter{MinImpact: n.MinImpact, Currencies: n.Currencies}, 30*time.Second)
			if err != nil {
				return err
			}

			events, err := scraper.Fetch(ctx)
			if err != nil {
				return err
			}
			if err := newscal.WriteFile(out, events); err != nil {
				return err
			}

			window := time.Duration(n.BlackoutMinutes) * time.Minute
			active := newscal.Active(events, time.Now(), window)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d events, %d in blackout now\n", out, len(events), len(active))
			for _, ev := range active {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s %s\n", ev.Time.Format(newscal.BlackoutTimeLayout), ev.Currency, ev.Title)
			}
			return nil
		},
	}
	fetchCmd.Flags().StringVar(&out, "out", "news_blackout.csv", "Blackout CSV path (copy it to MQL5/Files)")
	cmd.AddCommand(fetchCmd)
	return cmd
}
