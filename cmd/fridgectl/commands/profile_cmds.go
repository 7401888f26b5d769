package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/session"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/usercache"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	var refresh bool
	var output string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputYAML && output != outputJSON {
				return fmt.Errorf("invalid --output %q (must be 'yaml' or 'json')", output)
			}

			if _, err := opts.app.Sessions.RequireSession(cmd.Context()); err != nil {
				if errors.Is(err, session.ErrNoSession) {
					return errNotSignedIn
				}
				return err
			}

			var p *models.UserProfile
			if refresh {
				res := opts.app.Facade.RefreshUser(cmd.Context())
				if res.Status == usercache.RefreshStale {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: refresh failed, showing cached profile: %v\n", res.Err)
				} else if res.Err != nil {
					return res.Err
				}
				p = res.Profile
			} else {
				var err error
				if p, err = opts.app.Facade.CurrentUser(cmd.Context()); err != nil {
					return err
				}
			}
			if p == nil {
				return errNotSignedIn
			}
			return writeProfile(cmd.OutOrStdout(), p, output)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the profile even when one is cached")
	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "Output format: yaml or json")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the profile periodically and print every change",
		Long:  "Refresh the profile every --interval and print each update delivered to subscribers until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, opts.app)
				defer stop()
			}

			sub := opts.app.Facade.Subscribe(func(p *models.UserProfile) {
				printUpdate(out, p)
			})
			defer sub.Unsubscribe()

			return watchLoop(ctx, opts.app, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Time between refreshes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

// watchLoop refreshes immediately and then on every tick until ctx is done
func watchLoop(ctx context.Context, app *App, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res := app.Facade.RefreshUser(ctx)
		if res.Err != nil && !errors.Is(res.Err, usercache.ErrSuperseded) {
			app.Logger.Warn("watch_refresh_failed",
				zap.String("status", res.Status.String()),
				zap.Error(res.Err),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func serveMetrics(addr string, app *App) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(app.Registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics_server_failed", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printUpdate(w io.Writer, p *models.UserProfile) {
	ts := time.Now().Format(time.TimeOnly)
	if p == nil {
		fmt.Fprintf(w, "%s signed out\n", ts)
		return
	}
	fridge := "no fridge"
	if p.Fridge != nil && p.Fridge.Name != "" {
		fridge = p.Fridge.Name
	} else if p.HasFridge() {
		fridge = *p.ActiveFridgeID
	}
	fmt.Fprintf(w, "%s %s (%s, %d mates)\n", ts, p.DisplayName(), fridge, len(p.FridgeMates))
}

func writeProfile(w io.Writer, p *models.UserProfile, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	// Route through JSON so the YAML keys match the API's field names
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
