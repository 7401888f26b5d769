package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/services/oidc"
	"github.com/spf13/cobra"
)

type endpoint struct {
	name string
	url  string
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the configured services are reachable",
		Long:  "Probe the API, the auth service health endpoint and, when configured, the JWKS endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.app.Config
			out := cmd.OutOrStdout()
			client := &http.Client{Timeout: timeout}

			probes := []endpoint{
				{name: "API", url: cfg.APIBaseURL},
				{name: "Auth service", url: cfg.AuthURL + "/health"},
			}
			if cfg.JWKSURL != "" {
				probes = append(probes, endpoint{name: "JWKS", url: cfg.JWKSURL})
			}

			failures := 0
			for _, p := range probes {
				fmt.Fprintf(out, "Checking %s: %s\n", p.name, p.url)
				if err := probe(cmd.Context(), client, p.url); err != nil {
					failures++
					fmt.Fprintf(out, "  FAIL %v\n", err)
					continue
				}
				fmt.Fprintln(out, "  ok")
			}

			if cfg.JWKSURL != "" {
				if _, err := oidc.NewJWKSManager(time.Minute, client).GetJWKS(cmd.Context(), cfg.JWKSURL); err != nil {
					failures++
					fmt.Fprintf(out, "JWKS does not parse: %v\n", err)
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	return cmd
}

// probe treats any response below 500 as reachable; the API root may well answer 404
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
