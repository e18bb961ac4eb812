package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/benvon/order-cors/internal/cors"
	"github.com/benvon/order-cors/internal/validation"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var target, origin, method string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Probe a running server with a CORS preflight",
		Long:  "Send an OPTIONS preflight to a live endpoint and report the CORS headers it returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" || origin == "" {
				return fmt.Errorf("--url and --origin are required")
			}
			method = validation.NormalizeMethod(method)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodOptions, target, nil)
			if err != nil {
				return fmt.Errorf("failed to build request: %w", err)
			}
			req.Header.Set(cors.HeaderOrigin, origin)
			req.Header.Set(cors.HeaderRequestMethod, method)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Testing preflight: OPTIONS %s\n", target)
			fmt.Fprintf(out, "Origin: %s, requested method: %s\n", origin, method)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to reach endpoint: %w", err)
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
				}
			}()

			fmt.Fprintf(out, "\nStatus: %d\n", resp.StatusCode)
			allowOrigin := resp.Header.Get(cors.HeaderAllowOrigin)
			for _, h := range []string{cors.HeaderAllowOrigin, cors.HeaderAllowMethods, cors.HeaderAllowHeaders, cors.HeaderAllowCredentials, cors.HeaderMaxAge} {
				if v := resp.Header.Get(h); v != "" {
					fmt.Fprintf(out, "%s: %s\n", h, v)
				}
			}

			if allowOrigin == "" {
				return fmt.Errorf("preflight rejected: no %s header", cors.HeaderAllowOrigin)
			}
			if allowOrigin != origin && allowOrigin != "*" {
				return fmt.Errorf("preflight returned unexpected origin %q", allowOrigin)
			}
			if allowOrigin == "*" && resp.Header.Get(cors.HeaderAllowCredentials) == "true" {
				return fmt.Errorf("server sent wildcard origin together with credentials")
			}
			if methods := resp.Header.Get(cors.HeaderAllowMethods); methods != "" && !listContains(methods, method) {
				return fmt.Errorf("method %s missing from %s", method, cors.HeaderAllowMethods)
			}

			fmt.Fprintln(out, "\n✓ Preflight accepted")
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "url", "", "Endpoint URL to probe (required)")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin to send (required)")
	cmd.Flags().StringVar(&method, "method", http.MethodGet, "Method to request in Access-Control-Request-Method")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}

func listContains(list, value string) bool {
	for _, v := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(v), value) {
			return true
		}
	}
	return false
}
