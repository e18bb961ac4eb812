package commands

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/benvon/order-cors/internal/config"
	"github.com/benvon/order-cors/internal/cors"
	"github.com/benvon/order-cors/internal/validation"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors command with list, check and validate subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Inspect CORS policy",
		Long:  "List, dry-run or validate the CORS policy. Without --file the built-in order service policy is used.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsCheckCmd())
	cmd.AddCommand(newCorsValidateCmd())
	return cmd
}

func loadProvider(file, origins string) (*cors.Provider, error) {
	policies, err := config.LoadPolicies(file, validation.SplitList(origins))
	if err != nil {
		return nil, fmt.Errorf("load cors policy: %w", err)
	}
	provider, err := cors.NewProvider(policies...)
	if err != nil {
		return nil, fmt.Errorf("build cors provider: %w", err)
	}
	return provider, nil
}

func newCorsListCmd() *cobra.Command {
	var file, origins string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the effective CORS policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := loadProvider(file, origins)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, p := range provider.Policies() {
				fmt.Fprintf(out, "Policy %d:\n", i+1)
				fmt.Fprintf(out, "  Path pattern: %s\n", p.PathPattern)
				fmt.Fprintf(out, "  Allowed origins: %s\n", strings.Join(p.AllowedOriginPatterns, ", "))
				fmt.Fprintf(out, "  Allowed methods: %s\n", strings.Join(p.AllowedMethods, ", "))
				fmt.Fprintf(out, "  Allowed headers: %s\n", strings.Join(p.AllowedHeaders, ", "))
				if len(p.ExposedHeaders) > 0 {
					fmt.Fprintf(out, "  Exposed headers: %s\n", strings.Join(p.ExposedHeaders, ", "))
				}
				fmt.Fprintf(out, "  Allow credentials: %v\n", p.AllowCredentials)
				fmt.Fprintf(out, "  Max-Age: %d\n", p.MaxAge)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML policy file (defaults to the built-in policy)")
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated origin patterns overriding the policy")
	return cmd
}

func newCorsCheckCmd() *cobra.Command {
	var file, origins, path, origin, method, requestMethod, requestHeaders string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run a request against the CORS policy",
		Long:  "Evaluate a request and print the decision with the response headers it would produce.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(origin) == "" {
				return fmt.Errorf("--origin is required")
			}
			method = validation.NormalizeMethod(method)
			if !validation.IsHTTPMethod(method) {
				return fmt.Errorf("--method %q is not a known HTTP method", method)
			}
			provider, err := loadProvider(file, origins)
			if err != nil {
				return err
			}

			req := cors.Request{
				Path:          path,
				Origin:        strings.TrimSpace(origin),
				Method:        method,
				RequestMethod: validation.NormalizeMethod(requestMethod),
			}
			for _, h := range validation.SplitList(requestHeaders) {
				req.RequestHeaders = append(req.RequestHeaders, strings.ToLower(h))
			}
			printDecision(cmd.OutOrStdout(), provider.Evaluate(req))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML policy file (defaults to the built-in policy)")
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated origin patterns overriding the policy")
	cmd.Flags().StringVar(&path, "path", "/", "Request path")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin header value (required)")
	cmd.Flags().StringVar(&method, "method", http.MethodGet, "Request method; use OPTIONS with --request-method for a preflight")
	cmd.Flags().StringVar(&requestMethod, "request-method", "", "Access-Control-Request-Method for a preflight")
	cmd.Flags().StringVar(&requestHeaders, "request-headers", "", "Comma-separated Access-Control-Request-Headers for a preflight")
	return cmd
}

func newCorsValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a CORS policy file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) == "" {
				return fmt.Errorf("--file is required")
			}
			provider, err := loadProvider(file, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d policies)\n", file, len(provider.Policies()))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML policy file (required)")
	return cmd
}

func printDecision(out io.Writer, d cors.Decision) {
	verdict := "ALLOWED"
	if !d.Allowed {
		verdict = "REJECTED"
	}
	kind := "actual request"
	if d.Preflight {
		kind = "preflight"
	}
	fmt.Fprintf(out, "Decision: %s (%s, reason: %s)\n", verdict, kind, d.Reason)

	hdr := http.Header{}
	d.WriteHeaders(hdr)
	if len(hdr) == 0 {
		fmt.Fprintln(out, "No CORS headers would be sent.")
		return
	}
	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(out, "Response headers:")
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %s\n", k, strings.Join(hdr[k], ", "))
	}
}
