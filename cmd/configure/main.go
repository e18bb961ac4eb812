package main

import (
	"fmt"
	"os"

	"github.com/benvon/order-cors/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "order-cors-configure",
		Short: "Configuration tool for the order service CORS policy",
		Long:  "CLI tool for inspecting, validating and probing the CORS policy served in front of the order service",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
