package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/tokengate/internal/interfaces/cli/server"
	"github.com/orris-inc/tokengate/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tokengate",
		Short: "Tokengate - a session/token authority service",
		Long:  `Tokengate serves token-based login sessions: minting, resolution, concurrency control, bans and step-up auth, backed by a pluggable TTL-aware store.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(version.String())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
