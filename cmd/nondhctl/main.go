package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "nondhctl",
		Short:        "nondhctl - operator tools for the nondh chain resolver",
		Long:         `nondhctl resolves land-record snapshot files offline, imports them into the database and manages schema migrations.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		cli.NewResolveCommand(),
		cli.NewImportCommand(),
		cli.NewMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
