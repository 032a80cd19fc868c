// Package cli holds the nondhctl subcommands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/snapshotio"
)

type resolveOptions struct {
	file   string
	output string
	strict bool
}

// NewResolveCommand returns the command that resolves a snapshot file and
// prints the chain and passbook.
func NewResolveCommand() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a snapshot file offline",
		Long: `Load a land-record snapshot from a YAML or JSON file, resolve its chain of title
and print the ordered chain, owner validity and passbook. Nothing is written to the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Snapshot file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(snapshotio.FormatYAML), "Output format (json, yaml)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when any entry detail has validation issues")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *resolveOptions) error {
	format := snapshotio.Format(opts.output)
	if format != snapshotio.FormatJSON && format != snapshotio.FormatYAML {
		return fmt.Errorf("%w: %s", snapshotio.ErrUnknownFormat, opts.output)
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), "production")

	loaded, err := snapshotio.LoadFile(opts.file)
	if err != nil {
		return err
	}

	if issues := resolver.ValidateSnapshot(loaded.Snapshot); len(issues) > 0 {
		for entryID, errs := range issues {
			log.Warn("Entry has validation issues", map[string]interface{}{
				"entry":  loaded.Keys[entryID],
				"issues": errs.Error(),
			})
		}
		if opts.strict {
			return fmt.Errorf("%d entries have validation issues", len(issues))
		}
	}

	res, err := resolver.New(log).Recompute(loaded.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", opts.file, err)
	}

	return snapshotio.WriteReport(cmd.OutOrStdout(), format, snapshotio.BuildReport(res, loaded.Keys))
}
