package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/config"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/database"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
)

// NewMigrateCommand returns the database migration command group.
func NewMigrateCommand() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply the embedded SQL migrations or report the current schema version.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), env, func(ctx context.Context, m *database.Migrator) error {
					return m.Up(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), env, func(ctx context.Context, m *database.Migrator) error {
					version, err := m.Version(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "\nMigration Status:\n")
					fmt.Fprintf(cmd.OutOrStdout(), "  Environment:     %s\n", env)
					fmt.Fprintf(cmd.OutOrStdout(), "  Current Version: %d\n", version)
					return m.Status(ctx)
				})
			},
		},
	)

	return cmd
}

func withMigrator(ctx context.Context, env string, fn func(context.Context, *database.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(env)

	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		return err
	}
	if err := fn(ctx, migrator); err != nil {
		log.Error("Migration command failed", err, nil)
		return err
	}
	return nil
}
