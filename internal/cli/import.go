package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/cache"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/config"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/database"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/repository"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/snapshotio"
)

type importOptions struct {
	file string
	env  string
}

// NewImportCommand returns the command that stores a snapshot file in the
// database, replacing any record with the same id.
func NewImportCommand() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a snapshot file into the database",
		Long: `Resolve a land-record snapshot file and store it, with derived owner validity,
in one transaction. An existing record with the same id is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Snapshot file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&opts.env, "env", "e", "development", "Environment (development, test, production)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, opts *importOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(opts.env)

	loaded, err := snapshotio.LoadFile(opts.file)
	if err != nil {
		return err
	}
	res, err := resolver.New(log).Recompute(loaded.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", opts.file, err)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	redisCfg, err := config.LoadRedis()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	records := repository.NewLandRecordRepository(db)
	if err := records.Import(ctx, res.Snapshot, loaded.Declared); err != nil {
		log.Error("Import failed", err, map[string]interface{}{"file": opts.file})
		return err
	}
	if err := invalidatePassbook(ctx, redisCfg, res.Snapshot.RecordID); err != nil {
		log.Error("Cached passbook not invalidated", err, map[string]interface{}{"record_id": res.Snapshot.RecordID})
		return fmt.Errorf("snapshot imported but passbook cache invalidation failed: %w", err)
	}

	log.Info("Snapshot imported", map[string]interface{}{
		"record_id": res.Snapshot.RecordID,
		"entries":   len(res.Snapshot.Entries),
		"warnings":  len(res.Warnings),
	})
	return nil
}

// invalidatePassbook drops the record's cached passbook so a running server
// recomputes it from the imported rows. It does nothing when caching is off.
func invalidatePassbook(ctx context.Context, cfg config.RedisConfig, recordID uuid.UUID) error {
	if !cfg.Enabled() {
		return nil
	}
	passbook, err := cache.NewRedisPassbookCache(cfg.URL, cfg.PassbookTTL)
	if err != nil {
		return err
	}
	defer passbook.Close()
	return passbook.Invalidate(ctx, recordID)
}
