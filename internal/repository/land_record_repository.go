package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/database"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
)

// LandRecordRepository provides the record-level inputs of the resolver: the
// survey-number universe and the year slabs.
type LandRecordRepository interface {
	// Exists reports whether the record is known.
	Exists(ctx context.Context, recordID uuid.UUID) (bool, error)

	// SurveyUniverse returns the declared survey numbers together with those
	// named by the record's year slabs.
	SurveyUniverse(ctx context.Context, recordID uuid.UUID) (models.SurveyUniverse, error)

	// YearSlabs returns the record's slabs ordered by start year.
	YearSlabs(ctx context.Context, recordID uuid.UUID) ([]models.YearSlab, error)

	// Import stores a complete record in one transaction, replacing any
	// previous copy with the same id.
	Import(ctx context.Context, snapshot resolver.Snapshot, declared models.SurveyNumberList) error
}

// landRecordRepository is the concrete implementation of LandRecordRepository.
type landRecordRepository struct {
	db *database.Database
}

// NewLandRecordRepository creates a new instance of LandRecordRepository.
func NewLandRecordRepository(db *database.Database) LandRecordRepository {
	return &landRecordRepository{db: db}
}

func (r *landRecordRepository) Exists(ctx context.Context, recordID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM land_records WHERE id = $1)`, recordID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check land record %s: %w", recordID, err)
	}
	return exists, nil
}

func (r *landRecordRepository) SurveyUniverse(ctx context.Context, recordID uuid.UUID) (models.SurveyUniverse, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT number, kind FROM record_survey_numbers WHERE record_id = $1`, recordID)
	if err != nil {
		return models.SurveyUniverse{}, fmt.Errorf("failed to query survey numbers for record %s: %w", recordID, err)
	}
	defer rows.Close()

	declared := make(models.SurveyNumberList, 0)
	for rows.Next() {
		var sn models.SurveyNumber
		if err := rows.Scan(&sn.Number, &sn.Kind); err != nil {
			return models.SurveyUniverse{}, fmt.Errorf("failed to scan survey number row: %w", err)
		}
		declared = append(declared, sn)
	}
	if err := rows.Err(); err != nil {
		return models.SurveyUniverse{}, fmt.Errorf("error iterating survey number rows: %w", err)
	}

	slabs, err := r.YearSlabs(ctx, recordID)
	if err != nil {
		return models.SurveyUniverse{}, err
	}

	universe := models.NewSurveyUniverse(declared)
	for _, slab := range slabs {
		for _, sn := range slab.AllSurveyNumbers() {
			universe.Add(sn)
		}
	}
	return universe, nil
}

func (r *landRecordRepository) YearSlabs(ctx context.Context, recordID uuid.UUID) ([]models.YearSlab, error) {
	query := `
		SELECT
			id,
			start_year,
			end_year,
			area_unit,
			area_sqm,
			area_acres,
			area_gunthas,
			survey_numbers,
			paiky_entries,
			consolidation_entries
		FROM year_slabs
		WHERE record_id = $1
		ORDER BY start_year, id
	`

	rows, err := r.db.Pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query year slabs for record %s: %w", recordID, err)
	}
	defer rows.Close()

	slabs := make([]models.YearSlab, 0)
	for rows.Next() {
		var (
			slab          models.YearSlab
			paiky         []byte
			consolidation []byte
		)
		if err := rows.Scan(
			&slab.ID,
			&slab.StartYear,
			&slab.EndYear,
			&slab.Area.Unit,
			&slab.Area.SquareMeters,
			&slab.Area.Acres,
			&slab.Area.Gunthas,
			&slab.SurveyNumbers,
			&paiky,
			&consolidation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan year slab row: %w", err)
		}
		if err := json.Unmarshal(paiky, &slab.PaikyEntries); err != nil {
			return nil, fmt.Errorf("failed to parse paiky entries of slab %s: %w", slab.ID, err)
		}
		if err := json.Unmarshal(consolidation, &slab.ConsolidationEntries); err != nil {
			return nil, fmt.Errorf("failed to parse consolidation entries of slab %s: %w", slab.ID, err)
		}
		slabs = append(slabs, slab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating year slab rows: %w", err)
	}

	return slabs, nil
}

func (r *landRecordRepository) Import(ctx context.Context, s resolver.Snapshot, declared models.SurveyNumberList) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM land_records WHERE id = $1`, s.RecordID); err != nil {
			return fmt.Errorf("failed to clear land record %s: %w", s.RecordID, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO land_records (id) VALUES ($1)`, s.RecordID); err != nil {
			return fmt.Errorf("failed to insert land record %s: %w", s.RecordID, err)
		}

		for _, sn := range declared {
			if _, err := tx.Exec(ctx,
				`INSERT INTO record_survey_numbers (record_id, number, kind) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
				s.RecordID, sn.Number, string(sn.Kind),
			); err != nil {
				return fmt.Errorf("failed to insert survey number %s: %w", sn, err)
			}
		}

		for _, slab := range s.YearSlabs {
			if err := insertSlab(ctx, tx, s.RecordID, slab); err != nil {
				return err
			}
		}

		for _, e := range s.Entries {
			if _, err := tx.Exec(ctx, `
				INSERT INTO nondhs (id, record_id, sequence_number, display_number, document_ref, affected_survey_numbers, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				e.ID, s.RecordID, e.SequenceNumber, e.DisplayNumber, e.DocumentRef, e.AffectedSurveyNumbers, e.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert nondh %s: %w", e.ID, err)
			}
		}

		for _, d := range s.Details {
			if err := saveDetail(ctx, tx, d); err != nil {
				return err
			}
			for _, rel := range d.OwnerRelations {
				if err := saveRelation(ctx, tx, rel); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func insertSlab(ctx context.Context, tx pgx.Tx, recordID uuid.UUID, slab models.YearSlab) error {
	paiky, err := json.Marshal(nonNil(slab.PaikyEntries))
	if err != nil {
		return fmt.Errorf("failed to marshal paiky entries of slab %s: %w", slab.ID, err)
	}
	consolidation, err := json.Marshal(nonNil(slab.ConsolidationEntries))
	if err != nil {
		return fmt.Errorf("failed to marshal consolidation entries of slab %s: %w", slab.ID, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO year_slabs (
			id, record_id, start_year, end_year, area_unit, area_sqm, area_acres, area_gunthas,
			survey_numbers, paiky_entries, consolidation_entries
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		slab.ID, recordID, slab.StartYear, slab.EndYear,
		string(slab.Area.Unit), slab.Area.SquareMeters, slab.Area.Acres, slab.Area.Gunthas,
		slab.SurveyNumbers, paiky, consolidation,
	); err != nil {
		return fmt.Errorf("failed to insert year slab %s: %w", slab.ID, err)
	}
	return nil
}

func nonNil(entries []models.SlabSubEntry) []models.SlabSubEntry {
	if entries == nil {
		return []models.SlabSubEntry{}
	}
	return entries
}
