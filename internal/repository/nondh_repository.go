package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/database"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
)

// NondhRepository defines the data access operations for nondhs, their
// details and owner relations.
type NondhRepository interface {
	// LoadEntries returns the record's entries in insertion order.
	LoadEntries(ctx context.Context, recordID uuid.UUID) ([]models.Entry, error)

	// LoadDetails returns the record's details with their owner relations attached.
	LoadDetails(ctx context.Context, recordID uuid.UUID) ([]models.EntryDetail, error)

	// SaveDetail inserts or updates a detail row. Owner relations are not touched.
	SaveDetail(ctx context.Context, detail models.EntryDetail) error

	// SaveRelation inserts or updates an owner relation.
	SaveRelation(ctx context.Context, rel models.OwnerRelation) error

	// DeleteRelation removes an owner relation. Deleting a missing row is not an error.
	DeleteRelation(ctx context.Context, id uuid.UUID) error

	// DeleteEntry removes an entry; its detail and relations go with it.
	DeleteEntry(ctx context.Context, id uuid.UUID) error

	// ApplyChanges persists a resolver diff in one transaction.
	ApplyChanges(ctx context.Context, changes resolver.Changes) error
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// nondhRepository is the concrete implementation of NondhRepository.
type nondhRepository struct {
	db *database.Database
}

// NewNondhRepository creates a new instance of NondhRepository.
func NewNondhRepository(db *database.Database) NondhRepository {
	return &nondhRepository{db: db}
}

func (r *nondhRepository) LoadEntries(ctx context.Context, recordID uuid.UUID) ([]models.Entry, error) {
	query := `
		SELECT
			id,
			record_id,
			sequence_number,
			display_number,
			document_ref,
			affected_survey_numbers,
			created_at
		FROM nondhs
		WHERE record_id = $1
		ORDER BY position
	`

	rows, err := r.db.Pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nondhs for record %s: %w", recordID, err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(
			&e.ID,
			&e.RecordID,
			&e.SequenceNumber,
			&e.DisplayNumber,
			&e.DocumentRef,
			&e.AffectedSurveyNumbers,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan nondh row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nondh rows: %w", err)
	}

	return entries, nil
}

func (r *nondhRepository) LoadDetails(ctx context.Context, recordID uuid.UUID) ([]models.EntryDetail, error) {
	query := `
		SELECT
			d.id,
			d.entry_id,
			d.type,
			d.status,
			d.invalid_reason,
			d.effective_date,
			d.old_owner_name,
			d.authority,
			d.ganot,
			d.sd_date,
			d.sale_amount,
			d.equal_distribution,
			d.affected_entries,
			d.created_at
		FROM nondh_details d
		JOIN nondhs n ON n.id = d.entry_id
		WHERE n.record_id = $1
		ORDER BY n.position
	`

	rows, err := r.db.Pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nondh details for record %s: %w", recordID, err)
	}
	defer rows.Close()

	details := make([]models.EntryDetail, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nondh detail rows: %w", err)
	}

	relations, err := r.loadRelations(ctx, recordID)
	if err != nil {
		return nil, err
	}
	for _, rel := range relations {
		if i, ok := index[rel.DetailID]; ok {
			details[i].OwnerRelations = append(details[i].OwnerRelations, rel)
		}
	}

	return details, nil
}

func scanDetail(rows pgx.Rows) (models.EntryDetail, error) {
	var (
		d         models.EntryDetail
		authority *string
		ganot     *string
		sdDate    *time.Time
		amount    decimal.NullDecimal
	)
	if err := rows.Scan(
		&d.ID,
		&d.EntryID,
		&d.Type,
		&d.Status,
		&d.InvalidReason,
		&d.EffectiveDate,
		&d.OldOwnerName,
		&authority,
		&ganot,
		&sdDate,
		&amount,
		&d.EqualDistribution,
		&d.AffectedEntries,
		&d.CreatedAt,
	); err != nil {
		return d, fmt.Errorf("failed to scan nondh detail row: %w", err)
	}

	if authority != nil || ganot != nil {
		d.Order = &models.OrderDetails{}
		if authority != nil {
			d.Order.Authority = models.OrderAuthority(*authority)
		}
		if ganot != nil {
			d.Order.Ganot = models.Ganot(*ganot)
		}
	}
	if sdDate != nil || amount.Valid {
		d.Sale = &models.SaleDetails{SDDate: sdDate, Amount: amount.Decimal}
	}
	return d, nil
}

func (r *nondhRepository) loadRelations(ctx context.Context, recordID uuid.UUID) ([]models.OwnerRelation, error) {
	query := `
		SELECT
			o.id,
			o.detail_id,
			o.owner_name,
			o.area_unit,
			o.area_sqm,
			o.area_acres,
			o.area_gunthas,
			o.survey_number_override,
			o.is_valid
		FROM owner_relations o
		JOIN nondh_details d ON d.id = o.detail_id
		JOIN nondhs n ON n.id = d.entry_id
		WHERE n.record_id = $1
		ORDER BY o.position
	`

	rows, err := r.db.Pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner relations for record %s: %w", recordID, err)
	}
	defer rows.Close()

	relations := make([]models.OwnerRelation, 0)
	for rows.Next() {
		var (
			rel      models.OwnerRelation
			override []byte
		)
		if err := rows.Scan(
			&rel.ID,
			&rel.DetailID,
			&rel.OwnerName,
			&rel.Area.Unit,
			&rel.Area.SquareMeters,
			&rel.Area.Acres,
			&rel.Area.Gunthas,
			&override,
			&rel.IsValid,
		); err != nil {
			return nil, fmt.Errorf("failed to scan owner relation row: %w", err)
		}
		if len(override) > 0 {
			var sn models.SurveyNumber
			if err := json.Unmarshal(override, &sn); err != nil {
				return nil, fmt.Errorf("failed to parse survey number override for relation %s: %w", rel.ID, err)
			}
			rel.SurveyNumberOverride = &sn
		}
		relations = append(relations, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner relation rows: %w", err)
	}

	return relations, nil
}

func (r *nondhRepository) SaveDetail(ctx context.Context, detail models.EntryDetail) error {
	return saveDetail(ctx, r.db.Pool, detail)
}

func (r *nondhRepository) SaveRelation(ctx context.Context, rel models.OwnerRelation) error {
	return saveRelation(ctx, r.db.Pool, rel)
}

func (r *nondhRepository) DeleteRelation(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM owner_relations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete owner relation %s: %w", id, err)
	}
	return nil
}

func (r *nondhRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM nondhs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete nondh %s: %w", id, err)
	}
	return nil
}

// ApplyChanges deletes before it writes so a relation moved between details
// never collides with its old row.
func (r *nondhRepository) ApplyChanges(ctx context.Context, changes resolver.Changes) error {
	if changes.Empty() {
		return nil
	}

	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		for _, id := range changes.DeletedEntries {
			if _, err := tx.Exec(ctx, `DELETE FROM nondhs WHERE id = $1`, id); err != nil {
				return fmt.Errorf("failed to delete nondh %s: %w", id, err)
			}
		}
		for _, id := range changes.DeletedRelations {
			if _, err := tx.Exec(ctx, `DELETE FROM owner_relations WHERE id = $1`, id); err != nil {
				return fmt.Errorf("failed to delete owner relation %s: %w", id, err)
			}
		}
		for _, d := range changes.Details {
			if err := saveDetail(ctx, tx, d); err != nil {
				return err
			}
		}
		for _, rel := range changes.Relations {
			if err := saveRelation(ctx, tx, rel); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveDetail(ctx context.Context, db execer, d models.EntryDetail) error {
	query := `
		INSERT INTO nondh_details (
			id, entry_id, type, status, invalid_reason, effective_date, old_owner_name,
			authority, ganot, sd_date, sale_amount, equal_distribution, affected_entries
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			invalid_reason = EXCLUDED.invalid_reason,
			effective_date = EXCLUDED.effective_date,
			old_owner_name = EXCLUDED.old_owner_name,
			authority = EXCLUDED.authority,
			ganot = EXCLUDED.ganot,
			sd_date = EXCLUDED.sd_date,
			sale_amount = EXCLUDED.sale_amount,
			equal_distribution = EXCLUDED.equal_distribution,
			affected_entries = EXCLUDED.affected_entries
	`

	var (
		authority *string
		ganot     *string
		sdDate    *time.Time
		amount    decimal.NullDecimal
	)
	if d.Order != nil {
		a := string(d.Order.Authority)
		authority = &a
		if d.Order.Ganot != models.GanotNone {
			g := string(d.Order.Ganot)
			ganot = &g
		}
	}
	if d.Sale != nil {
		sdDate = d.Sale.SDDate
		amount = decimal.NewNullDecimal(d.Sale.Amount)
	}

	if _, err := db.Exec(ctx, query,
		d.ID,
		d.EntryID,
		string(d.Type),
		string(d.Status),
		d.InvalidReason,
		d.EffectiveDate,
		d.OldOwnerName,
		authority,
		ganot,
		sdDate,
		amount,
		d.EqualDistribution,
		d.AffectedEntries,
	); err != nil {
		return fmt.Errorf("failed to save nondh detail %s: %w", d.ID, err)
	}
	return nil
}

func saveRelation(ctx context.Context, db execer, rel models.OwnerRelation) error {
	query := `
		INSERT INTO owner_relations (
			id, detail_id, owner_name, area_unit, area_sqm, area_acres, area_gunthas,
			survey_number_override, is_valid
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			detail_id = EXCLUDED.detail_id,
			owner_name = EXCLUDED.owner_name,
			area_unit = EXCLUDED.area_unit,
			area_sqm = EXCLUDED.area_sqm,
			area_acres = EXCLUDED.area_acres,
			area_gunthas = EXCLUDED.area_gunthas,
			survey_number_override = EXCLUDED.survey_number_override,
			is_valid = EXCLUDED.is_valid
	`

	var override []byte
	if rel.SurveyNumberOverride != nil {
		data, err := json.Marshal(rel.SurveyNumberOverride)
		if err != nil {
			return fmt.Errorf("failed to marshal survey number override for relation %s: %w", rel.ID, err)
		}
		override = data
	}

	if _, err := db.Exec(ctx, query,
		rel.ID,
		rel.DetailID,
		rel.OwnerName,
		string(rel.Area.Unit),
		rel.Area.SquareMeters,
		rel.Area.Acres,
		rel.Area.Gunthas,
		override,
		rel.IsValid,
	); err != nil {
		return fmt.Errorf("failed to save owner relation %s: %w", rel.ID, err)
	}
	return nil
}
