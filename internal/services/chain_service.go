package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/cache"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/repository"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
)

// Service-level errors
var (
	ErrRecordNotFound   = errors.New("land record not found")
	ErrEntryNotFound    = errors.New("nondh not found")
	ErrDetailNotFound   = errors.New("nondh detail not found")
	ErrRelationNotFound = errors.New("owner relation not found")
)

// DateBounds is the window an entry's effective date must fall in.
// A nil side is unbounded.
type DateBounds struct {
	Min *time.Time `json:"min"`
	Max *time.Time `json:"max"`
}

// ChainService defines the business operations on a land record's chain of title.
// Every mutation loads the record, applies the edit through the resolver,
// persists the difference and drops the cached passbook.
type ChainService interface {
	// GetChain resolves the record without persisting anything.
	GetChain(ctx context.Context, recordID uuid.UUID) (*resolver.Result, error)

	// RecomputeChain resolves the record and persists any drift in derived validity.
	RecomputeChain(ctx context.Context, recordID uuid.UUID) (*resolver.Result, error)

	// GetPassbook returns the ledger of valid holdings, served from cache when possible.
	GetPassbook(ctx context.Context, recordID uuid.UUID) ([]models.PassbookRow, error)

	// GetPreviousOwners returns the pool a transfer at entryID may draw from.
	// An empty survey number walks every survey number. An unknown entry id is
	// treated as a new entry placed last.
	GetPreviousOwners(ctx context.Context, recordID, entryID uuid.UUID, sn models.SurveyNumber) ([]resolver.PreviousOwner, error)

	// GetDateBounds returns the allowed effective-date window of an entry.
	GetDateBounds(ctx context.Context, recordID, entryID uuid.UUID) (DateBounds, error)

	UpdateStatus(ctx context.Context, recordID, entryID uuid.UUID, status models.Status, reason string) (*resolver.Result, error)
	SetEffectiveDate(ctx context.Context, recordID, entryID uuid.UUID, date time.Time) (*resolver.Result, error)
	SetAffectedEntries(ctx context.Context, recordID, entryID uuid.UUID, affected []models.AffectedEntry) (*resolver.Result, error)
	SetEqualDistribution(ctx context.Context, recordID, entryID uuid.UUID, enabled bool) (*resolver.Result, error)
	AddOwnerRelation(ctx context.Context, recordID, entryID uuid.UUID, rel models.OwnerRelation) (*resolver.Result, error)
	UpdateOwnerArea(ctx context.Context, recordID, entryID, relationID uuid.UUID, area models.Area) (*resolver.Result, error)
	RemoveOwnerRelation(ctx context.Context, recordID, entryID, relationID uuid.UUID) (*resolver.Result, error)
	DeleteEntry(ctx context.Context, recordID, entryID uuid.UUID) (*resolver.Result, error)
}

// chainService is the concrete implementation of ChainService.
type chainService struct {
	records  repository.LandRecordRepository
	nondhs   repository.NondhRepository
	passbook cache.PassbookCache
	resolver *resolver.Resolver
	log      *logger.Logger

	// locks serialises mutations and passbook cache fills per record within this process.
	locks sync.Map
}

// NewChainService creates a new instance of ChainService.
func NewChainService(
	records repository.LandRecordRepository,
	nondhs repository.NondhRepository,
	passbook cache.PassbookCache,
	log *logger.Logger,
) ChainService {
	return &chainService{
		records:  records,
		nondhs:   nondhs,
		passbook: passbook,
		resolver: resolver.New(log),
		log:      log,
	}
}

func (s *chainService) lock(recordID uuid.UUID) func() {
	m, _ := s.locks.LoadOrStore(recordID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// loadSnapshot gathers everything the resolver needs for one record.
func (s *chainService) loadSnapshot(ctx context.Context, recordID uuid.UUID) (resolver.Snapshot, error) {
	exists, err := s.records.Exists(ctx, recordID)
	if err != nil {
		return resolver.Snapshot{}, fmt.Errorf("failed to look up land record: %w", err)
	}
	if !exists {
		return resolver.Snapshot{}, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}

	entries, err := s.nondhs.LoadEntries(ctx, recordID)
	if err != nil {
		return resolver.Snapshot{}, fmt.Errorf("failed to load nondhs: %w", err)
	}
	details, err := s.nondhs.LoadDetails(ctx, recordID)
	if err != nil {
		return resolver.Snapshot{}, fmt.Errorf("failed to load nondh details: %w", err)
	}
	universe, err := s.records.SurveyUniverse(ctx, recordID)
	if err != nil {
		return resolver.Snapshot{}, fmt.Errorf("failed to load survey numbers: %w", err)
	}
	slabs, err := s.records.YearSlabs(ctx, recordID)
	if err != nil {
		return resolver.Snapshot{}, fmt.Errorf("failed to load year slabs: %w", err)
	}

	return resolver.Snapshot{
		RecordID:  recordID,
		Entries:   entries,
		Details:   details,
		Universe:  universe,
		YearSlabs: slabs,
	}, nil
}

// translate maps resolver lookup errors onto service sentinels and leaves
// every other error untouched.
func translate(err error) error {
	switch {
	case errors.Is(err, resolver.ErrUnknownEntry):
		return fmt.Errorf("%w: %w", ErrEntryNotFound, err)
	case errors.Is(err, resolver.ErrMissingDetail):
		return fmt.Errorf("%w: %w", ErrDetailNotFound, err)
	case errors.Is(err, resolver.ErrUnknownRelation):
		return fmt.Errorf("%w: %w", ErrRelationNotFound, err)
	}
	return err
}

// mutate runs one edit end to end under the record's lock.
func (s *chainService) mutate(ctx context.Context, recordID uuid.UUID, op string, fields map[string]interface{}, edit func(resolver.Snapshot) (*resolver.Result, error)) (*resolver.Result, error) {
	unlock := s.lock(recordID)
	defer unlock()

	log := s.log.With(map[string]interface{}{"record_id": recordID, "operation": op})

	before, err := s.loadSnapshot(ctx, recordID)
	if err != nil {
		return nil, err
	}

	res, err := edit(before)
	if err != nil {
		if resolver.IsFatal(err) {
			log.Error("Chain could not be resolved", err, fields)
		} else {
			log.Warn("Edit rejected", mergeFields(fields, map[string]interface{}{"reason": err.Error()}))
		}
		return nil, translate(err)
	}

	if err := s.persist(ctx, log, before, res); err != nil {
		return nil, err
	}

	log.Info("Chain updated", mergeFields(fields, map[string]interface{}{"warnings": len(res.Warnings)}))
	return res, nil
}

func (s *chainService) persist(ctx context.Context, log *logger.Logger, before resolver.Snapshot, res *resolver.Result) error {
	changes := resolver.Diff(before, res.Snapshot)
	if changes.Empty() {
		return nil
	}

	if err := s.nondhs.ApplyChanges(ctx, changes); err != nil {
		log.Error("Failed to persist chain changes", err, nil)
		return fmt.Errorf("failed to persist chain changes: %w", err)
	}

	// Invalidation failures are logged only; the cached entry still expires with its TTL.
	if err := s.passbook.Invalidate(ctx, res.Snapshot.RecordID); err != nil {
		log.Warn("Failed to invalidate cached passbook", map[string]interface{}{"error": err.Error()})
	}

	log.Debug("Chain changes persisted", map[string]interface{}{
		"details":           len(changes.Details),
		"relations":         len(changes.Relations),
		"deleted_relations": len(changes.DeletedRelations),
		"deleted_entries":   len(changes.DeletedEntries),
	})
	return nil
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (s *chainService) GetChain(ctx context.Context, recordID uuid.UUID) (*resolver.Result, error) {
	snapshot, err := s.loadSnapshot(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Recompute(snapshot)
}

func (s *chainService) RecomputeChain(ctx context.Context, recordID uuid.UUID) (*resolver.Result, error) {
	return s.mutate(ctx, recordID, "recompute", nil, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.Recompute(snapshot)
	})
}

func (s *chainService) GetPassbook(ctx context.Context, recordID uuid.UUID) ([]models.PassbookRow, error) {
	rows, hit, err := s.passbook.Get(ctx, recordID)
	if err != nil {
		s.log.Warn("Passbook cache read failed", map[string]interface{}{
			"record_id": recordID,
			"error":     err.Error(),
		})
	}
	if hit {
		return rows, nil
	}

	// The fill holds the record lock so a concurrent mutation cannot
	// invalidate between the load and the Set.
	unlock := s.lock(recordID)
	defer unlock()

	res, err := s.GetChain(ctx, recordID)
	if err != nil {
		return nil, err
	}
	rows = resolver.Passbook(res.Chain, res.Snapshot.Universe)

	if err := s.passbook.Set(ctx, recordID, rows); err != nil {
		s.log.Warn("Passbook cache write failed", map[string]interface{}{
			"record_id": recordID,
			"error":     err.Error(),
		})
	}
	return rows, nil
}

func (s *chainService) GetPreviousOwners(ctx context.Context, recordID, entryID uuid.UUID, sn models.SurveyNumber) ([]resolver.PreviousOwner, error) {
	res, err := s.GetChain(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return resolver.PreviousOwners(res.Chain, sn, entryID), nil
}

func (s *chainService) GetDateBounds(ctx context.Context, recordID, entryID uuid.UUID) (DateBounds, error) {
	res, err := s.GetChain(ctx, recordID)
	if err != nil {
		return DateBounds{}, err
	}
	minDate, maxDate, err := resolver.DateBounds(res.Chain, entryID)
	if err != nil {
		return DateBounds{}, translate(err)
	}
	return DateBounds{Min: minDate, Max: maxDate}, nil
}

func (s *chainService) UpdateStatus(ctx context.Context, recordID, entryID uuid.UUID, status models.Status, reason string) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID, "status": status}
	return s.mutate(ctx, recordID, "update_status", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.SetStatus(snapshot, entryID, status, reason)
	})
}

func (s *chainService) SetEffectiveDate(ctx context.Context, recordID, entryID uuid.UUID, date time.Time) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID, "effective_date": date.Format(time.DateOnly)}
	return s.mutate(ctx, recordID, "set_effective_date", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.SetEffectiveDate(snapshot, entryID, date)
	})
}

func (s *chainService) SetAffectedEntries(ctx context.Context, recordID, entryID uuid.UUID, affected []models.AffectedEntry) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID, "affected": len(affected)}
	return s.mutate(ctx, recordID, "set_affected_entries", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.SetAffectedEntries(snapshot, entryID, affected)
	})
}

func (s *chainService) SetEqualDistribution(ctx context.Context, recordID, entryID uuid.UUID, enabled bool) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID, "enabled": enabled}
	return s.mutate(ctx, recordID, "set_equal_distribution", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.SetEqualDistribution(snapshot, entryID, enabled)
	})
}

func (s *chainService) AddOwnerRelation(ctx context.Context, recordID, entryID uuid.UUID, rel models.OwnerRelation) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID, "owner": rel.OwnerName}
	return s.mutate(ctx, recordID, "add_owner_relation", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.AddRelation(snapshot, entryID, rel)
	})
}

func (s *chainService) UpdateOwnerArea(ctx context.Context, recordID, entryID, relationID uuid.UUID, area models.Area) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID, "relation_id": relationID, "area": area.String()}
	return s.mutate(ctx, recordID, "update_owner_area", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.UpdateRelationArea(snapshot, entryID, relationID, area)
	})
}

func (s *chainService) RemoveOwnerRelation(ctx context.Context, recordID, entryID, relationID uuid.UUID) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID, "relation_id": relationID}
	return s.mutate(ctx, recordID, "remove_owner_relation", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.RemoveRelation(snapshot, entryID, relationID)
	})
}

func (s *chainService) DeleteEntry(ctx context.Context, recordID, entryID uuid.UUID) (*resolver.Result, error) {
	fields := map[string]interface{}{"entry_id": entryID}
	return s.mutate(ctx, recordID, "delete_entry", fields, func(snapshot resolver.Snapshot) (*resolver.Result, error) {
		return s.resolver.RemoveEntry(snapshot, entryID)
	})
}
