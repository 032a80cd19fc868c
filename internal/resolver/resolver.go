// Package resolver computes the chain of title for a land record: entry
// ordering, validity flips, previous-owner pools, area distribution limits and
// the passbook. All functions work on in-memory snapshots and never do I/O.
// Mutations return a new resolved snapshot and leave their input untouched.
package resolver

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// Resolver recomputes snapshots and applies edits to them.
type Resolver struct {
	log *logger.Logger
}

// New creates a Resolver that reports skipped references on log.
func New(log *logger.Logger) *Resolver {
	return &Resolver{log: log.With(map[string]interface{}{"component": "resolver"})}
}

// Recompute resolves a copy of the snapshot: orders the chain, checks the
// affected-entry references and derives IsValid for every relation.
func (r *Resolver) Recompute(s Snapshot) (*Result, error) {
	working := s.Clone()
	return r.report(r.resolve(&working, nil))
}

func (r *Resolver) resolve(s *Snapshot, carried []*ReferentialError) (*Result, error) {
	chain, warnings, err := buildChain(s)
	if err != nil {
		r.log.Error("Snapshot rejected", err, map[string]interface{}{"record_id": s.RecordID})
		return nil, err
	}

	refWarnings, err := checkReferences(chain)
	if err != nil {
		r.log.Error("Affected-entry references form a cycle", err, map[string]interface{}{"record_id": s.RecordID})
		return nil, err
	}

	applyValidity(chain)

	warnings = append(append(carried, warnings...), refWarnings...)
	return &Result{Snapshot: *s, Chain: chain, Warnings: warnings}, nil
}

func (r *Resolver) report(res *Result, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		r.log.Warn("Skipping missing entry reference", map[string]interface{}{
			"record_id":  res.Snapshot.RecordID,
			"entry_id":   w.EntryID,
			"missing_id": w.MissingID,
			"reference":  w.Reference,
		})
	}
	return res, nil
}

// edit clones the snapshot, resolves it so the chain is available to fn, runs
// fn against the entry's detail and resolves the result again.
func (r *Resolver) edit(s Snapshot, entryID uuid.UUID, fn func(w *Snapshot, c *Chain, d *models.EntryDetail) ([]*ReferentialError, error)) (*Result, error) {
	working := s.Clone()
	current, err := r.resolve(&working, nil)
	if err != nil {
		return nil, err
	}
	item, ok := current.Chain.Item(entryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, entryID)
	}
	if item.Detail == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDetail, entryID)
	}

	warnings, err := fn(&working, current.Chain, item.Detail)
	if err != nil {
		return nil, err
	}
	return r.report(r.resolve(&working, warnings))
}

// SetStatus changes an entry's status. Invalid requires a reason; moving back
// to Valid clears it.
func (r *Resolver) SetStatus(s Snapshot, entryID uuid.UUID, status models.Status, reason string) (*Result, error) {
	if !status.Valid() {
		return nil, newValidationError("status", "unknown status %q", status)
	}
	if status == models.StatusInvalid && strings.TrimSpace(reason) == "" {
		return nil, newValidationError("invalidReason", "is required when status is invalid")
	}

	return r.edit(s, entryID, func(_ *Snapshot, _ *Chain, d *models.EntryDetail) ([]*ReferentialError, error) {
		d.Status = status
		switch status {
		case models.StatusValid:
			d.InvalidReason = ""
		default:
			if reason != "" {
				d.InvalidReason = reason
			}
		}
		return nil, nil
	})
}

// SetAffectedEntries replaces the affected-entry annotations of an order entry
// and copies each non-empty reason onto its target.
func (r *Resolver) SetAffectedEntries(s Snapshot, entryID uuid.UUID, affected []models.AffectedEntry) (*Result, error) {
	return r.edit(s, entryID, func(w *Snapshot, _ *Chain, d *models.EntryDetail) ([]*ReferentialError, error) {
		if d.Type != models.TypeOrder {
			return nil, newValidationError("affectedEntries", "only order entries may affect other entries")
		}
		d.AffectedEntries = slices.Clone(models.AffectedEntryList(affected))
		return propagateReasons(w, d), nil
	})
}

// SetEffectiveDate moves an entry's date within its neighbours' bounds.
func (r *Resolver) SetEffectiveDate(s Snapshot, entryID uuid.UUID, date time.Time) (*Result, error) {
	return r.edit(s, entryID, func(w *Snapshot, c *Chain, d *models.EntryDetail) ([]*ReferentialError, error) {
		if err := ValidateEffectiveDate(c, entryID, date); err != nil {
			return nil, err
		}
		day := truncateDay(date)
		d.EffectiveDate = &day
		if d.EqualDistribution {
			limits, err := LimitsFor(c, w.Universe, w.YearSlabs, entryID)
			if err != nil {
				return nil, err
			}
			ApplyEqualDistribution(d, limits)
		}
		return nil, nil
	})
}

// UpdateRelationArea changes one relation's area. The change is rejected with
// an AreaExceededError when the new-owner total would break a cap.
func (r *Resolver) UpdateRelationArea(s Snapshot, entryID, relationID uuid.UUID, area models.Area) (*Result, error) {
	if err := area.Validate(); err != nil {
		return nil, newValidationError("area", "%s", err)
	}

	return r.edit(s, entryID, func(w *Snapshot, c *Chain, d *models.EntryDetail) ([]*ReferentialError, error) {
		i := d.RelationIndex(relationID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, relationID)
		}
		if d.EqualDistribution && d.IsNewOwner(d.OwnerRelations[i]) {
			return nil, newValidationError("area", "is managed by equal distribution")
		}
		d.OwnerRelations[i].Area = area

		limits, err := LimitsFor(c, w.Universe, w.YearSlabs, entryID)
		if err != nil {
			return nil, err
		}
		return nil, ValidateDistribution(d, limits, relationID, area.Unit)
	})
}

// AddRelation appends an owner relation to the entry. A zero relation id is
// replaced with a new one. With equal distribution active every new owner is
// re-shared; otherwise the new total is checked against the caps.
func (r *Resolver) AddRelation(s Snapshot, entryID uuid.UUID, rel models.OwnerRelation) (*Result, error) {
	return r.edit(s, entryID, func(w *Snapshot, c *Chain, d *models.EntryDetail) ([]*ReferentialError, error) {
		if errs := validateRelation(d, rel, "ownerRelation"); len(errs) > 0 {
			return nil, errs
		}
		if rel.ID == uuid.Nil {
			rel.ID = uuid.New()
		} else if d.RelationIndex(rel.ID) >= 0 {
			return nil, newValidationError("ownerRelation.id", "relation %s already exists", rel.ID)
		}
		rel.DetailID = d.ID
		d.OwnerRelations = append(d.OwnerRelations, rel)

		limits, err := LimitsFor(c, w.Universe, w.YearSlabs, entryID)
		if err != nil {
			return nil, err
		}
		if d.EqualDistribution {
			ApplyEqualDistribution(d, limits)
			return nil, nil
		}
		return nil, ValidateDistribution(d, limits, rel.ID, rel.Area.Unit)
	})
}

// RemoveRelation deletes an owner relation and re-shares the remaining new
// owners when equal distribution is active.
func (r *Resolver) RemoveRelation(s Snapshot, entryID, relationID uuid.UUID) (*Result, error) {
	return r.edit(s, entryID, func(w *Snapshot, c *Chain, d *models.EntryDetail) ([]*ReferentialError, error) {
		i := d.RelationIndex(relationID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, relationID)
		}
		d.OwnerRelations = slices.Delete(d.OwnerRelations, i, i+1)

		if d.EqualDistribution {
			limits, err := LimitsFor(c, w.Universe, w.YearSlabs, entryID)
			if err != nil {
				return nil, err
			}
			ApplyEqualDistribution(d, limits)
		}
		return nil, nil
	})
}

// SetEqualDistribution toggles equal distribution. Turning it on shares the
// tighter cap equally among the new owners straight away.
func (r *Resolver) SetEqualDistribution(s Snapshot, entryID uuid.UUID, enabled bool) (*Result, error) {
	return r.edit(s, entryID, func(w *Snapshot, c *Chain, d *models.EntryDetail) ([]*ReferentialError, error) {
		d.EqualDistribution = enabled
		if !enabled {
			return nil, nil
		}
		limits, err := LimitsFor(c, w.Universe, w.YearSlabs, entryID)
		if err != nil {
			return nil, err
		}
		ApplyEqualDistribution(d, limits)
		return nil, nil
	})
}

// RemoveEntry deletes an entry together with its detail and relations and
// recomputes the chain. Annotations on other entries that pointed at it are
// kept and reported as warnings.
func (r *Resolver) RemoveEntry(s Snapshot, entryID uuid.UUID) (*Result, error) {
	working := s.Clone()
	i := working.entryIndex(entryID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, entryID)
	}
	working.Entries = slices.Delete(working.Entries, i, i+1)
	working.Details = slices.DeleteFunc(working.Details, func(d models.EntryDetail) bool {
		return d.EntryID == entryID
	})
	return r.report(r.resolve(&working, nil))
}

// IsFatal reports whether err means the snapshot itself cannot be resolved.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCyclicReference) || errors.Is(err, ErrCorruptSnapshot)
}
