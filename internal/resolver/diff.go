package resolver

import (
	"time"

	"github.com/google/uuid"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// Changes is what the caller must persist to move storage from one snapshot to
// another. Relations of a deleted entry are removed by the cascade and are not
// listed in DeletedRelations.
type Changes struct {
	Details          []models.EntryDetail
	Relations        []models.OwnerRelation
	DeletedRelations []uuid.UUID
	DeletedEntries   []uuid.UUID
}

// Empty reports whether there is nothing to persist.
func (c Changes) Empty() bool {
	return len(c.Details) == 0 && len(c.Relations) == 0 &&
		len(c.DeletedRelations) == 0 && len(c.DeletedEntries) == 0
}

// Diff compares two snapshots of the same record.
func Diff(before, after Snapshot) Changes {
	var changes Changes

	afterEntries := make(map[uuid.UUID]struct{}, len(after.Entries))
	for _, e := range after.Entries {
		afterEntries[e.ID] = struct{}{}
	}
	for _, e := range before.Entries {
		if _, ok := afterEntries[e.ID]; !ok {
			changes.DeletedEntries = append(changes.DeletedEntries, e.ID)
		}
	}

	beforeDetails := make(map[uuid.UUID]*models.EntryDetail, len(before.Details))
	for i := range before.Details {
		beforeDetails[before.Details[i].ID] = &before.Details[i]
	}

	for i := range after.Details {
		cur := &after.Details[i]
		prev, existed := beforeDetails[cur.ID]
		if !existed || !sameDetailFields(prev, cur) {
			changes.Details = append(changes.Details, *cur)
		}

		prevRelations := make(map[uuid.UUID]models.OwnerRelation)
		if existed {
			for _, rel := range prev.OwnerRelations {
				prevRelations[rel.ID] = rel
			}
		}
		for _, rel := range cur.OwnerRelations {
			old, ok := prevRelations[rel.ID]
			if !ok || !sameRelation(old, rel) {
				changes.Relations = append(changes.Relations, rel)
			}
			delete(prevRelations, rel.ID)
		}
		if existed {
			for _, rel := range prev.OwnerRelations {
				if _, gone := prevRelations[rel.ID]; gone {
					changes.DeletedRelations = append(changes.DeletedRelations, rel.ID)
				}
			}
		}
	}

	return changes
}

func sameDetailFields(a, b *models.EntryDetail) bool {
	if a.EntryID != b.EntryID || a.Type != b.Type || a.Status != b.Status ||
		a.InvalidReason != b.InvalidReason || a.OldOwnerName != b.OldOwnerName ||
		a.EqualDistribution != b.EqualDistribution {
		return false
	}
	if !sameTime(a.EffectiveDate, b.EffectiveDate) {
		return false
	}
	if (a.Order == nil) != (b.Order == nil) || (a.Order != nil && *a.Order != *b.Order) {
		return false
	}
	if (a.Sale == nil) != (b.Sale == nil) {
		return false
	}
	if a.Sale != nil && (!sameTime(a.Sale.SDDate, b.Sale.SDDate) || !a.Sale.Amount.Equal(b.Sale.Amount)) {
		return false
	}
	if len(a.AffectedEntries) != len(b.AffectedEntries) {
		return false
	}
	for i := range a.AffectedEntries {
		if a.AffectedEntries[i] != b.AffectedEntries[i] {
			return false
		}
	}
	return true
}

func sameRelation(a, b models.OwnerRelation) bool {
	if a.OwnerName != b.OwnerName || a.IsValid != b.IsValid || a.DetailID != b.DetailID {
		return false
	}
	if a.Area.Unit != b.Area.Unit || !a.Area.InSquareMeters().Equal(b.Area.InSquareMeters()) {
		return false
	}
	if (a.SurveyNumberOverride == nil) != (b.SurveyNumberOverride == nil) {
		return false
	}
	return a.SurveyNumberOverride == nil || *a.SurveyNumberOverride == *b.SurveyNumberOverride
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
