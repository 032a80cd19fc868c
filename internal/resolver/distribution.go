package resolver

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// shareScale is the number of decimal places kept for an equal share in m².
// Shares are truncated so their sum never exceeds the distributed area.
const shareScale = 4

// SlabFor returns the year slab covering the year of the date for the survey
// number. A slab applies when it lists the survey number, directly or through a
// sub-entry, or lists none at all. An empty survey number matches by year only.
// When several slabs apply the one with the earliest start year wins.
func SlabFor(slabs []models.YearSlab, sn models.SurveyNumber, date *time.Time) (models.YearSlab, bool) {
	if date == nil {
		return models.YearSlab{}, false
	}
	sorted := slices.Clone(slabs)
	slices.SortStableFunc(sorted, func(a, b models.YearSlab) int {
		return a.StartYear - b.StartYear
	})
	year := date.Year()
	for _, slab := range sorted {
		if !slab.Covers(year) {
			continue
		}
		if all := slab.AllSurveyNumbers(); sn.Number == "" || len(all) == 0 || all.Contains(sn) {
			return slab, true
		}
	}
	return models.YearSlab{}, false
}

// Limits are the caps on an entry's new-owner total, in square meters.
// A nil field means the cap does not apply.
type Limits struct {
	OldOwnerRemaining *decimal.Decimal
	SlabCapacity      *decimal.Decimal
}

// Effective returns the tighter of the two caps, or false when neither applies.
func (l Limits) Effective() (decimal.Decimal, bool) {
	switch {
	case l.OldOwnerRemaining != nil && l.SlabCapacity != nil:
		return decimal.Min(*l.OldOwnerRemaining, *l.SlabCapacity), true
	case l.OldOwnerRemaining != nil:
		return *l.OldOwnerRemaining, true
	case l.SlabCapacity != nil:
		return *l.SlabCapacity, true
	}
	return decimal.Zero, false
}

// LimitsFor computes the caps for the entry from the chain and year slabs.
// Transfer entries are capped by the old owner's remaining area, which is zero
// when the old owner is not in the previous-owner pool. Every entry is capped
// by the slab covering its primary survey number and effective date, if any.
func LimitsFor(c *Chain, universe models.SurveyUniverse, slabs []models.YearSlab, entryID uuid.UUID) (Limits, error) {
	item, ok := c.Item(entryID)
	if !ok {
		return Limits{}, ErrUnknownEntry
	}
	if item.Detail == nil {
		return Limits{}, ErrMissingDetail
	}

	var limits Limits
	d := item.Detail
	sn, _ := PrimarySurveyNumber(item.Entry, universe)
	if d.Type.IsTransfer() && d.OldOwnerName != "" {
		remaining, _ := RemainingArea(PreviousOwners(c, sn, entryID), d.OldOwnerName)
		limits.OldOwnerRemaining = &remaining
	}
	if slab, ok := SlabFor(slabs, sn, d.EffectiveDate); ok {
		capacity := slab.Capacity()
		limits.SlabCapacity = &capacity
	}
	return limits, nil
}

// MaxPermissible returns the largest area the given relation may take without
// breaking either cap: min(remaining - others, capacity - others), floored at
// zero, where others is the new-owner total excluding the relation.
// Passing uuid.Nil counts every new owner as other.
func MaxPermissible(d *models.EntryDetail, limits Limits, relationID uuid.UUID) decimal.Decimal {
	effective, ok := limits.Effective()
	if !ok {
		return decimal.Zero
	}
	maximum := effective.Sub(newOwnerTotal(d, relationID))
	if maximum.IsNegative() {
		return decimal.Zero
	}
	return maximum
}

// ValidateDistribution checks the detail's new-owner total against the caps.
// relationID names the relation being edited; the reported maximum is the most
// that relation may take, in unit.
func ValidateDistribution(d *models.EntryDetail, limits Limits, relationID uuid.UUID, unit models.AreaUnit) error {
	total := newOwnerTotal(d, uuid.Nil)
	exceeded := func(limit AreaLimit) error {
		return &AreaExceededError{
			Limit:     limit,
			Requested: total,
			Maximum:   MaxPermissible(d, limits, relationID),
			Unit:      unit,
		}
	}
	if limits.OldOwnerRemaining != nil && total.GreaterThan(*limits.OldOwnerRemaining) {
		return exceeded(LimitOldOwnerRemaining)
	}
	if limits.SlabCapacity != nil && total.GreaterThan(*limits.SlabCapacity) {
		return exceeded(LimitYearSlabCapacity)
	}
	return nil
}

// ApplyEqualDistribution sets every new owner's area to an equal share of the
// tighter cap. Without any cap the current new-owner total is shared out.
// Each share keeps the unit of the relation it is written to.
func ApplyEqualDistribution(d *models.EntryDetail, limits Limits) {
	count := 0
	for _, rel := range d.OwnerRelations {
		if d.IsNewOwner(rel) {
			count++
		}
	}
	if count == 0 {
		return
	}

	effective, ok := limits.Effective()
	if !ok {
		effective = newOwnerTotal(d, uuid.Nil)
	}
	if effective.IsNegative() {
		effective = decimal.Zero
	}
	share := effective.Div(decimal.NewFromInt(int64(count))).Truncate(shareScale)

	for i, rel := range d.OwnerRelations {
		if !d.IsNewOwner(rel) {
			continue
		}
		d.OwnerRelations[i].Area = models.FromSquareMeters(share, unitOf(rel.Area))
	}
}
