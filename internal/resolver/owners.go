package resolver

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// PreviousOwner is an owner's most recent known holding before an entry.
type PreviousOwner struct {
	Name string      `json:"name" yaml:"name"`
	Area models.Area `json:"remainingArea" yaml:"remainingArea"`
}

type holding struct {
	sqm  decimal.Decimal
	unit models.AreaUnit
}

// PreviousOwners returns the pool of owners a transfer at currentEntryID may
// draw from, in order of first appearance. Only entries before the current one
// that list the survey number are walked; an empty number walks all of them.
// An entry id that is not in the chain is treated as a new entry placed last.
//
// Entries are skipped on their own status (Invalid or Nullified), not on the
// derived validity of their relations, so an entry flipped invalid by a later
// invalidation still contributes to the pool.
func PreviousOwners(c *Chain, sn models.SurveyNumber, currentEntryID uuid.UUID) []PreviousOwner {
	limit, ok := c.Position(currentEntryID)
	if !ok {
		limit = c.Len()
	}

	pool := make(map[string]holding)
	var names []string
	store := func(name string, h holding) {
		if _, seen := pool[name]; !seen {
			names = append(names, name)
		}
		pool[name] = h
	}

	for _, item := range c.Items[:limit] {
		d := item.Detail
		if d == nil || d.Status.Excluded() || !d.Type.AffectsHoldings() {
			continue
		}
		if sn.Number != "" && !item.Entry.AffectedSurveyNumbers.Contains(sn) {
			continue
		}

		if d.Type.IsTransfer() && d.OldOwnerName != "" {
			prior, known := pool[d.OldOwnerName]
			if !known {
				prior = holding{sqm: decimal.Zero, unit: models.UnitSquareMeters}
				if i := relationByName(d, d.OldOwnerName); i >= 0 {
					rel := d.OwnerRelations[i]
					prior = holding{sqm: rel.Area.InSquareMeters(), unit: unitOf(rel.Area)}
				}
			}
			remaining := prior.sqm.Sub(newOwnerTotal(d, uuid.Nil))
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}
			store(d.OldOwnerName, holding{sqm: remaining, unit: prior.unit})
		}

		for _, rel := range d.OwnerRelations {
			if !d.IsNewOwner(rel) {
				continue
			}
			store(rel.OwnerName, holding{sqm: rel.Area.InSquareMeters(), unit: unitOf(rel.Area)})
		}
	}

	out := make([]PreviousOwner, len(names))
	for i, name := range names {
		h := pool[name]
		out[i] = PreviousOwner{Name: name, Area: models.FromSquareMeters(h.sqm, h.unit)}
	}
	return out
}

// RemainingArea returns the owner's holding in square meters from the pool.
// The second result is false when the owner does not appear in it.
func RemainingArea(pool []PreviousOwner, name string) (decimal.Decimal, bool) {
	for _, owner := range pool {
		if owner.Name == name {
			return owner.Area.InSquareMeters(), true
		}
	}
	return decimal.Zero, false
}

func relationByName(d *models.EntryDetail, name string) int {
	for i := range d.OwnerRelations {
		if d.OwnerRelations[i].OwnerName == name {
			return i
		}
	}
	return -1
}

// newOwnerTotal sums the new-owner areas of the detail in square meters,
// leaving out the relation with the excluded id.
func newOwnerTotal(d *models.EntryDetail, excluded uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, rel := range d.OwnerRelations {
		if excluded != uuid.Nil && rel.ID == excluded {
			continue
		}
		if d.IsNewOwner(rel) {
			total = total.Add(rel.Area.InSquareMeters())
		}
	}
	return total
}

func unitOf(a models.Area) models.AreaUnit {
	if a.Unit == "" {
		return models.UnitSquareMeters
	}
	return a.Unit
}

// DateBounds returns the earliest and latest effective date the entry may take:
// one day after the preceding entry's date and one day before the following
// entry's date. A bound is nil when there is no neighbour with a date.
func DateBounds(c *Chain, entryID uuid.UUID) (minDate, maxDate *time.Time, err error) {
	pos, ok := c.Position(entryID)
	if !ok {
		return nil, nil, ErrUnknownEntry
	}

	for i := pos - 1; i >= 0; i-- {
		if d := c.Items[i].Detail; d != nil {
			if d.EffectiveDate != nil {
				bound := d.EffectiveDate.AddDate(0, 0, 1)
				minDate = &bound
			}
			break
		}
	}
	for i := pos + 1; i < c.Len(); i++ {
		if d := c.Items[i].Detail; d != nil {
			if d.EffectiveDate != nil {
				bound := d.EffectiveDate.AddDate(0, 0, -1)
				maxDate = &bound
			}
			break
		}
	}
	return minDate, maxDate, nil
}

// ValidateEffectiveDate rejects a date outside the entry's DateBounds.
func ValidateEffectiveDate(c *Chain, entryID uuid.UUID, date time.Time) error {
	minDate, maxDate, err := DateBounds(c, entryID)
	if err != nil {
		return err
	}
	day := truncateDay(date)
	if minDate != nil && day.Before(truncateDay(*minDate)) {
		return newValidationError("effectiveDate", "must be on or after %s", minDate.Format(dateLayout))
	}
	if maxDate != nil && day.After(truncateDay(*maxDate)) {
		return newValidationError("effectiveDate", "must be on or before %s", maxDate.Format(dateLayout))
	}
	return nil
}

const dateLayout = "2006-01-02"

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
