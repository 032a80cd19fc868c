package resolver

import (
	"cmp"
	"slices"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

type sortKey struct {
	usable   bool
	priority int
	sequence int
}

func keyFor(e models.Entry, universe models.SurveyUniverse) sortKey {
	filtered := universe.Filter(e.AffectedSurveyNumbers)
	primary, ok := filtered.Primary()
	if !ok {
		return sortKey{priority: models.UnknownKindPriority, sequence: e.SequenceNumber}
	}
	return sortKey{usable: true, priority: primary.Kind.Priority(), sequence: e.SequenceNumber}
}

// compareKeys orders entries by primary kind priority then sequence number.
// Entries without a survey number from the universe go last and compare equal
// to each other, so a stable sort keeps their insertion order.
func compareKeys(a, b sortKey) int {
	switch {
	case a.usable && !b.usable:
		return -1
	case !a.usable && b.usable:
		return 1
	case !a.usable && !b.usable:
		return 0
	}
	if c := cmp.Compare(a.priority, b.priority); c != 0 {
		return c
	}
	return cmp.Compare(a.sequence, b.sequence)
}

// Order returns the entries in chain order. The input slice is not modified.
// Effective dates are never used as a sort key.
func Order(entries []models.Entry, universe models.SurveyUniverse) []models.Entry {
	type keyed struct {
		entry models.Entry
		key   sortKey
	}
	items := make([]keyed, len(entries))
	for i, e := range entries {
		items[i] = keyed{entry: e, key: keyFor(e, universe)}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return compareKeys(a.key, b.key)
	})

	out := make([]models.Entry, len(items))
	for i, item := range items {
		out[i] = item.entry
	}
	return out
}

// PrimarySurveyNumber returns the entry's highest priority survey number that is
// part of the universe, falling back to its raw list when none is.
func PrimarySurveyNumber(e models.Entry, universe models.SurveyUniverse) (models.SurveyNumber, bool) {
	if sn, ok := universe.Filter(e.AffectedSurveyNumbers).Primary(); ok {
		return sn, true
	}
	return e.AffectedSurveyNumbers.Primary()
}
