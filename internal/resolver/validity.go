package resolver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// buildChain orders the snapshot and pairs each entry with its detail.
// Duplicate entry ids or two details for one entry make the snapshot corrupt;
// a detail whose entry is missing is reported and left out of the chain.
func buildChain(s *Snapshot) (*Chain, []*ReferentialError, error) {
	known := make(map[uuid.UUID]struct{}, len(s.Entries))
	for _, e := range s.Entries {
		if _, dup := known[e.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate entry %s", ErrCorruptSnapshot, e.ID)
		}
		known[e.ID] = struct{}{}
	}

	var warnings []*ReferentialError
	details := make(map[uuid.UUID]*models.EntryDetail, len(s.Details))
	for i := range s.Details {
		d := &s.Details[i]
		if _, ok := known[d.EntryID]; !ok {
			warnings = append(warnings, &ReferentialError{MissingID: d.EntryID, Reference: "detail " + d.ID.String()})
			continue
		}
		if _, dup := details[d.EntryID]; dup {
			return nil, nil, fmt.Errorf("%w: entry %s has more than one detail", ErrCorruptSnapshot, d.EntryID)
		}
		details[d.EntryID] = d
	}

	ordered := Order(s.Entries, s.Universe)
	items := make([]ChainItem, len(ordered))
	for i, e := range ordered {
		items[i] = ChainItem{Entry: e, Detail: details[e.ID]}
	}
	return newChain(items), warnings, nil
}

// checkReferences walks the affected-entry annotations. Dangling targets are
// returned as warnings; a cycle, including an entry that affects itself, is fatal.
func checkReferences(c *Chain) ([]*ReferentialError, error) {
	var warnings []*ReferentialError
	edges := make(map[uuid.UUID][]uuid.UUID)
	for _, item := range c.Items {
		if item.Detail == nil {
			continue
		}
		for _, ref := range item.Detail.AffectedEntries {
			if _, ok := c.Position(ref.EntryID); !ok {
				warnings = append(warnings, &ReferentialError{
					EntryID:   item.Entry.ID,
					MissingID: ref.EntryID,
					Reference: "affected entry",
				})
				continue
			}
			edges[item.Entry.ID] = append(edges[item.Entry.ID], ref.EntryID)
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[uuid.UUID]int, c.Len())
	var visit func(id uuid.UUID) error
	visit = func(id uuid.UUID) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: entry %s", ErrCyclicReference, id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, next := range edges[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, item := range c.Items {
		if state[item.Entry.ID] != unvisited {
			continue
		}
		if err := visit(item.Entry.ID); err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}

// applyValidity sets IsValid on every relation. An entry's relations are valid
// when the number of later entries with status Invalid is even and the entry
// is not itself Invalid or Nullified.
func applyValidity(c *Chain) {
	laterInvalid := 0
	for i := len(c.Items) - 1; i >= 0; i-- {
		d := c.Items[i].Detail
		if d == nil {
			continue
		}
		valid := laterInvalid%2 == 0 && !d.Status.Excluded()
		for j := range d.OwnerRelations {
			d.OwnerRelations[j].IsValid = valid
		}
		if d.Status == models.StatusInvalid {
			laterInvalid++
		}
	}
}

// propagateReasons copies each non-empty annotation reason of the detail onto
// the target entry's invalid reason. Later annotations win.
func propagateReasons(s *Snapshot, source *models.EntryDetail) []*ReferentialError {
	var warnings []*ReferentialError
	for _, ref := range source.AffectedEntries {
		if ref.Reason == "" {
			continue
		}
		if s.entryIndex(ref.EntryID) < 0 {
			warnings = append(warnings, &ReferentialError{
				EntryID:   source.EntryID,
				MissingID: ref.EntryID,
				Reference: "affected entry",
			})
			continue
		}
		if target := s.detail(ref.EntryID); target != nil {
			target.InvalidReason = ref.Reason
		}
	}
	return warnings
}
