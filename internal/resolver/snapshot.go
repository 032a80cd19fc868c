package resolver

import (
	"github.com/google/uuid"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// Snapshot is everything the resolver needs to know about one land record.
// Entries keep their insertion order, which breaks ties between entries that
// have no usable survey number.
type Snapshot struct {
	RecordID  uuid.UUID
	Entries   []models.Entry
	Details   []models.EntryDetail
	Universe  models.SurveyUniverse
	YearSlabs []models.YearSlab
}

// Clone returns a deep copy of the entries and details. The universe and year
// slabs are read-only inputs and are shared.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		RecordID:  s.RecordID,
		Universe:  s.Universe,
		YearSlabs: s.YearSlabs,
	}
	if s.Entries != nil {
		out.Entries = make([]models.Entry, len(s.Entries))
		for i, e := range s.Entries {
			out.Entries[i] = e.Clone()
		}
	}
	if s.Details != nil {
		out.Details = make([]models.EntryDetail, len(s.Details))
		for i, d := range s.Details {
			out.Details[i] = d.Clone()
		}
	}
	return out
}

func (s *Snapshot) detail(entryID uuid.UUID) *models.EntryDetail {
	for i := range s.Details {
		if s.Details[i].EntryID == entryID {
			return &s.Details[i]
		}
	}
	return nil
}

func (s *Snapshot) entryIndex(entryID uuid.UUID) int {
	for i := range s.Entries {
		if s.Entries[i].ID == entryID {
			return i
		}
	}
	return -1
}

// ChainItem is one position in the resolved chain of title.
// Detail is nil for an entry whose detail has not been entered yet.
type ChainItem struct {
	Entry  models.Entry
	Detail *models.EntryDetail
}

// Chain is the snapshot's entries in resolution order.
type Chain struct {
	Items []ChainItem
	index map[uuid.UUID]int
}

func newChain(items []ChainItem) *Chain {
	c := &Chain{Items: items, index: make(map[uuid.UUID]int, len(items))}
	for i, item := range items {
		c.index[item.Entry.ID] = i
	}
	return c
}

// Position returns the entry's index in the chain.
func (c *Chain) Position(entryID uuid.UUID) (int, bool) {
	i, ok := c.index[entryID]
	return i, ok
}

// Item returns the chain item for the entry.
func (c *Chain) Item(entryID uuid.UUID) (ChainItem, bool) {
	i, ok := c.index[entryID]
	if !ok {
		return ChainItem{}, false
	}
	return c.Items[i], true
}

// Len returns the number of entries in the chain.
func (c *Chain) Len() int {
	return len(c.Items)
}

// Result is a resolved snapshot. Chain details point into Snapshot.Details.
type Result struct {
	Snapshot Snapshot
	Chain    *Chain
	Warnings []*ReferentialError
}
