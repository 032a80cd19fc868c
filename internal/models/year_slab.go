package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SlabSubEntry is a named part of a year slab (a paiky or consolidation entry).
type SlabSubEntry struct {
	SurveyNumber SurveyNumber `json:"surveyNumber" yaml:"surveyNumber"`
	Area         Area         `json:"area" yaml:"area"`
}

// YearSlab caps the area that may be distributed for entries dated within
// [StartYear, EndYear].
type YearSlab struct {
	SurveyNumbers        SurveyNumberList `json:"surveyNumbers"`
	PaikyEntries         []SlabSubEntry   `json:"paikyEntries,omitempty"`
	ConsolidationEntries []SlabSubEntry   `json:"consolidationEntries,omitempty"`
	Area                 Area             `json:"area"`
	StartYear            int              `json:"startYear"`
	EndYear              int              `json:"endYear"`
	ID                   uuid.UUID        `json:"id"`
}

// Covers reports whether the year falls inside the slab, bounds included.
func (s YearSlab) Covers(year int) bool {
	return year >= s.StartYear && year <= s.EndYear
}

// Capacity returns the slab's effective capacity in square meters.
// When sub-entries exist their areas replace the slab's base area.
func (s YearSlab) Capacity() decimal.Decimal {
	if len(s.PaikyEntries) == 0 && len(s.ConsolidationEntries) == 0 {
		return s.Area.InSquareMeters()
	}
	total := decimal.Zero
	for _, sub := range s.PaikyEntries {
		total = total.Add(sub.Area.InSquareMeters())
	}
	for _, sub := range s.ConsolidationEntries {
		total = total.Add(sub.Area.InSquareMeters())
	}
	return total
}

// AllSurveyNumbers returns the slab's survey numbers plus those of its sub-entries.
func (s YearSlab) AllSurveyNumbers() SurveyNumberList {
	out := append(SurveyNumberList(nil), s.SurveyNumbers...)
	for _, sub := range s.PaikyEntries {
		out = append(out, sub.SurveyNumber)
	}
	for _, sub := range s.ConsolidationEntries {
		out = append(out, sub.SurveyNumber)
	}
	return out
}

// PassbookRow is one line of the year-by-year ledger of valid holdings.
type PassbookRow struct {
	OwnerName           string          `json:"ownerName" yaml:"ownerName"`
	SurveyNumber        SurveyNumber    `json:"surveyNumber" yaml:"surveyNumber"`
	Area                decimal.Decimal `json:"areaSquareMeters" yaml:"areaSquareMeters"`
	Year                int             `json:"year" yaml:"year"`
	EntrySequenceNumber int             `json:"entrySequenceNumber" yaml:"entrySequenceNumber"`
}
