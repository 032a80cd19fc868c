// Package snapshotio reads land-record snapshots from YAML or JSON files and
// writes resolved reports back out. Entries in a file refer to each other by a
// file-local key so fixtures can be written by hand without uuids.
package snapshotio

// Document is the on-disk shape of a snapshot.
type Document struct {
	RecordID  string        `json:"recordId,omitempty" yaml:"recordId,omitempty"`
	Universe  []SurveyDoc   `json:"universe" yaml:"universe"`
	YearSlabs []YearSlabDoc `json:"yearSlabs,omitempty" yaml:"yearSlabs,omitempty"`
	Entries   []EntryDoc    `json:"entries" yaml:"entries"`
}

type SurveyDoc struct {
	Number string `json:"number" yaml:"number"`
	Kind   string `json:"kind" yaml:"kind"`
}

// AreaDoc holds either SquareMeters or Acres and Gunthas.
type AreaDoc struct {
	SquareMeters *float64 `json:"sqm,omitempty" yaml:"sqm,omitempty"`
	Acres        *float64 `json:"acres,omitempty" yaml:"acres,omitempty"`
	Gunthas      *float64 `json:"gunthas,omitempty" yaml:"gunthas,omitempty"`
}

type SubEntryDoc struct {
	SurveyNumber SurveyDoc `json:"surveyNumber" yaml:"surveyNumber"`
	Area         AreaDoc   `json:"area" yaml:"area"`
}

type YearSlabDoc struct {
	StartYear            int           `json:"startYear" yaml:"startYear"`
	EndYear              int           `json:"endYear" yaml:"endYear"`
	Area                 AreaDoc       `json:"area" yaml:"area"`
	SurveyNumbers        []SurveyDoc   `json:"surveyNumbers,omitempty" yaml:"surveyNumbers,omitempty"`
	PaikyEntries         []SubEntryDoc `json:"paikyEntries,omitempty" yaml:"paikyEntries,omitempty"`
	ConsolidationEntries []SubEntryDoc `json:"consolidationEntries,omitempty" yaml:"consolidationEntries,omitempty"`
}

type EntryDoc struct {
	Key            string      `json:"key" yaml:"key"`
	ID             string      `json:"id,omitempty" yaml:"id,omitempty"`
	DisplayNumber  string      `json:"displayNumber,omitempty" yaml:"displayNumber,omitempty"`
	SequenceNumber int         `json:"sequenceNumber" yaml:"sequenceNumber"`
	CreatedAt      string      `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	SurveyNumbers  []SurveyDoc `json:"surveyNumbers" yaml:"surveyNumbers"`
	Detail         *DetailDoc  `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type DetailDoc struct {
	Type              string       `json:"type" yaml:"type"`
	Status            string       `json:"status,omitempty" yaml:"status,omitempty"`
	InvalidReason     string       `json:"invalidReason,omitempty" yaml:"invalidReason,omitempty"`
	EffectiveDate     string       `json:"effectiveDate,omitempty" yaml:"effectiveDate,omitempty"`
	OldOwnerName      string       `json:"oldOwnerName,omitempty" yaml:"oldOwnerName,omitempty"`
	Authority         string       `json:"authority,omitempty" yaml:"authority,omitempty"`
	Ganot             string       `json:"ganot,omitempty" yaml:"ganot,omitempty"`
	SDDate            string       `json:"sdDate,omitempty" yaml:"sdDate,omitempty"`
	Amount            *float64     `json:"amount,omitempty" yaml:"amount,omitempty"`
	EqualDistribution bool         `json:"equalDistribution,omitempty" yaml:"equalDistribution,omitempty"`
	Affects           []AffectsDoc `json:"affects,omitempty" yaml:"affects,omitempty"`
	Owners            []OwnerDoc   `json:"owners,omitempty" yaml:"owners,omitempty"`
}

type AffectsDoc struct {
	Entry  string `json:"entry" yaml:"entry"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type OwnerDoc struct {
	Name                 string     `json:"name" yaml:"name"`
	Area                 AreaDoc    `json:"area" yaml:"area"`
	SurveyNumberOverride *SurveyDoc `json:"surveyNumberOverride,omitempty" yaml:"surveyNumberOverride,omitempty"`
}
