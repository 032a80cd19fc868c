package snapshotio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
)

// Report is the printable outcome of resolving a snapshot.
type Report struct {
	RecordID string         `json:"recordId" yaml:"recordId"`
	Chain    []ChainLine    `json:"chain" yaml:"chain"`
	Passbook []PassbookLine `json:"passbook" yaml:"passbook"`
	Warnings []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type ChainLine struct {
	Position       int         `json:"position" yaml:"position"`
	Key            string      `json:"key,omitempty" yaml:"key,omitempty"`
	EntryID        string      `json:"entryId" yaml:"entryId"`
	SequenceNumber int         `json:"sequenceNumber" yaml:"sequenceNumber"`
	Type           string      `json:"type,omitempty" yaml:"type,omitempty"`
	Status         string      `json:"status,omitempty" yaml:"status,omitempty"`
	InvalidReason  string      `json:"invalidReason,omitempty" yaml:"invalidReason,omitempty"`
	EffectiveDate  string      `json:"effectiveDate,omitempty" yaml:"effectiveDate,omitempty"`
	Owners         []OwnerLine `json:"owners,omitempty" yaml:"owners,omitempty"`
	Issues         []string    `json:"issues,omitempty" yaml:"issues,omitempty"`
}

type OwnerLine struct {
	Name             string `json:"name" yaml:"name"`
	Area             string `json:"area" yaml:"area"`
	AreaSquareMeters string `json:"areaSquareMeters" yaml:"areaSquareMeters"`
	Valid            bool   `json:"valid" yaml:"valid"`
}

type PassbookLine struct {
	Year                int    `json:"year" yaml:"year"`
	OwnerName           string `json:"ownerName" yaml:"ownerName"`
	AreaSquareMeters    string `json:"areaSquareMeters" yaml:"areaSquareMeters"`
	SurveyNumber        string `json:"surveyNumber" yaml:"surveyNumber"`
	EntrySequenceNumber int    `json:"entrySequenceNumber" yaml:"entrySequenceNumber"`
}

// BuildReport renders a resolved snapshot. keys maps entry ids back to the
// keys used in the source file and may be nil.
func BuildReport(res *resolver.Result, keys map[uuid.UUID]string) Report {
	issues := resolver.ValidateSnapshot(res.Snapshot)
	report := Report{
		RecordID: res.Snapshot.RecordID.String(),
		Chain:    make([]ChainLine, 0, res.Chain.Len()),
	}

	for i, item := range res.Chain.Items {
		line := ChainLine{
			Position:       i + 1,
			Key:            keys[item.Entry.ID],
			EntryID:        item.Entry.ID.String(),
			SequenceNumber: item.Entry.SequenceNumber,
		}
		if d := item.Detail; d != nil {
			line.Type = string(d.Type)
			line.Status = string(d.Status)
			line.InvalidReason = d.InvalidReason
			if d.EffectiveDate != nil {
				line.EffectiveDate = d.EffectiveDate.Format(dateLayout)
			}
			for _, rel := range d.OwnerRelations {
				line.Owners = append(line.Owners, OwnerLine{
					Name:             rel.OwnerName,
					Area:             rel.Area.String(),
					AreaSquareMeters: rel.Area.InSquareMeters().StringFixed(2),
					Valid:            rel.IsValid,
				})
			}
		}
		for _, issue := range issues[item.Entry.ID] {
			line.Issues = append(line.Issues, issue.Error())
		}
		report.Chain = append(report.Chain, line)
	}

	for _, row := range resolver.Passbook(res.Chain, res.Snapshot.Universe) {
		report.Passbook = append(report.Passbook, PassbookLine{
			Year:                row.Year,
			OwnerName:           row.OwnerName,
			AreaSquareMeters:    row.Area.StringFixed(2),
			SurveyNumber:        row.SurveyNumber.String(),
			EntrySequenceNumber: row.EntrySequenceNumber,
		})
	}

	for _, w := range res.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}
	return report
}

// WriteReport encodes the report in the given format.
func WriteReport(w io.Writer, format Format, report Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}
