package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NondhType is the kind of amendment an entry records.
type NondhType string

const (
	TypePossession      NondhType = "possession"
	TypeConsolidation   NondhType = "consolidation"
	TypeInheritance     NondhType = "inheritance"
	TypeLifetimeRight   NondhType = "lifetime_right"
	TypeRightsReduction NondhType = "rights_reduction"
	TypeSale            NondhType = "sale"
	TypeCorrection      NondhType = "correction"
	TypePromulgation    NondhType = "promulgation"
	TypeOrder           NondhType = "order"     // Hukam
	TypePartition       NondhType = "partition" // Vehchani
	TypeEncumbrance     NondhType = "encumbrance"
	TypeOther           NondhType = "other"
)

var knownTypes = map[NondhType]struct{}{
	TypePossession: {}, TypeConsolidation: {}, TypeInheritance: {}, TypeLifetimeRight: {},
	TypeRightsReduction: {}, TypeSale: {}, TypeCorrection: {}, TypePromulgation: {},
	TypeOrder: {}, TypePartition: {}, TypeEncumbrance: {}, TypeOther: {},
}

// Valid reports whether t is a known nondh type.
func (t NondhType) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// IsTransfer reports whether the type moves area away from an old owner.
// Transfer types require OldOwnerName.
func (t NondhType) IsTransfer() bool {
	switch t {
	case TypeSale, TypeInheritance, TypeRightsReduction, TypeLifetimeRight, TypePartition:
		return true
	}
	return false
}

// AffectsHoldings reports whether entries of this type take part in the
// previous-owner walk. Possession and consolidation declare holdings without an
// old owner; the transfer types move them.
func (t NondhType) AffectsHoldings() bool {
	return t.IsTransfer() || t == TypePossession || t == TypeConsolidation
}

// UsesSurveyOverride reports whether relations may carry their own survey number.
func (t NondhType) UsesSurveyOverride() bool {
	return t == TypeCorrection || t == TypePromulgation
}

// Status is the administrative status of an entry.
type Status string

const (
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusNullified Status = "nullified"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusValid || s == StatusInvalid || s == StatusNullified
}

// Excluded reports whether entries with this status are left out of holdings.
func (s Status) Excluded() bool {
	return s == StatusInvalid || s == StatusNullified
}

// OrderAuthority is the office that issued an order (Hukam).
type OrderAuthority string

const (
	AuthorityMamlatdar       OrderAuthority = "mamlatdar"
	AuthorityPrantOfficer    OrderAuthority = "prant_officer"
	AuthorityCollector       OrderAuthority = "collector"
	AuthoritySSRD            OrderAuthority = "ssrd"
	AuthorityRevenueTribunal OrderAuthority = "revenue_tribunal"
	AuthorityCourt           OrderAuthority = "court"
	AuthorityOther           OrderAuthority = "other"
)

// Valid reports whether a is a known authority.
func (a OrderAuthority) Valid() bool {
	switch a {
	case AuthorityMamlatdar, AuthorityPrantOfficer, AuthorityCollector, AuthoritySSRD,
		AuthorityRevenueTribunal, AuthorityCourt, AuthorityOther:
		return true
	}
	return false
}

// Ganot distinguishes the displaced prior claim from the new claim of an order.
type Ganot string

const (
	GanotNone        Ganot = ""
	GanotFirstRight  Ganot = "first_right"
	GanotSecondRight Ganot = "second_right"
)

// Valid reports whether g is a known ganot election.
func (g Ganot) Valid() bool {
	return g == GanotNone || g == GanotFirstRight || g == GanotSecondRight
}

// OrderDetails holds the fields only present on order entries.
type OrderDetails struct {
	Authority OrderAuthority `json:"authority" yaml:"authority"`
	Ganot     Ganot          `json:"ganot,omitempty" yaml:"ganot,omitempty"`
}

// SaleDetails holds the fields only present on sale entries.
type SaleDetails struct {
	SDDate *time.Time      `json:"sdDate,omitempty" yaml:"sdDate,omitempty"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// AffectedEntry marks another entry as affected by an order, with the reason
// that is copied onto the target's invalid reason.
type AffectedEntry struct {
	EntryID uuid.UUID `json:"entryId" yaml:"entryId"`
	Reason  string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// AffectedEntryList is stored as a JSONB array alongside the detail row.
type AffectedEntryList []AffectedEntry

// Scan implements sql.Scanner for JSONB columns.
func (l *AffectedEntryList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan AffectedEntryList: expected []byte or string, got %T", value)
	}

	var decoded []AffectedEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal affected entries: %w", err)
	}
	*l = decoded
	return nil
}

// Value implements driver.Valuer.
func (l AffectedEntryList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]AffectedEntry(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal affected entries: %w", err)
	}
	return string(data), nil
}

// Entry is one nondh: a land-record amendment in the chain of title.
type Entry struct {
	CreatedAt             time.Time        `json:"createdAt"`
	DocumentRef           *string          `json:"documentRef,omitempty"`
	DisplayNumber         string           `json:"displayNumber,omitempty"`
	AffectedSurveyNumbers SurveyNumberList `json:"affectedSurveyNumbers"`
	SequenceNumber        int              `json:"sequenceNumber"`
	ID                    uuid.UUID        `json:"id"`
	RecordID              uuid.UUID        `json:"recordId"`
}

// OwnerRelation is one owner's share within an entry detail.
// IsValid is derived by the resolver and never edited directly.
type OwnerRelation struct {
	SurveyNumberOverride *SurveyNumber `json:"surveyNumberOverride,omitempty"`
	OwnerName            string        `json:"ownerName"`
	Area                 Area          `json:"area"`
	ID                   uuid.UUID     `json:"id"`
	DetailID             uuid.UUID     `json:"detailId"`
	IsValid              bool          `json:"isValid"`
}

// EntryDetail is the substantive content of an Entry.
// Type decides which of OldOwnerName, Order and Sale are meaningful.
type EntryDetail struct {
	CreatedAt         time.Time         `json:"createdAt"`
	EffectiveDate     *time.Time        `json:"effectiveDate,omitempty"`
	Order             *OrderDetails     `json:"order,omitempty"`
	Sale              *SaleDetails      `json:"sale,omitempty"`
	Type              NondhType         `json:"type"`
	Status            Status            `json:"status"`
	InvalidReason     string            `json:"invalidReason,omitempty"`
	OldOwnerName      string            `json:"oldOwnerName,omitempty"`
	AffectedEntries   AffectedEntryList `json:"affectedEntries,omitempty"`
	OwnerRelations    []OwnerRelation   `json:"ownerRelations"`
	ID                uuid.UUID         `json:"id"`
	EntryID           uuid.UUID         `json:"entryId"`
	EqualDistribution bool              `json:"equalDistribution"`
}

// IsNewOwner reports whether the relation receives area in this entry, i.e.
// it is not the old owner of a transfer.
func (d *EntryDetail) IsNewOwner(rel OwnerRelation) bool {
	if !d.Type.IsTransfer() || d.OldOwnerName == "" {
		return true
	}
	return rel.OwnerName != d.OldOwnerName
}

// RelationIndex returns the index of the relation with the given id, or -1.
func (d *EntryDetail) RelationIndex(id uuid.UUID) int {
	for i := range d.OwnerRelations {
		if d.OwnerRelations[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the detail.
func (d EntryDetail) Clone() EntryDetail {
	out := d
	if d.EffectiveDate != nil {
		date := *d.EffectiveDate
		out.EffectiveDate = &date
	}
	if d.Order != nil {
		order := *d.Order
		out.Order = &order
	}
	if d.Sale != nil {
		sale := *d.Sale
		if d.Sale.SDDate != nil {
			sd := *d.Sale.SDDate
			sale.SDDate = &sd
		}
		out.Sale = &sale
	}
	if d.AffectedEntries != nil {
		out.AffectedEntries = append(AffectedEntryList(nil), d.AffectedEntries...)
	}
	if d.OwnerRelations != nil {
		out.OwnerRelations = make([]OwnerRelation, len(d.OwnerRelations))
		for i, rel := range d.OwnerRelations {
			if rel.SurveyNumberOverride != nil {
				sn := *rel.SurveyNumberOverride
				rel.SurveyNumberOverride = &sn
			}
			out.OwnerRelations[i] = rel
		}
	}
	return out
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	if e.DocumentRef != nil {
		ref := *e.DocumentRef
		out.DocumentRef = &ref
	}
	if e.AffectedSurveyNumbers != nil {
		out.AffectedSurveyNumbers = append(SurveyNumberList(nil), e.AffectedSurveyNumbers...)
	}
	return out
}
