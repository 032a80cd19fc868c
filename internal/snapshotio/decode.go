package snapshotio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
)

// Format is a snapshot file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const dateLayout = "2006-01-02"

var ErrUnknownFormat = errors.New("unknown snapshot format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Loaded is a decoded snapshot together with the file keys of its entries.
// Declared holds the record's own survey numbers, without the slab ones.
type Loaded struct {
	Snapshot resolver.Snapshot
	Declared models.SurveyNumberList
	Keys     map[uuid.UUID]string
	IDs      map[string]uuid.UUID
}

// LoadFile reads and decodes a snapshot file.
func LoadFile(path string) (*Loaded, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode(data, format)
}

// Decode parses a snapshot document. Unknown fields are rejected.
func Decode(data []byte, format Format) (*Loaded, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml snapshot: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse json snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return doc.toSnapshot()
}

func (doc Document) toSnapshot() (*Loaded, error) {
	recordID := uuid.New()
	if doc.RecordID != "" {
		id, err := uuid.Parse(doc.RecordID)
		if err != nil {
			return nil, fmt.Errorf("recordId: %w", err)
		}
		recordID = id
	}

	loaded := &Loaded{
		Snapshot: resolver.Snapshot{RecordID: recordID},
		Keys:     make(map[uuid.UUID]string, len(doc.Entries)),
		IDs:      make(map[string]uuid.UUID, len(doc.Entries)),
	}

	universe := surveyList(doc.Universe)
	loaded.Declared = universe
	var slabNumbers []models.SurveyNumberList
	for i, slabDoc := range doc.YearSlabs {
		slab, err := slabDoc.toModel(recordID, i)
		if err != nil {
			return nil, fmt.Errorf("yearSlabs[%d]: %w", i, err)
		}
		loaded.Snapshot.YearSlabs = append(loaded.Snapshot.YearSlabs, slab)
		slabNumbers = append(slabNumbers, slab.AllSurveyNumbers())
	}
	loaded.Snapshot.Universe = models.NewSurveyUniverse(append([]models.SurveyNumberList{universe}, slabNumbers...)...)

	// Keys are resolved first so affects references may point forward.
	for i, e := range doc.Entries {
		if e.Key == "" {
			return nil, fmt.Errorf("entries[%d]: key is required", i)
		}
		if _, dup := loaded.IDs[e.Key]; dup {
			return nil, fmt.Errorf("entries[%d]: duplicate key %q", i, e.Key)
		}
		id := uuid.NewSHA1(recordID, []byte("entry/"+e.Key))
		if e.ID != "" {
			parsed, err := uuid.Parse(e.ID)
			if err != nil {
				return nil, fmt.Errorf("entries[%d].id: %w", i, err)
			}
			id = parsed
		}
		loaded.IDs[e.Key] = id
		loaded.Keys[id] = e.Key
	}

	for i, e := range doc.Entries {
		entry, detail, err := e.toModel(recordID, loaded.IDs)
		if err != nil {
			return nil, fmt.Errorf("entries[%d] (%s): %w", i, e.Key, err)
		}
		loaded.Snapshot.Entries = append(loaded.Snapshot.Entries, entry)
		if detail != nil {
			loaded.Snapshot.Details = append(loaded.Snapshot.Details, *detail)
		}
	}
	return loaded, nil
}

func (e EntryDoc) toModel(recordID uuid.UUID, ids map[string]uuid.UUID) (models.Entry, *models.EntryDetail, error) {
	id := ids[e.Key]
	entry := models.Entry{
		ID:                    id,
		RecordID:              recordID,
		SequenceNumber:        e.SequenceNumber,
		DisplayNumber:         e.DisplayNumber,
		AffectedSurveyNumbers: surveyList(e.SurveyNumbers),
	}
	if e.CreatedAt != "" {
		created, err := parseDate(e.CreatedAt)
		if err != nil {
			return entry, nil, fmt.Errorf("createdAt: %w", err)
		}
		entry.CreatedAt = *created
	}
	if e.Detail == nil {
		return entry, nil, nil
	}

	d := e.Detail
	detail := &models.EntryDetail{
		ID:                uuid.NewSHA1(recordID, []byte("detail/"+e.Key)),
		EntryID:           id,
		Type:              models.NondhType(d.Type),
		Status:            models.Status(d.Status),
		InvalidReason:     d.InvalidReason,
		OldOwnerName:      d.OldOwnerName,
		EqualDistribution: d.EqualDistribution,
		CreatedAt:         entry.CreatedAt,
	}
	if detail.Status == "" {
		detail.Status = models.StatusValid
	}

	var err error
	if d.EffectiveDate != "" {
		if detail.EffectiveDate, err = parseDate(d.EffectiveDate); err != nil {
			return entry, nil, fmt.Errorf("effectiveDate: %w", err)
		}
	}
	if d.Authority != "" || d.Ganot != "" {
		detail.Order = &models.OrderDetails{Authority: models.OrderAuthority(d.Authority), Ganot: models.Ganot(d.Ganot)}
	}
	if d.SDDate != "" || d.Amount != nil {
		detail.Sale = &models.SaleDetails{}
		if d.Amount != nil {
			detail.Sale.Amount = decimal.NewFromFloat(*d.Amount)
		}
		if d.SDDate != "" {
			if detail.Sale.SDDate, err = parseDate(d.SDDate); err != nil {
				return entry, nil, fmt.Errorf("sdDate: %w", err)
			}
		}
	}

	for _, ref := range d.Affects {
		target, ok := ids[ref.Entry]
		if !ok {
			// Kept as a dangling reference; the resolver reports it.
			target = uuid.NewSHA1(recordID, []byte("entry/"+ref.Entry))
		}
		detail.AffectedEntries = append(detail.AffectedEntries, models.AffectedEntry{EntryID: target, Reason: ref.Reason})
	}

	for i, o := range d.Owners {
		area, err := o.Area.toModel()
		if err != nil {
			return entry, nil, fmt.Errorf("owners[%d].area: %w", i, err)
		}
		rel := models.OwnerRelation{
			ID:        uuid.NewSHA1(recordID, []byte(fmt.Sprintf("relation/%s/%d", e.Key, i))),
			DetailID:  detail.ID,
			OwnerName: o.Name,
			Area:      area,
		}
		if o.SurveyNumberOverride != nil {
			sn := o.SurveyNumberOverride.toModel()
			rel.SurveyNumberOverride = &sn
		}
		detail.OwnerRelations = append(detail.OwnerRelations, rel)
	}
	return entry, detail, nil
}

func (s YearSlabDoc) toModel(recordID uuid.UUID, index int) (models.YearSlab, error) {
	area, err := s.Area.toModel()
	if err != nil {
		return models.YearSlab{}, fmt.Errorf("area: %w", err)
	}
	slab := models.YearSlab{
		ID:            uuid.NewSHA1(recordID, []byte(fmt.Sprintf("slab/%d", index))),
		StartYear:     s.StartYear,
		EndYear:       s.EndYear,
		Area:          area,
		SurveyNumbers: surveyList(s.SurveyNumbers),
	}
	if slab.EndYear < slab.StartYear {
		return slab, fmt.Errorf("endYear %d is before startYear %d", slab.EndYear, slab.StartYear)
	}
	for i, sub := range s.PaikyEntries {
		subArea, err := sub.Area.toModel()
		if err != nil {
			return slab, fmt.Errorf("paikyEntries[%d].area: %w", i, err)
		}
		slab.PaikyEntries = append(slab.PaikyEntries, models.SlabSubEntry{SurveyNumber: sub.SurveyNumber.toModel(), Area: subArea})
	}
	for i, sub := range s.ConsolidationEntries {
		subArea, err := sub.Area.toModel()
		if err != nil {
			return slab, fmt.Errorf("consolidationEntries[%d].area: %w", i, err)
		}
		slab.ConsolidationEntries = append(slab.ConsolidationEntries, models.SlabSubEntry{SurveyNumber: sub.SurveyNumber.toModel(), Area: subArea})
	}
	return slab, nil
}

func (a AreaDoc) toModel() (models.Area, error) {
	var area models.Area
	switch {
	case a.SquareMeters != nil && (a.Acres != nil || a.Gunthas != nil):
		return models.Area{}, errors.New("give either sqm or acres/gunthas, not both")
	case a.SquareMeters != nil:
		area = models.SquareMetersArea(decimal.NewFromFloat(*a.SquareMeters))
	case a.Acres != nil || a.Gunthas != nil:
		acres, gunthas := decimal.Zero, decimal.Zero
		if a.Acres != nil {
			acres = decimal.NewFromFloat(*a.Acres)
		}
		if a.Gunthas != nil {
			gunthas = decimal.NewFromFloat(*a.Gunthas)
		}
		area = models.AcreGunthaArea(acres, gunthas)
	default:
		area = models.SquareMetersArea(decimal.Zero)
	}
	if err := area.CheckScale(); err != nil {
		return models.Area{}, err
	}
	return area, nil
}

func (s SurveyDoc) toModel() models.SurveyNumber {
	return models.SurveyNumber{Number: s.Number, Kind: models.SurveyKind(s.Kind)}
}

func surveyList(docs []SurveyDoc) models.SurveyNumberList {
	out := make(models.SurveyNumberList, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out
}

func parseDate(value string) (*time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
