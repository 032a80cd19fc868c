package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// SurveyKind is the numbering scheme a survey number belongs to.
type SurveyKind string

const (
	SurveyKindPrimary  SurveyKind = "primary"
	SurveyKindBlock    SurveyKind = "block"
	SurveyKindResurvey SurveyKind = "resurvey"
)

// surveyKindOrder lists kinds from highest to lowest priority.
var surveyKindOrder = []SurveyKind{SurveyKindPrimary, SurveyKindBlock, SurveyKindResurvey}

// UnknownKindPriority is the priority given to a kind outside surveyKindOrder,
// and to entries that have no usable survey number at all.
var UnknownKindPriority = len(surveyKindOrder)

// Priority returns the sort index of the kind; lower sorts first.
func (k SurveyKind) Priority() int {
	for i, kind := range surveyKindOrder {
		if kind == k {
			return i
		}
	}
	return UnknownKindPriority
}

// Valid reports whether k is one of the known kinds.
func (k SurveyKind) Valid() bool {
	return k.Priority() != UnknownKindPriority
}

// SurveyNumber identifies a unit of land.
type SurveyNumber struct {
	Number string     `json:"number" yaml:"number"`
	Kind   SurveyKind `json:"kind" yaml:"kind"`
}

// Key returns a stable map key for the survey number.
func (s SurveyNumber) Key() string {
	return string(s.Kind) + ":" + strings.TrimSpace(s.Number)
}

// Validate rejects empty numbers and unknown kinds.
func (s SurveyNumber) Validate() error {
	if strings.TrimSpace(s.Number) == "" {
		return fmt.Errorf("survey number must not be empty")
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown survey number kind %q for %q", s.Kind, s.Number)
	}
	return nil
}

func (s SurveyNumber) String() string {
	return fmt.Sprintf("%s (%s)", s.Number, s.Kind)
}

// SurveyNumberList is the set of survey numbers an entry applies to.
// It is stored as a JSONB array and decoded once when read from the database.
type SurveyNumberList []SurveyNumber

// Scan implements sql.Scanner for JSONB columns.
func (l *SurveyNumberList) Scan(value interface{}) error {
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
		return fmt.Errorf("failed to scan SurveyNumberList: expected []byte or string, got %T", value)
	}

	var decoded []SurveyNumber
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal survey numbers: %w", err)
	}

	*l = decoded
	return nil
}

// Value implements driver.Valuer, writing the list as a JSON array.
func (l SurveyNumberList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]SurveyNumber(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal survey numbers: %w", err)
	}
	return string(data), nil
}

// Primary returns the highest priority survey number in the list.
// The second result is false when the list is empty.
func (l SurveyNumberList) Primary() (SurveyNumber, bool) {
	best := -1
	for i, sn := range l {
		if best == -1 || sn.Kind.Priority() < l[best].Kind.Priority() {
			best = i
		}
	}
	if best == -1 {
		return SurveyNumber{}, false
	}
	return l[best], true
}

// Contains reports whether the list holds a survey number with the same number.
// An empty kind on the argument matches any kind.
func (l SurveyNumberList) Contains(sn SurveyNumber) bool {
	for _, candidate := range l {
		if strings.TrimSpace(candidate.Number) != strings.TrimSpace(sn.Number) {
			continue
		}
		if sn.Kind == "" || candidate.Kind == sn.Kind {
			return true
		}
	}
	return false
}

// SurveyUniverse is the authoritative set of survey numbers declared in the
// record's basic information and year slab configuration.
type SurveyUniverse struct {
	keys map[string]struct{}
}

// NewSurveyUniverse builds a universe from any number of lists.
func NewSurveyUniverse(lists ...SurveyNumberList) SurveyUniverse {
	u := SurveyUniverse{keys: make(map[string]struct{})}
	for _, list := range lists {
		for _, sn := range list {
			u.Add(sn)
		}
	}
	return u
}

// Add inserts a survey number into the universe.
func (u *SurveyUniverse) Add(sn SurveyNumber) {
	if u.keys == nil {
		u.keys = make(map[string]struct{})
	}
	u.keys[sn.Key()] = struct{}{}
}

// Contains reports whether the exact number and kind are part of the universe.
func (u SurveyUniverse) Contains(sn SurveyNumber) bool {
	_, ok := u.keys[sn.Key()]
	return ok
}

// Len returns the number of distinct survey numbers.
func (u SurveyUniverse) Len() int {
	return len(u.keys)
}

// Filter keeps only the survey numbers of l that belong to the universe.
func (u SurveyUniverse) Filter(l SurveyNumberList) SurveyNumberList {
	out := make(SurveyNumberList, 0, len(l))
	for _, sn := range l {
		if u.Contains(sn) {
			out = append(out, sn)
		}
	}
	return out
}
