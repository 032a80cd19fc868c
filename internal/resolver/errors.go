package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// Fatal resolution errors. A recompute that hits one of these is aborted and
// the input snapshot is left as it was.
var (
	ErrCyclicReference = errors.New("cyclic affected-entry reference")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Lookup errors returned by the mutation functions.
var (
	ErrUnknownEntry    = errors.New("entry not found in snapshot")
	ErrUnknownRelation = errors.New("owner relation not found")
	ErrMissingDetail   = errors.New("entry has no detail")
)

// ValidationError rejects a mutation because a field has an unacceptable value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors collects every problem found on a single detail.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, err := range e {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when the list is empty so callers can return it directly.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AreaLimit names the constraint an AreaExceededError tripped on.
type AreaLimit string

const (
	LimitOldOwnerRemaining AreaLimit = "old_owner_remaining"
	LimitYearSlabCapacity  AreaLimit = "year_slab_capacity"
)

// AreaExceededError rejects a distribution whose new-owner total is larger than
// the old owner's remaining area or the year slab capacity. Requested and
// Maximum are in square meters; Unit is the unit the caller entered.
type AreaExceededError struct {
	Limit     AreaLimit
	Requested decimal.Decimal
	Maximum   decimal.Decimal
	Unit      models.AreaUnit
}

func (e *AreaExceededError) Error() string {
	return fmt.Sprintf("new owner area %s m² exceeds %s; maximum permissible is %s",
		e.Requested.StringFixed(2), strings.ReplaceAll(string(e.Limit), "_", " "), e.MaximumArea())
}

// MaximumArea returns the maximum permissible value in the caller's unit.
func (e *AreaExceededError) MaximumArea() models.Area {
	unit := e.Unit
	if unit == "" {
		unit = models.UnitSquareMeters
	}
	return models.FromSquareMeters(e.Maximum, unit)
}

// ReferentialError reports a reference to an entry that is not in the snapshot.
// It never aborts a recompute; the reference is treated as absent.
type ReferentialError struct {
	EntryID   uuid.UUID
	MissingID uuid.UUID
	Reference string
}

func (e *ReferentialError) Error() string {
	if e.EntryID == uuid.Nil {
		return fmt.Sprintf("%s references missing entry %s", e.Reference, e.MissingID)
	}
	return fmt.Sprintf("entry %s: %s references missing entry %s", e.EntryID, e.Reference, e.MissingID)
}
