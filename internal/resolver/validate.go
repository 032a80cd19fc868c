package resolver

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// ValidateDetail reports every field of the detail that is missing or malformed
// for its type. It returns nil or a ValidationErrors.
func ValidateDetail(d *models.EntryDetail) error {
	var errs ValidationErrors

	if !d.Type.Valid() {
		errs = append(errs, newValidationError("type", "unknown nondh type %q", d.Type))
	}
	if !d.Status.Valid() {
		errs = append(errs, newValidationError("status", "unknown status %q", d.Status))
	}
	if d.Status == models.StatusInvalid && strings.TrimSpace(d.InvalidReason) == "" {
		errs = append(errs, newValidationError("invalidReason", "is required when status is invalid"))
	}
	if d.EffectiveDate == nil {
		errs = append(errs, newValidationError("effectiveDate", "is required"))
	}
	if d.Type.IsTransfer() && strings.TrimSpace(d.OldOwnerName) == "" {
		errs = append(errs, newValidationError("oldOwnerName", "is required for %s entries", d.Type))
	}

	if d.Type == models.TypeOrder {
		if d.Order == nil {
			errs = append(errs, newValidationError("order", "is required for order entries"))
		} else {
			if !d.Order.Authority.Valid() {
				errs = append(errs, newValidationError("order.authority", "unknown authority %q", d.Order.Authority))
			}
			if !d.Order.Ganot.Valid() {
				errs = append(errs, newValidationError("order.ganot", "unknown ganot %q", d.Order.Ganot))
			}
		}
	} else if len(d.AffectedEntries) > 0 {
		errs = append(errs, newValidationError("affectedEntries", "only order entries may affect other entries"))
	}

	if d.Sale != nil && d.Sale.Amount.IsNegative() {
		errs = append(errs, newValidationError("sale.amount", "must not be negative"))
	}

	for i, rel := range d.OwnerRelations {
		errs = append(errs, validateRelation(d, rel, fmt.Sprintf("ownerRelations[%d]", i))...)
	}

	return errs.Err()
}

func validateRelation(d *models.EntryDetail, rel models.OwnerRelation, path string) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(rel.OwnerName) == "" {
		errs = append(errs, newValidationError(path+".ownerName", "is required"))
	}
	if err := rel.Area.Validate(); err != nil {
		errs = append(errs, newValidationError(path+".area", "%s", err))
	}
	if rel.SurveyNumberOverride != nil {
		if !d.Type.UsesSurveyOverride() {
			errs = append(errs, newValidationError(path+".surveyNumberOverride", "is only allowed on correction and promulgation entries"))
		} else if err := rel.SurveyNumberOverride.Validate(); err != nil {
			errs = append(errs, newValidationError(path+".surveyNumberOverride", "%s", err))
		}
	}
	return errs
}

// ValidateSnapshot runs ValidateDetail over every detail and checks each
// entry's survey numbers. Entries without problems are left out of the result.
func ValidateSnapshot(s Snapshot) map[uuid.UUID]ValidationErrors {
	issues := make(map[uuid.UUID]ValidationErrors)
	for _, e := range s.Entries {
		var errs ValidationErrors
		for i, sn := range e.AffectedSurveyNumbers {
			if err := sn.Validate(); err != nil {
				errs = append(errs, newValidationError(fmt.Sprintf("affectedSurveyNumbers[%d]", i), "%s", err))
			}
		}
		if d := s.detail(e.ID); d != nil {
			if err := ValidateDetail(d); err != nil {
				errs = append(errs, err.(ValidationErrors)...)
			}
		}
		if len(errs) > 0 {
			issues[e.ID] = errs
		}
	}
	return issues
}
