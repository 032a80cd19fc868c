package resolver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

func TestValidateDetail(t *testing.T) {
	valid := func() models.EntryDetail {
		return models.EntryDetail{
			ID:            uuid.New(),
			Type:          models.TypeSale,
			Status:        models.StatusValid,
			OldOwnerName:  "X",
			EffectiveDate: day(2001, 1, 1),
			Sale:          &models.SaleDetails{Amount: decimal.NewFromInt(150000)},
			OwnerRelations: []models.OwnerRelation{
				{OwnerName: "Y", Area: sqm("10")},
			},
		}
	}

	tests := []struct {
		name       string
		mutate     func(d *models.EntryDetail)
		wantFields []string
	}{
		{
			name:   "complete sale",
			mutate: func(d *models.EntryDetail) {},
		},
		{
			name: "invalid without reason",
			mutate: func(d *models.EntryDetail) {
				d.Status = models.StatusInvalid
			},
			wantFields: []string{"invalidReason"},
		},
		{
			name: "transfer without old owner and date",
			mutate: func(d *models.EntryDetail) {
				d.OldOwnerName = ""
				d.EffectiveDate = nil
			},
			wantFields: []string{"effectiveDate", "oldOwnerName"},
		},
		{
			name: "order without details",
			mutate: func(d *models.EntryDetail) {
				d.Type = models.TypeOrder
			},
			wantFields: []string{"order"},
		},
		{
			name: "order with unknown ganot and authority",
			mutate: func(d *models.EntryDetail) {
				d.Type = models.TypeOrder
				d.Order = &models.OrderDetails{Authority: "panchayat", Ganot: "third_right"}
			},
			wantFields: []string{"order.authority", "order.ganot"},
		},
		{
			name: "affected entries on a sale",
			mutate: func(d *models.EntryDetail) {
				d.AffectedEntries = models.AffectedEntryList{{EntryID: uuid.New()}}
			},
			wantFields: []string{"affectedEntries"},
		},
		{
			name: "bad relations",
			mutate: func(d *models.EntryDetail) {
				override := models.SurveyNumber{Number: "", Kind: models.SurveyKindPrimary}
				d.Type = models.TypeCorrection
				d.OwnerRelations = append(d.OwnerRelations,
					models.OwnerRelation{OwnerName: "", Area: sqm("-1")},
					models.OwnerRelation{OwnerName: "Q", Area: sqm("1"), SurveyNumberOverride: &override},
				)
			},
			wantFields: []string{"ownerRelations[1].ownerName", "ownerRelations[1].area", "ownerRelations[2].surveyNumberOverride"},
		},
		{
			name: "negative sale amount and unknown type",
			mutate: func(d *models.EntryDetail) {
				d.Type = "gift"
				d.Sale.Amount = decimal.NewFromInt(-1)
			},
			wantFields: []string{"type", "sale.amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(&d)

			err := ValidateDetail(&d)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			fields := make([]string, len(errs))
			for i, e := range errs {
				fields[i] = e.Field
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestValidateSnapshot(t *testing.T) {
	f := newFixture(t)
	good := f.add(entryDef{seq: 1, typ: models.TypePossession, date: day(2000, 1, 1), owners: []owner{{"X", sqm("1")}}})
	bad := f.add(entryDef{seq: 2, typ: models.TypeSale, surveys: []models.SurveyNumber{{Number: "5", Kind: "hamlet"}}})

	issues := ValidateSnapshot(f.snapshot)

	assert.NotContains(t, issues, good)
	require.Contains(t, issues, bad)
	assert.Contains(t, issues[bad].Error(), "affectedSurveyNumbers[0]")
	assert.Contains(t, issues[bad].Error(), "oldOwnerName")
}
