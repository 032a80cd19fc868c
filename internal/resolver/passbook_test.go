package resolver

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

func TestPassbook(t *testing.T) {
	f := newFixture(t)
	f.add(entryDef{seq: 1, typ: models.TypePossession, date: day(1998, time.April, 2), owners: []owner{
		{"X", models.AcreGunthaArea(decimal.NewFromInt(1), decimal.NewFromInt(2))},
	}})
	f.add(entryDef{seq: 2, typ: models.TypeSale, old: "X", owners: []owner{{"Y", sqm("400")}}})
	correction := f.add(entryDef{seq: 3, typ: models.TypeCorrection, date: day(2004, time.January, 1), owners: []owner{{"Y", sqm("390")}}})
	f.add(entryDef{seq: 4, typ: models.TypeSale, old: "Y", status: models.StatusNullified, owners: []owner{{"Z", sqm("10")}}})
	override := survey3R
	d := detailOf(t, f.snapshot, correction)
	d.OwnerRelations[0].SurveyNumberOverride = &override

	res := f.resolve()
	rows := Passbook(res.Chain, res.Snapshot.Universe)

	require.Len(t, rows, 3, "nullified entry has no valid relations")

	assert.Equal(t, 1998, rows[0].Year)
	assert.Equal(t, "X", rows[0].OwnerName)
	assert.Equal(t, survey101, rows[0].SurveyNumber)
	assert.Equal(t, 1, rows[0].EntrySequenceNumber)
	decEqual(t, "4249.2", rows[0].Area)

	assert.Equal(t, 2020, rows[1].Year, "falls back to the creation year")
	assert.Equal(t, "Y", rows[1].OwnerName)

	assert.Equal(t, 2004, rows[2].Year)
	assert.Equal(t, survey3R, rows[2].SurveyNumber)
	decEqual(t, "390", rows[2].Area)
}

func TestPassbook_SkipsInvalidRelations(t *testing.T) {
	f := newFixture(t)
	f.add(entryDef{seq: 1, typ: models.TypePossession, owners: []owner{{"X", sqm("100")}}})
	f.add(entryDef{seq: 2, typ: models.TypeOrder, status: models.StatusInvalid, reason: "revoked", owners: []owner{{"O", sqm("1")}}})

	res := f.resolve()

	assert.Empty(t, Passbook(res.Chain, res.Snapshot.Universe))
}
