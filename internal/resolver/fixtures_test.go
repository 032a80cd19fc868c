package resolver

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

var (
	survey101 = models.SurveyNumber{Number: "101", Kind: models.SurveyKindPrimary}
	survey7B  = models.SurveyNumber{Number: "7", Kind: models.SurveyKindBlock}
	survey3R  = models.SurveyNumber{Number: "3", Kind: models.SurveyKindResurvey}
	stale     = models.SurveyNumber{Number: "999", Kind: models.SurveyKindPrimary}
)

func sqm(v string) models.Area {
	return models.SquareMetersArea(decimal.RequireFromString(v))
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

type owner struct {
	name string
	area models.Area
}

type entryDef struct {
	seq      int
	typ      models.NondhType
	status   models.Status
	reason   string
	old      string
	date     *time.Time
	owners   []owner
	surveys  []models.SurveyNumber
	noDetail bool
}

type fixture struct {
	t        *testing.T
	snapshot Snapshot
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t: t,
		snapshot: Snapshot{
			RecordID: uuid.New(),
			Universe: models.NewSurveyUniverse(models.SurveyNumberList{survey101, survey7B, survey3R}),
		},
	}
}

func (f *fixture) add(def entryDef) uuid.UUID {
	surveys := def.surveys
	if surveys == nil {
		surveys = []models.SurveyNumber{survey101}
	}
	entry := models.Entry{
		ID:                    uuid.New(),
		RecordID:              f.snapshot.RecordID,
		SequenceNumber:        def.seq,
		AffectedSurveyNumbers: models.SurveyNumberList(surveys),
		CreatedAt:             time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.snapshot.Entries = append(f.snapshot.Entries, entry)
	if def.noDetail {
		return entry.ID
	}

	status := def.status
	if status == "" {
		status = models.StatusValid
	}
	detail := models.EntryDetail{
		ID:            uuid.New(),
		EntryID:       entry.ID,
		Type:          def.typ,
		Status:        status,
		InvalidReason: def.reason,
		OldOwnerName:  def.old,
		EffectiveDate: def.date,
		CreatedAt:     entry.CreatedAt,
	}
	if def.typ == models.TypeOrder {
		detail.Order = &models.OrderDetails{Authority: models.AuthorityCollector}
	}
	for _, o := range def.owners {
		detail.OwnerRelations = append(detail.OwnerRelations, models.OwnerRelation{
			ID:        uuid.New(),
			DetailID:  detail.ID,
			OwnerName: o.name,
			Area:      o.area,
		})
	}
	f.snapshot.Details = append(f.snapshot.Details, detail)
	return entry.ID
}

func (f *fixture) slab(start, end int, capacity models.Area) {
	f.snapshot.YearSlabs = append(f.snapshot.YearSlabs, models.YearSlab{
		ID:            uuid.New(),
		StartYear:     start,
		EndYear:       end,
		Area:          capacity,
		SurveyNumbers: models.SurveyNumberList{survey101},
	})
}

func (f *fixture) resolve() *Result {
	res, err := newResolver().Recompute(f.snapshot)
	require.NoError(f.t, err)
	return res
}

func newResolver() *Resolver {
	return New(logger.New("test"))
}

func detailOf(t *testing.T, s Snapshot, entryID uuid.UUID) *models.EntryDetail {
	d := s.detail(entryID)
	require.NotNil(t, d, "no detail for entry %s", entryID)
	return d
}

func relationOf(t *testing.T, s Snapshot, entryID uuid.UUID, name string) models.OwnerRelation {
	d := detailOf(t, s, entryID)
	i := relationByName(d, name)
	require.GreaterOrEqual(t, i, 0, "no relation %q on entry %s", name, entryID)
	return d.OwnerRelations[i]
}

func sequences(entries []models.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.SequenceNumber
	}
	return out
}

func decEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
