package resolver

import (
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// Passbook flattens the chain into one row per valid owner relation, in chain
// order. Rows are not deduplicated across years.
func Passbook(c *Chain, universe models.SurveyUniverse) []models.PassbookRow {
	rows := make([]models.PassbookRow, 0)
	for _, item := range c.Items {
		d := item.Detail
		if d == nil {
			continue
		}

		year := d.CreatedAt.Year()
		if d.EffectiveDate != nil {
			year = d.EffectiveDate.Year()
		}
		primary, _ := PrimarySurveyNumber(item.Entry, universe)

		for _, rel := range d.OwnerRelations {
			if !rel.IsValid {
				continue
			}
			sn := primary
			if rel.SurveyNumberOverride != nil {
				sn = *rel.SurveyNumberOverride
			}
			rows = append(rows, models.PassbookRow{
				Year:                year,
				OwnerName:           rel.OwnerName,
				Area:                rel.Area.InSquareMeters(),
				SurveyNumber:        sn,
				EntrySequenceNumber: item.Entry.SequenceNumber,
			})
		}
	}
	return rows
}
