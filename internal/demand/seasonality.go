package demand

import (
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	SeasonalityLookbackDays    = 365
	minSeasonalityObservations = 30
	missingMonthIndex          = 0.5
)

// EstimateSeasonality computes month-of-year demand indices from the last
// year of sales. A month's index is its total over the mean of the monthly
// totals; months without sales get 0.5.
func EstimateSeasonality(productID int64, sales []domain.SaleObservation, now time.Time) (domain.SeasonalityReport, error) {
	since := Day(now).AddDate(0, 0, -SeasonalityLookbackDays)

	monthly := make(map[int]float64)
	observations := 0
	for _, s := range sales {
		if Day(s.Date).Before(since) {
			continue
		}
		observations++
		monthly[int(s.Date.Month())] += float64(max(s.Quantity, 0))
	}
	if observations < minSeasonalityObservations {
		return domain.SeasonalityReport{}, fmt.Errorf("%w: product %d has %d sales in the last year, need %d",
			domain.ErrInsufficientHistory, productID, observations, minSeasonalityObservations)
	}

	var sum float64
	for _, v := range monthly {
		sum += v
	}
	mean := sum / float64(len(monthly))

	indices := make(map[int]float64, 12)
	for m := 1; m <= 12; m++ {
		if v := monthly[m]; v > 0 && mean > 0 {
			indices[m] = v / mean
		} else {
			indices[m] = missingMonthIndex
		}
	}

	current := int(now.Month())
	return domain.SeasonalityReport{
		ProductID:      productID,
		Indices:        indices,
		MonthlyAverage: mean,
		MonthsAnalyzed: len(monthly),
		CurrentMonth:   current,
		CurrentIndex:   indices[current],
	}, nil
}
