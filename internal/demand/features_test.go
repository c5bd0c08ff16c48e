package demand

import (
	"math"
	"testing"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(qty ...float64) []domain.DailyDemandRecord {
	start := Day(testNow).AddDate(0, 0, -(len(qty) - 1))
	out := make([]domain.DailyDemandRecord, len(qty))
	for i, q := range qty {
		out[i] = CalendarRecord(start.AddDate(0, 0, i), q)
	}
	return out
}

func TestBuildFeaturesMovingAverages(t *testing.T) {
	qty := make([]float64, 40)
	for i := range qty {
		qty[i] = float64(i + 1)
	}
	features := BuildFeatures(series(qty...))
	require.Len(t, features, len(qty))

	assert.Equal(t, 1.0, features[0].MA7)
	assert.Equal(t, 1.0, features[0].MA30)
	assert.Equal(t, 1.5, features[1].MA7)

	// day 10 (value 10): ma7 over 4..10, ma30 over 1..10
	assert.InDelta(t, 7.0, features[9].MA7, 1e-9)
	assert.InDelta(t, 5.5, features[9].MA30, 1e-9)
	assert.InDelta(t, 1.5, features[9].Trend, 1e-9)

	// day 40: ma30 over 11..40
	assert.InDelta(t, 25.5, features[39].MA30, 1e-9)

	for i, fv := range features {
		assert.False(t, math.IsNaN(fv.MA7), "row %d", i)
		assert.Equal(t, qty[i], fv.Quantity)
	}
}

func TestBuildFeaturesIsCausal(t *testing.T) {
	base := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3}
	changed := append([]float64(nil), base...)
	changed[len(changed)-1] = 1000

	a := BuildFeatures(series(base...))
	b := BuildFeatures(series(changed...))
	for i := 0; i < len(base)-1; i++ {
		assert.Equal(t, a[i], b[i], "row %d depends on a later day", i)
	}
}

func TestCalendarFlagsAndCycles(t *testing.T) {
	features := BuildFeatures(series(make([]float64, 31)...))
	last := features[len(features)-1] // Sunday 30 June

	assert.Equal(t, 6.0, last.DayOfWeek)
	assert.Equal(t, 1.0, last.IsWeekend)
	assert.Equal(t, 1.0, last.IsMonthEnd)
	assert.Equal(t, 0.0, last.IsMonthStart)
	assert.InDelta(t, math.Sin(2*math.Pi*6/7), last.DaySin, 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*6/12), last.MonthCos, 1e-12)

	monday := FutureFeatures(last, 1)[0]
	dist := math.Hypot(monday.DaySin-last.DaySin, monday.DayCos-last.DayCos)
	mid := math.Hypot(math.Sin(2*math.Pi*3/7)-last.DaySin, math.Cos(2*math.Pi*3/7)-last.DayCos)
	assert.Less(t, dist, mid)
}

func TestFutureFeaturesHoldMovingAverages(t *testing.T) {
	features := BuildFeatures(series(2, 4, 6, 8, 10, 12, 14, 16))
	template := features[len(features)-1]

	future := FutureFeatures(template, 10)
	require.Len(t, future, 10)
	for i, fv := range future {
		assert.Equal(t, template.Date.AddDate(0, 0, i+1), fv.Date)
		assert.Equal(t, template.MA7, fv.MA7)
		assert.Equal(t, template.MA30, fv.MA30)
		assert.Equal(t, template.Trend, fv.Trend)
		assert.Equal(t, float64(Weekday(fv.Date)), fv.DayOfWeek)
	}
	assert.Equal(t, 7.0, future[0].Month)
	assert.Equal(t, 1.0, future[0].DayOfMonth)
	assert.Equal(t, 1.0, future[0].IsMonthStart)
}

func TestFeatureValuesOrder(t *testing.T) {
	fv := domain.FeatureVector{DayOfWeek: 1, Month: 2, MA7: 7, MonthCos: 13}
	v := fv.Values()
	require.Len(t, v, len(domain.FeatureColumns))
	assert.Equal(t, 1.0, v[0])
	assert.Equal(t, 2.0, v[1])
	assert.Equal(t, 7.0, v[6])
	assert.Equal(t, 13.0, v[12])
}
