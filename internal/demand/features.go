package demand

import (
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	shortWindow = 7
	longWindow  = 30
)

// BuildFeatures derives one feature vector per record. Moving averages are
// trailing and use whatever history exists for the first rows.
func BuildFeatures(records []domain.DailyDemandRecord) []domain.FeatureVector {
	out := make([]domain.FeatureVector, len(records))
	var shortSum, longSum float64
	for i, r := range records {
		shortSum += r.Quantity
		longSum += r.Quantity
		if i >= shortWindow {
			shortSum -= records[i-shortWindow].Quantity
		}
		if i >= longWindow {
			longSum -= records[i-longWindow].Quantity
		}

		fv := domain.FeatureVector{Quantity: r.Quantity}
		setCalendar(&fv, r.Date)
		fv.MA7 = shortSum / float64(min(i+1, shortWindow))
		fv.MA30 = longSum / float64(min(i+1, longWindow))
		fv.Trend = fv.MA7 - fv.MA30
		out[i] = fv
	}
	return out
}

// FutureFeatures synthesizes rows for the n days following template.Date.
// Only calendar fields change; moving averages and trend stay at the
// template's values.
func FutureFeatures(template domain.FeatureVector, n int) []domain.FeatureVector {
	out := make([]domain.FeatureVector, 0, max(n, 0))
	base := Day(template.Date)
	for i := 1; i <= n; i++ {
		fv := template
		fv.Quantity = 0
		setCalendar(&fv, base.AddDate(0, 0, i))
		out = append(out, fv)
	}
	return out
}

func setCalendar(fv *domain.FeatureVector, date time.Time) {
	date = Day(date)
	dow := Weekday(date)
	month := int(date.Month())
	dom := date.Day()

	fv.Date = date
	fv.DayOfWeek = float64(dow)
	fv.Month = float64(month)
	fv.DayOfMonth = float64(dom)
	fv.IsWeekend = flag(dow >= 5)
	fv.IsMonthStart = flag(dom <= 7)
	fv.IsMonthEnd = flag(dom >= 25)
	fv.DaySin = math.Sin(2 * math.Pi * float64(dow) / 7)
	fv.DayCos = math.Cos(2 * math.Pi * float64(dow) / 7)
	fv.MonthSin = math.Sin(2 * math.Pi * float64(month) / 12)
	fv.MonthCos = math.Cos(2 * math.Pi * float64(month) / 12)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
