package demand

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	DefaultTrainingLookbackDays = 90
	DefaultFeatureLookbackDays  = 60
	DefaultMinObservations      = 14
)

// SalesReader is the read side of the sales ledger.
type SalesReader interface {
	FetchSales(ctx context.Context, productID int64, since time.Time) ([]domain.SaleObservation, error)
}

// HistoryExtractor turns raw sale observations into a dense daily series.
type HistoryExtractor struct {
	sales           SalesReader
	minObservations int
	now             func() time.Time
}

func NewHistoryExtractor(sales SalesReader, minObservations int, now func() time.Time) *HistoryExtractor {
	if minObservations < 1 {
		minObservations = DefaultMinObservations
	}
	if now == nil {
		now = time.Now
	}
	return &HistoryExtractor{sales: sales, minObservations: minObservations, now: now}
}

// Extract returns one record per calendar day in [today-lookbackDays, today],
// oldest first. Days without sales carry quantity 0.
func (e *HistoryExtractor) Extract(ctx context.Context, productID int64, lookbackDays int) ([]domain.DailyDemandRecord, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id %d", domain.ErrInvalidInput, productID)
	}
	if lookbackDays < 1 {
		return nil, fmt.Errorf("%w: lookback %d days", domain.ErrInvalidInput, lookbackDays)
	}

	end := Day(e.now())
	start := end.AddDate(0, 0, -lookbackDays)

	sales, err := e.sales.FetchSales(ctx, productID, start)
	if err != nil {
		return nil, fmt.Errorf("fetch sales for product %d: %w", productID, err)
	}

	totals := make(map[time.Time]float64)
	observations := 0
	for _, s := range sales {
		d := Day(s.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		observations++
		if s.Quantity > 0 {
			totals[d] += float64(s.Quantity)
		}
	}

	if observations < e.minObservations {
		return nil, fmt.Errorf("%w: product %d has %d sales in %d days, need %d",
			domain.ErrInsufficientHistory, productID, observations, lookbackDays, e.minObservations)
	}

	return DenseSeries(start, end, totals), nil
}

// DenseSeries fills every day in [start, end] from totals, defaulting to zero.
func DenseSeries(start, end time.Time, totals map[time.Time]float64) []domain.DailyDemandRecord {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	days := int(end.Sub(start).Hours()/24) + 1
	records := make([]domain.DailyDemandRecord, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		records = append(records, CalendarRecord(d, totals[d]))
	}
	return records
}

// CalendarRecord derives the calendar fields of a day from the date alone.
func CalendarRecord(date time.Time, quantity float64) domain.DailyDemandRecord {
	date = Day(date)
	return domain.DailyDemandRecord{
		Date:       date,
		Quantity:   quantity,
		DayOfWeek:  Weekday(date),
		DayOfMonth: date.Day(),
		Month:      int(date.Month()),
	}
}

// Day truncates t to its calendar day, expressed as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Weekday numbers days Monday=0 through Sunday=6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
