package reorder

import (
	"math"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	DefaultMinDaysOfSupply = 7
	DefaultCriticalDays    = 3
	DefaultLeadTimeDays    = 7
)

// Calculator turns a product's stock position and its demand forecasts into
// a reorder decision. It performs no I/O.
type Calculator struct {
	minDaysOfSupply float64
	criticalDays    float64
	defaultLeadTime int
}

func NewCalculator() *Calculator {
	return &Calculator{
		minDaysOfSupply: DefaultMinDaysOfSupply,
		criticalDays:    DefaultCriticalDays,
		defaultLeadTime: DefaultLeadTimeDays,
	}
}

// DemandMultiplier combines the seasonality index (default 1) with the
// promotion uplift of 1 + discount/100, which never drops below 1.
func DemandMultiplier(p *domain.Product) float64 {
	seasonality := p.SeasonalityIndex
	if seasonality <= 0 {
		seasonality = 1
	}
	promo := 1.0
	if p.PromotionActive {
		promo = math.Max(1, 1+p.CurrentDiscount/100)
	}
	return seasonality * promo
}

// DaysOfSupply divides stock by the product's average daily sales, or by the
// forecast average when the product has none. Zero demand gives +Inf.
func DaysOfSupply(stock int, p *domain.Product, f7 domain.ForecastResult) domain.Days {
	daily := p.AverageDailySales
	if daily <= 0 {
		daily = f7.AverageDaily
	}
	if daily <= 0 {
		return domain.Days(math.Inf(1))
	}
	return domain.Days(float64(stock) / daily)
}

// Calculate computes the reorder suggestion for a product given its 7-day
// and 30-day forecasts.
func (c *Calculator) Calculate(p *domain.Product, f7, f30 domain.ForecastResult) domain.ReorderSuggestion {
	stock := max(p.Quantity, 0)
	s := domain.ReorderSuggestion{
		ProductID:          p.ID,
		ProductName:        p.Name,
		CurrentStock:       stock,
		MinStockLevel:      p.MinStockLevel,
		PredictedDemand7d:  f7.TotalDemand,
		PredictedDemand30d: f30.TotalDemand,
		Confidence:         f7.Confidence,
	}

	// 1. Days of supply on unadjusted demand
	s.DaysOfSupply = DaysOfSupply(stock, p, f7)
	dos := float64(s.DaysOfSupply)

	// 2. Seasonality and promotion scale the 7-day average only
	s.AdjustedDaily = math.Max(0, f7.AverageDaily*DemandMultiplier(p))

	// 3. Decision
	belowMinimum := stock <= p.MinStockLevel
	shortSupply := dos < c.minDaysOfSupply
	s.NeedsReorder = belowMinimum || shortSupply || s.AdjustedDaily*7 > float64(stock)

	// 4. Quantity = max(top up to max level, lead time demand + safety stock - stock)
	if s.NeedsReorder {
		lead := p.LeadTimeDays
		if lead <= 0 {
			lead = c.defaultLeadTime
		}
		topUp := float64(p.MaxStockLevel - stock)
		cover := ceil(s.AdjustedDaily*float64(lead) + float64(p.SafetyStock) - float64(stock))
		s.SuggestedQuantity = int(math.Max(0, math.Max(topUp, cover)))
	}

	// 5. Reason, first match wins
	switch {
	case belowMinimum:
		s.Reason = domain.ReasonBelowMinimum
	case shortSupply:
		s.Reason = domain.ReasonInsufficientDays
	case f30.TotalDemand > float64(stock):
		s.Reason = domain.ReasonDemandExceedStock
	default:
		s.Reason = domain.ReasonNoReorderNeeded
	}

	s.Urgency = c.urgency(s.NeedsReorder, stock, dos)
	return s
}

func (c *Calculator) urgency(needsReorder bool, stock int, dos float64) domain.Urgency {
	switch {
	case !needsReorder:
		return domain.UrgencyNone
	case stock <= 0 || dos < c.criticalDays:
		return domain.UrgencyCritical
	case dos < c.minDaysOfSupply:
		return domain.UrgencyHigh
	default:
		return domain.UrgencyMedium
	}
}

// ceil absorbs float noise so 35.000000000001 orders 35, not 36.
func ceil(v float64) float64 {
	return math.Ceil(v - 1e-9)
}
