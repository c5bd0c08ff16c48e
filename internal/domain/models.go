package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product holds the attributes the reorder advisor reads, plus the cached
// prediction fields written back after each suggestion.
type Product struct {
	ID                int64     `json:"id" db:"id"`
	SKU               string    `json:"sku" db:"sku"`
	Name              string    `json:"name" db:"name"`
	Quantity          int       `json:"quantity" db:"quantity"`
	MinStockLevel     int       `json:"min_stock_level" db:"min_stock_level"`
	MaxStockLevel     int       `json:"max_stock_level" db:"max_stock_level"`
	LeadTimeDays      int       `json:"lead_time_days" db:"lead_time_days"`
	SafetyStock       int       `json:"safety_stock" db:"safety_stock"`
	SeasonalityIndex  float64   `json:"seasonality_index" db:"seasonality_index"`
	PromotionActive   bool      `json:"promotion_active" db:"promotion_active"`
	CurrentDiscount   float64   `json:"current_discount" db:"current_discount"`
	AverageDailySales float64   `json:"average_daily_sales" db:"average_daily_sales"`
	TotalSold         int       `json:"total_sold" db:"total_sold"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`

	// Horizon totals from the last reorder suggestion, see PredictionCache.
	PredictedDemand7d  float64 `json:"predicted_demand_7d" db:"predicted_demand_7d"`
	PredictedDemand30d float64 `json:"predicted_demand_30d" db:"predicted_demand_30d"`
	ReorderSuggested   bool    `json:"reorder_suggestion" db:"reorder_suggestion"`
	ReorderQuantity    int     `json:"reorder_quantity" db:"reorder_quantity"`
}

// PredictionCache is the denormalized snapshot written onto a product after
// a reorder suggestion is computed. PredictedDemand7d and PredictedDemand30d
// hold the unadjusted horizon totals, the same values a ReorderSuggestion
// reports, not daily averages.
type PredictionCache struct {
	PredictedDemand7d  float64
	PredictedDemand30d float64
	ReorderSuggested   bool
	ReorderQuantity    int
}

// SaleObservation is a single recorded sale. It is never mutated.
type SaleObservation struct {
	ProductID int64           `json:"product_id" db:"product_id"`
	Date      time.Time       `json:"date" db:"sale_date"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// DailyDemandRecord is one calendar day of a dense demand series.
type DailyDemandRecord struct {
	Date       time.Time `json:"date"`
	Quantity   float64   `json:"quantity"`
	DayOfWeek  int       `json:"day_of_week"` // Monday=0 ... Sunday=6
	DayOfMonth int       `json:"day_of_month"`
	Month      int       `json:"month"`
}

// FeatureVector is the model input derived from a DailyDemandRecord.
type FeatureVector struct {
	Date         time.Time `json:"date"`
	Quantity     float64   `json:"quantity"`
	DayOfWeek    float64   `json:"day_of_week"`
	Month        float64   `json:"month"`
	DayOfMonth   float64   `json:"day_of_month"`
	IsWeekend    float64   `json:"is_weekend"`
	IsMonthStart float64   `json:"is_month_start"`
	IsMonthEnd   float64   `json:"is_month_end"`
	MA7          float64   `json:"ma_7d"`
	MA30         float64   `json:"ma_30d"`
	Trend        float64   `json:"trend"`
	DaySin       float64   `json:"day_sin"`
	DayCos       float64   `json:"day_cos"`
	MonthSin     float64   `json:"month_sin"`
	MonthCos     float64   `json:"month_cos"`
}

// FeatureColumns is the fixed column order used for training and prediction.
var FeatureColumns = []string{
	"day_of_week", "month", "day_of_month", "is_weekend",
	"is_month_start", "is_month_end", "ma_7d", "ma_30d", "trend",
	"day_sin", "day_cos", "month_sin", "month_cos",
}

// Values returns the feature values in FeatureColumns order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.DayOfWeek, f.Month, f.DayOfMonth, f.IsWeekend,
		f.IsMonthStart, f.IsMonthEnd, f.MA7, f.MA30, f.Trend,
		f.DaySin, f.DayCos, f.MonthSin, f.MonthCos,
	}
}

// ForecastResult is the projected demand for the next N days.
type ForecastResult struct {
	ProductID    int64      `json:"product_id"`
	Predictions  []float64  `json:"predictions"`
	TotalDemand  float64    `json:"total_demand"`
	AverageDaily float64    `json:"average_daily"`
	Confidence   Confidence `json:"confidence"`
	ModelBased   bool       `json:"model_based"`
}

// TrainResult reports the outcome of fitting a product's demand model.
type TrainResult struct {
	ProductID       int64   `json:"product_id"`
	Success         bool    `json:"success"`
	MAE             float64 `json:"mae,omitempty"`
	R2Score         float64 `json:"r2_score,omitempty"`
	TrainingSamples int     `json:"training_samples,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// ReorderSuggestion is the advisor's decision for one product.
type ReorderSuggestion struct {
	ProductID          int64      `json:"product_id"`
	ProductName        string     `json:"product_name"`
	CurrentStock       int        `json:"current_stock"`
	MinStockLevel      int        `json:"min_stock_level"`
	DaysOfSupply       Days       `json:"days_of_supply"`
	NeedsReorder       bool       `json:"needs_reorder"`
	PredictedDemand7d  float64    `json:"predicted_demand_7d"`
	PredictedDemand30d float64    `json:"predicted_demand_30d"`
	AdjustedDaily      float64    `json:"adjusted_daily_demand"`
	SuggestedQuantity  int        `json:"suggested_quantity"`
	Confidence         Confidence `json:"confidence"`
	Reason             string     `json:"reason"`
	Urgency            Urgency    `json:"urgency"`
	Insight            string     `json:"insight,omitempty"`
}
