package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSales aggregates sales of one product over a window.
type ProductSales struct {
	ProductID   int64           `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	UnitsSold   int             `json:"units_sold" db:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue" db:"revenue"`
}

// StockLevel is a compact view of a product's on-hand position.
type StockLevel struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	MinStockLevel int    `json:"min_stock_level"`
}

// TrendReport summarizes recent inventory movement.
type TrendReport struct {
	PeriodDays             int             `json:"period_days"`
	TopSelling             []ProductSales  `json:"top_selling_products"`
	LowStock               []StockLevel    `json:"low_stock_products"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TotalProducts          int             `json:"total_products"`
	ProductsNeedingReorder int             `json:"products_needing_reorder"`
	AnalysisDate           time.Time       `json:"analysis_date"`
}

// SeasonalityReport carries month-of-year demand indices for a product.
type SeasonalityReport struct {
	ProductID      int64           `json:"product_id"`
	Indices        map[int]float64 `json:"indices"`
	MonthlyAverage float64         `json:"monthly_average"`
	MonthsAnalyzed int             `json:"months_analyzed"`
	CurrentMonth   int             `json:"current_month"`
	CurrentIndex   float64         `json:"current_index"`
}
