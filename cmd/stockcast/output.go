package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/pipeline"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printTrainResults(w io.Writer, results []domain.TrainResult) error {
	tw := table(w)
	fmt.Fprintln(tw, "PRODUCT\tSUCCESS\tSAMPLES\tMAE\tR2\tREASON")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%t\t%d\t%.3f\t%.3f\t%s\n", r.ProductID, r.Success, r.TrainingSamples, r.MAE, r.R2Score, r.Reason)
	}
	return tw.Flush()
}

func printForecast(w io.Writer, res domain.ForecastResult, start time.Time) error {
	tw := table(w)
	source := "heuristic"
	if res.ModelBased {
		source = "model"
	}
	fmt.Fprintf(tw, "Product:\t%d\n", res.ProductID)
	fmt.Fprintf(tw, "Source:\t%s\n", source)
	fmt.Fprintf(tw, "Confidence:\t%s\n", res.Confidence)
	fmt.Fprintf(tw, "Total demand:\t%.2f\n", res.TotalDemand)
	fmt.Fprintf(tw, "Average daily:\t%.2f\n", res.AverageDaily)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DAY\tDATE\tPREDICTED")
	for i, p := range res.Predictions {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\n", i+1, start.AddDate(0, 0, i).Format("2006-01-02"), p)
	}
	return tw.Flush()
}

func printSuggestion(w io.Writer, s *domain.ReorderSuggestion) error {
	tw := table(w)
	fmt.Fprintf(tw, "Product:\t%d %s\n", s.ProductID, s.ProductName)
	fmt.Fprintf(tw, "Current stock:\t%d (min %d)\n", s.CurrentStock, s.MinStockLevel)
	fmt.Fprintf(tw, "Days of supply:\t%s\n", s.DaysOfSupply)
	fmt.Fprintf(tw, "Demand 7d / 30d:\t%.2f / %.2f\n", s.PredictedDemand7d, s.PredictedDemand30d)
	fmt.Fprintf(tw, "Needs reorder:\t%t\n", s.NeedsReorder)
	fmt.Fprintf(tw, "Suggested quantity:\t%d\n", s.SuggestedQuantity)
	fmt.Fprintf(tw, "Urgency:\t%s\n", s.Urgency)
	fmt.Fprintf(tw, "Confidence:\t%s\n", s.Confidence)
	fmt.Fprintf(tw, "Reason:\t%s\n", s.Reason)
	if s.Insight != "" {
		fmt.Fprintf(tw, "Insight:\t%s\n", s.Insight)
	}
	return tw.Flush()
}

func printSuggestions(w io.Writer, suggestions []domain.ReorderSuggestion) error {
	tw := table(w)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tSTOCK\tDAYS\tREORDER\tQTY\tURGENCY\tREASON")
	for _, s := range suggestions {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%t\t%d\t%s\t%s\n",
			s.ProductID, s.ProductName, s.CurrentStock, s.DaysOfSupply, s.NeedsReorder, s.SuggestedQuantity, s.Urgency, s.Reason)
	}
	return tw.Flush()
}

func printRun(w io.Writer, run *pipeline.Run) error {
	_, err := fmt.Fprintf(w, "\nrun %s %s: %s, %d products, %d succeeded, %d skipped, %d failed in %s\n",
		run.ID, run.Kind, run.Status, run.TotalProducts, run.Succeeded, run.Skipped, run.Failed,
		run.Duration().Round(time.Millisecond))
	return err
}

func printRuns(w io.Writer, runs []*pipeline.Run) error {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tSTARTED\tPRODUCTS\tOK\tSKIPPED\tFAILED\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.ID, r.Kind, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), r.TotalProducts,
			r.Succeeded, r.Skipped, r.Failed, r.Duration().Round(time.Millisecond), r.ErrorMessage)
	}
	return tw.Flush()
}

func printTrends(w io.Writer, rep *domain.TrendReport) error {
	tw := table(w)
	fmt.Fprintf(tw, "Window:\t%d days up to %s\n", rep.PeriodDays, rep.AnalysisDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "Total revenue:\t%s\n", rep.TotalRevenue.StringFixed(2))
	fmt.Fprintf(tw, "Products:\t%d (%d flagged for reorder)\n", rep.TotalProducts, rep.ProductsNeedingReorder)

	fmt.Fprintln(tw, "\nTOP SELLING\tUNITS\tREVENUE")
	for _, p := range rep.TopSelling {
		fmt.Fprintf(tw, "%d %s\t%d\t%s\n", p.ProductID, p.ProductName, p.UnitsSold, p.Revenue.StringFixed(2))
	}

	fmt.Fprintln(tw, "\nLOW STOCK\tQUANTITY\tMINIMUM")
	for _, p := range rep.LowStock {
		fmt.Fprintf(tw, "%d %s\t%d\t%d\n", p.ProductID, p.ProductName, p.Quantity, p.MinStockLevel)
	}
	return tw.Flush()
}

func printSeasonality(w io.Writer, rep *domain.SeasonalityReport) error {
	tw := table(w)
	fmt.Fprintf(tw, "Product:\t%d\n", rep.ProductID)
	fmt.Fprintf(tw, "Months analyzed:\t%d\n", rep.MonthsAnalyzed)
	fmt.Fprintf(tw, "Monthly average:\t%.2f\n", rep.MonthlyAverage)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MONTH\tINDEX")
	for m := 1; m <= 12; m++ {
		marker := ""
		if m == rep.CurrentMonth {
			marker = " <- current"
		}
		fmt.Fprintf(tw, "%s\t%.2f%s\n", time.Month(m), rep.Indices[m], marker)
	}
	return tw.Flush()
}
