package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/stockcast/internal/demand"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/ingest"
	"github.com/andresuchdata/stockcast/internal/pipeline"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func trainAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	res, err := a.forecasts.Train(c.Context, c.Int64("product"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, res)
	}
	return printTrainResults(c.App.Writer, []domain.TrainResult{res})
}

func trainAllAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	run, results, err := a.runner.TrainAll(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, map[string]any{"run": run, "results": results})
	}
	if err := printTrainResults(c.App.Writer, results); err != nil {
		return err
	}
	return printRun(c.App.Writer, run)
}

func forecastAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	res, err := a.forecasts.Forecast(c.Context, c.Int64("product"), c.Int("horizon"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, res)
	}
	return printForecast(c.App.Writer, res, demand.Day(time.Now()).AddDate(0, 0, 1))
}

func reorderAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	id := c.Int64("product")
	s, err := a.forecasts.ReorderSuggestion(c.Context, id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("product %d not found", id)
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, s)
	}
	return printSuggestion(c.App.Writer, s)
}

func reorderAllAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	run, suggestions, err := a.runner.ReorderAll(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("needed-only") {
		needed := suggestions[:0]
		for _, s := range suggestions {
			if s.NeedsReorder {
				needed = append(needed, s)
			}
		}
		suggestions = needed
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, map[string]any{"run": run, "suggestions": suggestions})
	}
	if err := printSuggestions(c.App.Writer, suggestions); err != nil {
		return err
	}
	return printRun(c.App.Writer, run)
}

func trendsAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	rep, err := a.forecasts.Trends(c.Context, c.Int("days"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, rep)
	}
	return printTrends(c.App.Writer, rep)
}

func seasonalityAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	rep, err := a.forecasts.Seasonality(c.Context, c.Int64("product"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, rep)
	}
	return printSeasonality(c.App.Writer, rep)
}

func importAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	downloadDir := c.String("download-dir")
	if downloadDir == "" {
		downloadDir = a.cfg.Drive.DownloadDir
	}

	paths := c.Args().Slice()

	if c.Bool("drive") {
		if a.cfg.Drive.CredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is required for --drive")
		}
		src, err := ingest.NewDriveSource(c.Context, a.cfg.Drive.CredentialsJSON)
		if err != nil {
			return err
		}
		folder := c.String("folder")
		if folder == "" {
			folder = a.cfg.Drive.FolderID
		}
		downloaded, err := ingest.NewDownloader(src).DownloadFolder(c.Context, folder, downloadDir)
		if err != nil {
			return fmt.Errorf("drive download: %w", err)
		}
		paths = append(paths, downloaded...)
	}

	if prefix := c.String("s3-prefix"); prefix != "" {
		if a.objects == nil {
			return fmt.Errorf("MODEL_STORE_S3_ENDPOINT is required for --s3-prefix")
		}
		downloaded, err := ingest.NewDownloader(ingest.NewObjectSource(a.objects)).DownloadFolder(c.Context, prefix, downloadDir)
		if err != nil {
			return fmt.Errorf("s3 download: %w", err)
		}
		paths = append(paths, downloaded...)
	}

	if len(paths) == 0 {
		return fmt.Errorf("no files to import")
	}

	n, err := a.importer.ImportFiles(c.Context, paths...)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, map[string]int{"files": len(paths), "rows": n})
	}
	_, err = fmt.Fprintf(c.App.Writer, "imported %d sales rows from %d files\n", n, len(paths))
	return err
}

func deleteModelAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	id := c.Int64("product")
	if err := a.forecasts.DeleteModel(c.Context, id); err != nil {
		return err
	}
	log.Info().Int64("product_id", id).Msg("model deleted")
	return nil
}

func runsAction(c *cli.Context) error {
	a, err := fromContext(c)
	if err != nil {
		return err
	}

	runs, err := findRuns(c.Context, a.runs, c.String("id"), c.String("kind"), c.Int("limit"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, runs)
	}
	return printRuns(c.App.Writer, runs)
}

// findRuns returns the run with the given id, or the latest runs of kind
// (every kind when empty), newest first.
func findRuns(ctx context.Context, repo pipeline.RunRepository, id, kind string, limit int) ([]*pipeline.Run, error) {
	if id != "" {
		runID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		run, err := repo.Get(ctx, runID)
		if err != nil {
			return nil, err
		}
		return []*pipeline.Run{run}, nil
	}

	kinds := []pipeline.Kind{pipeline.KindTrain, pipeline.KindReorder}
	if kind != "" {
		k := pipeline.Kind(kind)
		if k != pipeline.KindTrain && k != pipeline.KindReorder {
			return nil, fmt.Errorf("unknown run kind %q", kind)
		}
		kinds = []pipeline.Kind{k}
	}

	var out []*pipeline.Run
	for _, k := range kinds {
		runs, err := repo.Recent(ctx, k, limit)
		if err != nil {
			return nil, fmt.Errorf("list %s runs: %w", k, err)
		}
		out = append(out, runs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
