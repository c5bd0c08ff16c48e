package main

import (
	"os"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/pkg/logger"
	"github.com/urfave/cli/v2"
)

func productFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "product",
		Aliases:  []string{"p"},
		Usage:    "Product id",
		Required: true,
	}
}

func workersFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "workers",
		Usage: "Products processed concurrently (defaults to FORECAST_WORKERS)",
	}
}

func configure(c *cli.Context) error {
	cfg := config.Load()
	if c.IsSet("db-url") {
		cfg.Database.URL = c.String("db-url")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	logger.SetLevel(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	return nil
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "stockcast",
		Usage: "Demand forecasting and reorder suggestions for retail inventory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Database connection string",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Before: configure,
		Commands: []*cli.Command{
			{
				Name:   "train",
				Usage:  "Train the demand model of one product",
				Flags:  []cli.Flag{productFlag()},
				Before: openApp,
				After:  closeApp,
				Action: trainAction,
			},
			{
				Name:   "train-all",
				Usage:  "Train demand models for every product",
				Flags:  []cli.Flag{workersFlag()},
				Before: openApp,
				After:  closeApp,
				Action: trainAllAction,
			},
			{
				Name:  "forecast",
				Usage: "Forecast daily demand of one product",
				Flags: []cli.Flag{
					productFlag(),
					&cli.IntFlag{
						Name:    "horizon",
						Aliases: []string{"n"},
						Usage:   "Number of days to forecast",
						Value:   30,
					},
				},
				Before: openApp,
				After:  closeApp,
				Action: forecastAction,
			},
			{
				Name:   "reorder",
				Usage:  "Suggest whether and how much to reorder for one product",
				Flags:  []cli.Flag{productFlag()},
				Before: openApp,
				After:  closeApp,
				Action: reorderAction,
			},
			{
				Name:  "reorder-all",
				Usage: "Suggest reorders for every product, most urgent first",
				Flags: []cli.Flag{
					workersFlag(),
					&cli.BoolFlag{
						Name:  "needed-only",
						Usage: "Only list products that need reordering",
					},
				},
				Before: openApp,
				After:  closeApp,
				Action: reorderAllAction,
			},
			{
				Name:  "trends",
				Usage: "Summarize recent sales and stock levels",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Trailing window in days (defaults to FORECAST_TREND_WINDOW_DAYS)",
					},
				},
				Before: openApp,
				After:  closeApp,
				Action: trendsAction,
			},
			{
				Name:   "seasonality",
				Usage:  "Estimate month-of-year demand indices for one product",
				Flags:  []cli.Flag{productFlag()},
				Before: openApp,
				After:  closeApp,
				Action: seasonalityAction,
			},
			{
				Name:      "import",
				Usage:     "Import sales from CSV/XLSX files, a Google Drive folder or an S3 prefix",
				ArgsUsage: "[file ...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "drive",
						Usage: "Download ledger files from Google Drive first",
					},
					&cli.StringFlag{
						Name:    "folder",
						Usage:   "Google Drive folder id (defaults to SALES_DRIVE_FOLDER_ID)",
						EnvVars: []string{"SALES_DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{
						Name:  "s3-prefix",
						Usage: "Download ledger files under this S3 prefix first",
					},
					&cli.StringFlag{
						Name:    "download-dir",
						Usage:   "Directory for downloaded files",
						EnvVars: []string{"SALES_DOWNLOAD_DIR"},
					},
				},
				Before: openApp,
				After:  closeApp,
				Action: importAction,
			},
			{
				Name:  "runs",
				Usage: "List recent batch runs, or show one by id",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only runs of this kind (train or reorder)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Show a single run",
					},
				},
				Before: openApp,
				After:  closeApp,
				Action: runsAction,
			},
			{
				Name:  "models",
				Usage: "Manage stored demand models",
				Subcommands: []*cli.Command{
					{
						Name:   "delete",
						Usage:  "Delete the stored model of one product",
						Flags:  []cli.Flag{productFlag()},
						Before: openApp,
						After:  closeApp,
						Action: deleteModelAction,
					},
				},
			},
		},
	}
}

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("stockcast failed")
	}
}
