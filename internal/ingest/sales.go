// Package ingest loads sale observations from CSV and XLSX ledgers, either
// local or pulled from Google Drive or an S3 bucket.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var requiredColumns = []string{"product_id", "date", "quantity"}

var ErrUnsupportedFormat = errors.New("unsupported file format")

// RowError points at the offending line; the header is row 1.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// SalesWriter appends observations to the sales ledger.
type SalesWriter interface {
	InsertSales(ctx context.Context, sales []domain.SaleObservation) (int, error)
}

// ParseCSV reads a sales ledger with a header row.
func ParseCSV(r io.Reader) ([]domain.SaleObservation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return parseRecords(records)
}

func parseRecords(records [][]string) ([]domain.SaleObservation, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	// Map header to indices
	colMap := make(map[string]int)
	for i, col := range records[0] {
		colMap[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	sales := make([]domain.SaleObservation, 0, len(records)-1)
	for i, record := range records[1:] {
		row := i + 2
		if blank(record) {
			continue
		}
		s, err := parseRow(row, record, colMap)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, nil
}

func parseRow(row int, record []string, colMap map[string]int) (domain.SaleObservation, error) {
	getValue := func(colName string) string {
		if idx, ok := colMap[colName]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}
	fail := func(col string, err error) (domain.SaleObservation, error) {
		return domain.SaleObservation{}, &RowError{Row: row, Column: col, Err: err}
	}

	id, err := strconv.ParseInt(getValue("product_id"), 10, 64)
	if err != nil || id <= 0 {
		return fail("product_id", fmt.Errorf("invalid product id %q", getValue("product_id")))
	}

	date, err := time.Parse(dateLayout, getValue("date"))
	if err != nil {
		return fail("date", fmt.Errorf("expected YYYY-MM-DD, got %q", getValue("date")))
	}

	// spreadsheets often export whole numbers as "3.0"
	qty, err := strconv.ParseFloat(getValue("quantity"), 64)
	if err != nil || qty != math.Trunc(qty) || math.IsInf(qty, 0) {
		return fail("quantity", fmt.Errorf("invalid quantity %q", getValue("quantity")))
	}
	if qty < 0 {
		return fail("quantity", fmt.Errorf("negative quantity %v", qty))
	}

	price := decimal.Zero
	if raw := getValue("unit_price"); raw != "" {
		price, err = decimal.NewFromString(raw)
		if err != nil {
			return fail("unit_price", fmt.Errorf("invalid unit price %q", raw))
		}
		if price.IsNegative() {
			return fail("unit_price", fmt.Errorf("negative unit price %s", price))
		}
	}

	return domain.SaleObservation{
		ProductID: id,
		Date:      date,
		Quantity:  int(qty),
		UnitPrice: price,
	}, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseFile dispatches on the file extension.
func ParseFile(path string) ([]domain.SaleObservation, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		sales, err := ParseCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return sales, nil
	case ".xlsx":
		sales, err := ParseXLSX(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return sales, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// CacheInvalidator drops cached forecasts for a product whose history changed.
type CacheInvalidator interface {
	InvalidateProduct(ctx context.Context, productID int64) error
}

type Importer struct {
	sales SalesWriter
	cache CacheInvalidator
}

// NewImporter builds an importer. cache may be nil.
func NewImporter(sales SalesWriter, cache CacheInvalidator) *Importer {
	return &Importer{sales: sales, cache: cache}
}

// ImportFiles parses every file before writing anything, so one bad row
// rejects the whole batch.
func (im *Importer) ImportFiles(ctx context.Context, paths ...string) (int, error) {
	var all []domain.SaleObservation
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		sales, err := ParseFile(p)
		if err != nil {
			return 0, err
		}
		log.Debug().Str("file", p).Int("rows", len(sales)).Msg("parsed sales file")
		all = append(all, sales...)
	}
	if len(all) == 0 {
		return 0, nil
	}

	n, err := im.sales.InsertSales(ctx, all)
	if err != nil {
		return 0, fmt.Errorf("insert sales: %w", err)
	}
	log.Info().Int("files", len(paths)).Int("rows", n).Msg("sales imported")

	im.invalidate(ctx, all)
	return n, nil
}

// invalidate logs failures instead of failing an import that already landed.
func (im *Importer) invalidate(ctx context.Context, sales []domain.SaleObservation) {
	if im.cache == nil {
		return
	}
	seen := make(map[int64]struct{})
	for _, s := range sales {
		if _, ok := seen[s.ProductID]; ok {
			continue
		}
		seen[s.ProductID] = struct{}{}
		if err := im.cache.InvalidateProduct(ctx, s.ProductID); err != nil {
			log.Warn().Err(err).Int64("product_id", s.ProductID).Msg("failed to invalidate forecast cache")
		}
	}
}
