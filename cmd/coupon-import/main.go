// Command coupon-import loads promo codes from gzipped code-list files into
// the coupons table. A code must appear in at least two lists to be
// imported; single-list codes are treated as noise from the upstream feeds.
//
// The lists are far too large to hold in memory, so the importer makes two
// streaming passes: pass 1 builds one bloom filter per file, pass 2
// re-streams each file and keeps codes that hit another file's filter.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bazaar-dev/bazaar/internal/domain/coupon"
	"github.com/bazaar-dev/bazaar/internal/repository"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// fileResult holds candidate codes found in a single file during pass 2.
type fileResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir     string
		databaseURL string
		percent     int64
		validMonths int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code-list files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Int64Var(&percent, "discount-percent", 10, "percentage discount for imported codes")
	flag.IntVar(&validMonths, "valid-months", 6, "months until imported codes expire")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, percent, validMonths); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, percent int64, validMonths int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) < 2 {
		return errors.Errorf("need at least 2 code-list files in %s, found %d", dataDir, len(files))
	}

	// Pass 1: build bloom filters concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: find codes appearing in 2+ files.
	slog.Info("pass 2: finding verified codes")

	codes, err := findVerifiedCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find verified codes")
	}

	slog.Info("verified codes found", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("no verified codes to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := importCoupons(ctx, repository.NewCouponRepository(pool), codes, percent, validMonths); err != nil {
		return errors.Wrap(err, "import coupons")
	}
	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) >= minCodeLen && len(code) <= maxCodeLen {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("file", idx+1),
						slog.Uint64("codes", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findVerifiedCodes re-streams each file and checks codes against the OTHER
// files' bloom filters. A code is verified if it appears in 2 or more files.
func findVerifiedCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge file-membership bitmasks from all files.
	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	var verified []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			verified = append(verified, code)
		}
	}
	return verified, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}

			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= fileBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// importCoupons inserts every verified code as an active percentage coupon.
// Codes already present in the table are skipped.
func importCoupons(ctx context.Context, repo *repository.CouponRepository, codes []string, percent int64, validMonths int) error {
	slog.Info("importing coupons", slog.Int("count", len(codes)))

	now := time.Now()
	value := decimal.NewFromInt(percent)
	var imported, skipped int

	for i, code := range codes {
		c := &coupon.Coupon{
			ID:            uuid.New().String(),
			Code:          strings.ToUpper(code),
			DiscountType:  coupon.DiscountPercentage,
			DiscountValue: value,
			MinCartValue:  decimal.Zero,
			ExpiryDate:    now.AddDate(0, validMonths, 0),
			IsActive:      true,
			CreatedAt:     now,
		}

		err := repo.Create(ctx, c)
		switch {
		case errors.Is(err, coupon.ErrCodeExists):
			skipped++
		case err != nil:
			return errors.Wrapf(err, "insert coupon %s", code)
		default:
			imported++
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("import progress", slog.Int("done", i+1), slog.Int("total", len(codes)))
		}
	}

	slog.Info("import summary", slog.Int("imported", imported), slog.Int("skipped", skipped))
	return nil
}
