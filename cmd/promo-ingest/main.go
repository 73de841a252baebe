// Command promo-ingest distills large gzipped promo-code dumps into a YAML
// fragment for the server config. A code is accepted only when it appears in
// at least two of the input files; single-file codes are treated as noise.
//
// The dumps are far too large to hold in memory, so the tool runs two
// streaming passes: the first builds a bloom filter per file, the second
// checks every code against the other files' filters.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/makeup-store/internal/domain/promo"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	minCodeLen    = 8
	maxCodeLen    = 10
)

func main() {
	var (
		dataDir  string
		outFile  string
		discount float64
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz promo code dumps")
	flag.StringVar(&outFile, "out", "promo-codes.yaml", "output YAML file")
	flag.Float64Var(&discount, "discount", 0.10, "discount fraction assigned to ingested codes")
	flag.Parse()

	if discount <= 0 || discount > 1 {
		slog.Error("discount must be in (0, 1]", slog.Float64("discount", discount))
		os.Exit(1)
	}

	if err := run(context.Background(), dataDir, outFile, discount); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, outFile string, discount float64) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) < 2 {
		return errors.Errorf("need at least 2 dump files in %s, found %d", dataDir, len(files))
	}
	sort.Strings(files)

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))
	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: finding codes present in 2+ files")
	codes, err := findValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}
	slog.Info("valid codes found", slog.Int("count", len(codes)))

	return writeYAML(outFile, codes, discount)
}

// buildFilters streams every file once and fills one bloom filter per file.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			err := scanCodes(ctx, file, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", file)
			}
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findValidCodes streams every file again and keeps codes that any other
// file's filter also contains. Bloom false positives are acceptable: they
// only ever admit an extra code, never drop a real one.
func findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]struct{}, error) {
	valid := make(map[string]struct{})
	for i, file := range files {
		err := scanCodes(ctx, file, func(code string) {
			if _, ok := valid[code]; ok {
				return
			}
			for j, filter := range filters {
				if j != i && filter.TestString(code) {
					valid[code] = struct{}{}
					return
				}
			}
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", file)
		}
	}
	return valid, nil
}

// scanCodes streams a gzipped file line by line, normalizes each code, and
// passes the ones with a plausible length to fn.
func scanCodes(ctx context.Context, file string, fn func(code string)) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		if lines++; lines%50_000_000 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		code := promo.Normalize(scanner.Text())
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		fn(code)
	}
	return errors.Wrap(scanner.Err(), "scan")
}

// writeYAML emits the codes as an aconfig-compatible promocodes mapping.
func writeYAML(outFile string, codes map[string]struct{}, discount float64) error {
	sorted := make([]string, 0, len(codes))
	for code := range codes {
		sorted = append(sorted, code)
	}
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("promocodes:\n")
	for _, code := range sorted {
		fmt.Fprintf(&b, "  %s: %.2f\n", code, discount)
	}

	if err := os.WriteFile(outFile, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, "write output")
	}
	slog.Info("wrote promo config", slog.String("file", outFile), slog.Int("codes", len(sorted)))
	return nil
}
