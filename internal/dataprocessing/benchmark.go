package dataprocessing

import (
	"log/slog"

	apierrors "mediamerge/internal/errors"
	"mediamerge/pkg/contracts/domain"
)

// Required benchmark columns, matched case-insensitively after trimming
var benchmarkColumns = []string{
	domain.ColumnChannel,
	domain.ColumnBenchmarkCPM,
	domain.ColumnBenchmarkROAS,
}

// BenchmarkLoader turns a parsed benchmark upload into a lookup table
type BenchmarkLoader struct {
	logger *slog.Logger
}

// NewBenchmarkLoader creates a benchmark loader
func NewBenchmarkLoader(logger *slog.Logger) *BenchmarkLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &BenchmarkLoader{logger: logger.With(slog.String("component", "benchmark_loader"))}
}

// Load validates that raw has the Channel, Benchmark CPM and Benchmark
// ROAS columns and builds the table. Rows without a channel are skipped.
func (l *BenchmarkLoader) Load(raw *domain.RawTable) (*domain.BenchmarkTable, error) {
	found := make(map[string]string, len(benchmarkColumns))
	for _, col := range raw.Columns {
		key := NormalizeColumnName(col)
		for _, want := range benchmarkColumns {
			if key == NormalizeColumnName(want) {
				if _, dup := found[want]; !dup {
					found[want] = col
				}
			}
		}
	}

	var missing []string
	for _, want := range benchmarkColumns {
		if _, ok := found[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, apierrors.NewMissingBenchmarkColumnsError(raw.Name, missing)
	}

	rows := make([]domain.BenchmarkRow, 0, len(raw.Rows))
	skipped := 0
	for _, rec := range raw.Rows {
		channel := rec.Get(found[domain.ColumnChannel]).String()
		if channel == "" {
			skipped++
			continue
		}
		rows = append(rows, domain.BenchmarkRow{
			Channel: channel,
			CPM:     cellValue(rec.Get(found[domain.ColumnBenchmarkCPM])),
			ROAS:    cellValue(rec.Get(found[domain.ColumnBenchmarkROAS])),
		})
	}

	table := domain.NewBenchmarkTable(raw.Name, rows)
	l.logger.Info("benchmark table loaded",
		slog.String("file", raw.Name),
		slog.Int("rows", len(rows)),
		slog.Int("skipped", skipped))

	return table, nil
}

func cellValue(c domain.Cell) domain.NullFloat {
	v, ok := c.Float()
	return domain.NullFloat{Value: v, Valid: ok}
}

// Classify compares a metric against its benchmark. A tie is Below; a
// missing benchmark or an undefined metric cannot be compared.
func Classify(metric, benchmark domain.NullFloat) domain.BenchmarkStatus {
	if !benchmark.Valid || !metric.Valid {
		return domain.StatusNoBenchmark
	}
	if metric.Value > benchmark.Value {
		return domain.StatusAboveBenchmark
	}
	return domain.StatusBelowBenchmark
}

// Joiner compares metric rows against a benchmark table
type Joiner struct {
	distinguishNoChannel bool
}

// NewJoiner creates a joiner. With distinguishNoChannel set, a table that
// has no Channel column is marked No Channel rather than No Benchmark
// when a benchmark is loaded.
func NewJoiner(distinguishNoChannel bool) *Joiner {
	return &Joiner{distinguishNoChannel: distinguishNoChannel}
}

// Join left-joins mt against bench on exact Channel equality. bench may
// be nil when no benchmark has been loaded.
func (j *Joiner) Join(mt *domain.MetricTable, bench *domain.BenchmarkTable) *domain.ComparedTable {
	joined := bench != nil && mt.HasChannel

	cols := mt.Columns
	if joined {
		cols = appendMissing(cols, domain.ColumnBenchmarkCPM, domain.ColumnBenchmarkROAS)
	}
	out := &domain.ComparedTable{
		Name:    mt.Name,
		Columns: appendMissing(cols, domain.ColumnCPMDelta, domain.ColumnCPMStatus, domain.ColumnROASStatus),
		Joined:  joined,
		Rows:    make([]domain.ComparedRow, len(mt.Rows)),
	}

	tableStatus := domain.StatusNoBenchmark
	if bench != nil && !mt.HasChannel && j.distinguishNoChannel {
		tableStatus = domain.StatusNoChannel
	}

	for i, row := range mt.Rows {
		cr := domain.ComparedRow{MetricRow: row}
		if !joined {
			cr.CPMStatus = tableStatus
			cr.ROASStatus = tableStatus
			out.Rows[i] = cr
			continue
		}

		if b, ok := bench.Lookup(row.Channel); ok {
			cr.BenchmarkCPM = b.CPM
			cr.BenchmarkROAS = b.ROAS
		}
		if row.CPM.Valid && cr.BenchmarkCPM.Valid {
			cr.CPMDelta = finite(row.CPM.Value - cr.BenchmarkCPM.Value)
		}
		cr.CPMStatus = Classify(row.CPM, cr.BenchmarkCPM)
		cr.ROASStatus = Classify(row.ROAS, cr.BenchmarkROAS)
		out.Rows[i] = cr
	}

	return out
}
