package domain

// Output column names. These are part of the export format and must not change.
const (
	ColumnSpend          = "Spend (£)"
	ColumnImpressions    = "Impressions"
	ColumnClicks         = "Clicks"
	ColumnConversions    = "Conversions"
	ColumnRevenue        = "Revenue (£)"
	ColumnCPM            = "CPM (£)"
	ColumnCTR            = "CTR (%)"
	ColumnCPC            = "CPC (£)"
	ColumnROAS           = "ROAS"
	ColumnConversionRate = "Conversion Rate (%)"
	ColumnChannel        = "Channel"
	ColumnBenchmarkCPM   = "Benchmark CPM"
	ColumnBenchmarkROAS  = "Benchmark ROAS"
	ColumnCPMDelta       = "CPM vs Benchmark"
	ColumnCPMStatus      = "CPM Status"
	ColumnROASStatus     = "ROAS Status"
	ColumnSourceFile     = "Source File"
)

// CanonicalColumns lists the numeric input fields in output order
var CanonicalColumns = []string{
	ColumnSpend,
	ColumnImpressions,
	ColumnClicks,
	ColumnConversions,
	ColumnRevenue,
}

// MetricColumns lists the derived metric columns in output order
var MetricColumns = []string{
	ColumnCPM,
	ColumnCTR,
	ColumnCPC,
	ColumnROAS,
	ColumnConversionRate,
}

// BenchmarkStatus is the result of comparing a metric against its benchmark
type BenchmarkStatus string

const (
	StatusAboveBenchmark BenchmarkStatus = "Above Benchmark"
	StatusBelowBenchmark BenchmarkStatus = "Below Benchmark"
	StatusNoBenchmark    BenchmarkStatus = "No Benchmark"
	StatusNoChannel      BenchmarkStatus = "No Channel"
)

// MediaRecord is one row in canonical form. Every numeric field is set,
// either to a value or explicitly missing; Extra carries the columns that
// did not map to the canonical schema, keyed by their source name.
type MediaRecord struct {
	Spend       NullFloat `json:"spend"`
	Impressions NullFloat `json:"impressions"`
	Clicks      NullFloat `json:"clicks"`
	Conversions NullFloat `json:"conversions"`
	Revenue     NullFloat `json:"revenue"`
	Channel     string    `json:"channel,omitempty"`
	Extra       Record    `json:"extra,omitempty"`
}

// CanonicalTable is the normalizer output for one upload
type CanonicalTable struct {
	Name string
	// Columns is the output column order: source order after renaming,
	// followed by canonical columns that were absent and defaulted.
	Columns    []string
	HasChannel bool
	Rows       []MediaRecord
}

// Metrics holds the derived efficiency metrics for a row
type Metrics struct {
	CPM            NullFloat `json:"cpm"`
	CTR            NullFloat `json:"ctr"`
	CPC            NullFloat `json:"cpc"`
	ROAS           NullFloat `json:"roas"`
	ConversionRate NullFloat `json:"conversion_rate"`
}

// MetricRow is a canonical row with its derived metrics
type MetricRow struct {
	MediaRecord
	Metrics
}

// MetricTable is a canonical table after metric derivation
type MetricTable struct {
	Name       string
	Columns    []string
	HasChannel bool
	Rows       []MetricRow
}

// ComparedRow is the unit of output: a metric row compared against the
// benchmark for its channel and tagged with its source file.
type ComparedRow struct {
	MetricRow
	BenchmarkCPM  NullFloat       `json:"benchmark_cpm"`
	BenchmarkROAS NullFloat       `json:"benchmark_roas"`
	CPMDelta      NullFloat       `json:"cpm_delta"`
	CPMStatus     BenchmarkStatus `json:"cpm_status"`
	ROASStatus    BenchmarkStatus `json:"roas_status"`
	SourceFile    string          `json:"source_file"`
}

// ComparedTable is the fully processed output of one upload
type ComparedTable struct {
	Name    string
	Columns []string
	// Joined is set when the rows were looked up in a benchmark table,
	// which adds the benchmark value columns to the output.
	Joined bool
	Rows   []ComparedRow
}
