package dataprocessing

import (
	"math"

	"mediamerge/pkg/contracts/domain"
)

// SafeDivide returns num / den, or a missing value when den is zero or
// either operand is missing. The result is never Inf or NaN.
func SafeDivide(num, den domain.NullFloat) domain.NullFloat {
	if !num.Valid || !den.Valid || den.Value == 0 {
		return domain.NullFloat{}
	}
	return finite(num.Value / den.Value)
}

// scale multiplies a present value and passes missing values through
func scale(v domain.NullFloat, factor float64) domain.NullFloat {
	if !v.Valid {
		return v
	}
	return finite(v.Value * factor)
}

func finite(v float64) domain.NullFloat {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return domain.NullFloat{}
	}
	return domain.Float(v)
}

// CalculateMetrics derives the efficiency metrics of one row. Each metric
// depends only on the row's own canonical fields.
func CalculateMetrics(r domain.MediaRecord) domain.Metrics {
	var m domain.Metrics

	// Impressions/1000 only reaches zero when Impressions is zero
	if r.Impressions.Valid && r.Impressions.Value != 0 {
		m.CPM = SafeDivide(r.Spend, domain.Float(r.Impressions.Value/1000))
	}
	m.CTR = scale(SafeDivide(r.Clicks, r.Impressions), 100)
	m.CPC = SafeDivide(r.Spend, r.Clicks)
	m.ROAS = SafeDivide(r.Revenue, r.Spend)
	m.ConversionRate = scale(SafeDivide(r.Conversions, r.Clicks), 100)

	return m
}

// Calculator attaches derived metrics to every row of a canonical table
type Calculator struct{}

// NewCalculator creates a metric calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate returns the metric table for ct. Metric columns are appended
// after the canonical table's columns unless the source already carried
// a column of the same name, in which case the derived value replaces it
// in place.
func (c *Calculator) Calculate(ct *domain.CanonicalTable) *domain.MetricTable {
	out := &domain.MetricTable{
		Name:       ct.Name,
		Columns:    appendMissing(ct.Columns, domain.MetricColumns...),
		HasChannel: ct.HasChannel,
		Rows:       make([]domain.MetricRow, len(ct.Rows)),
	}
	for i, rec := range ct.Rows {
		out.Rows[i] = domain.MetricRow{
			MediaRecord: rec,
			Metrics:     CalculateMetrics(rec),
		}
	}
	return out
}

// appendMissing returns a copy of cols with each of extra appended unless
// already present.
func appendMissing(cols []string, extra ...string) []string {
	out := make([]string, len(cols), len(cols)+len(extra))
	copy(out, cols)
	present := make(map[string]bool, len(cols)+len(extra))
	for _, c := range cols {
		present[c] = true
	}
	for _, c := range extra {
		if !present[c] {
			present[c] = true
			out = append(out, c)
		}
	}
	return out
}
