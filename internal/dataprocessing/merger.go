package dataprocessing

import (
	"time"

	"mediamerge/pkg/contracts/domain"
)

// StampSource tags every row of ct with its originating file and adds the
// Source File column.
func StampSource(ct *domain.ComparedTable, source string) {
	for i := range ct.Rows {
		ct.Rows[i].SourceFile = source
	}
	ct.Columns = appendMissing(ct.Columns, domain.ColumnSourceFile)
}

// Records renders the rows of ct as output records holding exactly the
// table's columns.
func Records(ct *domain.ComparedTable) []domain.Record {
	records := make([]domain.Record, len(ct.Rows))
	for i, row := range ct.Rows {
		full := rowRecord(row, ct.Joined)
		rec := make(domain.Record, len(ct.Columns))
		for _, col := range ct.Columns {
			rec[col] = full.Get(col)
		}
		records[i] = rec
	}
	return records
}

// rowRecord lays out every field of a compared row under its output column.
// Derived values are written after pass-through cells so they win on a
// name clash. Benchmark values only exist for joined tables; otherwise a
// source column with the same name is kept as is.
func rowRecord(row domain.ComparedRow, joined bool) domain.Record {
	rec := make(domain.Record, len(row.Extra)+17)
	for k, v := range row.Extra {
		rec[k] = v
	}

	rec[domain.ColumnSpend] = row.Spend.Cell()
	rec[domain.ColumnImpressions] = row.Impressions.Cell()
	rec[domain.ColumnClicks] = row.Clicks.Cell()
	rec[domain.ColumnConversions] = row.Conversions.Cell()
	rec[domain.ColumnRevenue] = row.Revenue.Cell()
	rec[domain.ColumnChannel] = domain.TextCell(row.Channel)

	rec[domain.ColumnCPM] = row.CPM.Cell()
	rec[domain.ColumnCTR] = row.CTR.Cell()
	rec[domain.ColumnCPC] = row.CPC.Cell()
	rec[domain.ColumnROAS] = row.ROAS.Cell()
	rec[domain.ColumnConversionRate] = row.ConversionRate.Cell()

	if joined {
		rec[domain.ColumnBenchmarkCPM] = row.BenchmarkCPM.Cell()
		rec[domain.ColumnBenchmarkROAS] = row.BenchmarkROAS.Cell()
	}
	rec[domain.ColumnCPMDelta] = row.CPMDelta.Cell()
	rec[domain.ColumnCPMStatus] = domain.TextCell(string(row.CPMStatus))
	rec[domain.ColumnROASStatus] = domain.TextCell(string(row.ROASStatus))
	rec[domain.ColumnSourceFile] = domain.TextCell(row.SourceFile)

	return rec
}

// Merger concatenates processed tables into one dataset
type Merger struct{}

// NewMerger creates a dataset merger
func NewMerger() *Merger {
	return &Merger{}
}

// Merge concatenates tables in order. The result has the union of their
// columns in first-seen order and every row holds every column; cells a
// table did not have are empty.
func (m *Merger) Merge(tables []*domain.ComparedTable) *domain.MergedDataset {
	ds := &domain.MergedDataset{CreatedAt: time.Now()}

	for _, t := range tables {
		ds.Columns = appendMissing(ds.Columns, t.Columns...)
		ds.Sources = append(ds.Sources, t.Name)
	}

	for _, t := range tables {
		for _, rec := range Records(t) {
			for _, col := range ds.Columns {
				if _, ok := rec[col]; !ok {
					rec[col] = domain.EmptyCell()
				}
			}
			ds.Rows = append(ds.Rows, rec)
		}
	}

	return ds
}
