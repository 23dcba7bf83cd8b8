package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediamerge/internal/shared/testutil"
	"mediamerge/pkg/contracts/domain"
)

func testDataset() *domain.MergedDataset {
	return &domain.MergedDataset{
		Columns: []string{"Date", domain.ColumnSpend, domain.ColumnCPM, domain.ColumnCPMStatus, "Network", domain.ColumnSourceFile},
		Rows: []domain.Record{
			{
				"Date":                  domain.TextCell("2024-03-01"),
				domain.ColumnSpend:      domain.NumberCell(100),
				domain.ColumnCPM:        domain.NumberCell(2.0 / 3.0),
				domain.ColumnCPMStatus:  domain.TextCell(string(domain.StatusAboveBenchmark)),
				"Network":               domain.EmptyCell(),
				domain.ColumnSourceFile: domain.TextCell("meta.xlsx"),
			},
			{
				"Date":                  domain.EmptyCell(),
				domain.ColumnSpend:      domain.NumberCell(50),
				domain.ColumnCPM:        domain.EmptyCell(),
				domain.ColumnCPMStatus:  domain.TextCell(string(domain.StatusNoBenchmark)),
				"Network":               domain.TextCell("ITV, late"),
				domain.ColumnSourceFile: domain.TextCell("tv.csv"),
			},
		},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_Write(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var buf bytes.Buffer

	err := NewCSVWriter(DefaultWriteOptions(), logger).Write(&buf, testDataset())
	require.NoError(t, err)

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Date", "Spend (£)", "CPM (£)", "CPM Status", "Network", "Source File"}, records[0])
	assert.Equal(t, []string{"2024-03-01", "100", "0.6666666666666666", "Above Benchmark", "", "meta.xlsx"}, records[1])
	assert.Equal(t, []string{"", "50", "", "No Benchmark", "ITV, late", "tv.csv"}, records[2])
}

func TestCSVWriter_Write_Options(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		bom     bool
		cpm     string
	}{
		{"default", DefaultWriteOptions(), false, "0.6666666666666666"},
		{"bom", WriteOptions{BOMPrefix: true, Precision: -1}, true, "0.6666666666666666"},
		{"precision", WriteOptions{Precision: 2}, false, "0.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			require.NoError(t, NewCSVWriter(tt.options, nil).Write(&buf, testDataset()))

			data := buf.Bytes()
			assert.Equal(t, tt.bom, bytes.HasPrefix(data, utf8BOM))
			records := readCSV(t, bytes.TrimPrefix(data, utf8BOM))
			assert.Equal(t, tt.cpm, records[1][2])
		})
	}
}

func TestCSVWriter_Write_EveryRowHasEveryColumn(t *testing.T) {
	var buf bytes.Buffer
	ds := testDataset()

	require.NoError(t, NewCSVWriter(DefaultWriteOptions(), nil).Write(&buf, ds))

	for _, rec := range readCSV(t, buf.Bytes()) {
		assert.Len(t, rec, len(ds.Columns))
	}
}

func TestCSVWriter_Write_NilDataset(t *testing.T) {
	var buf bytes.Buffer

	err := NewCSVWriter(DefaultWriteOptions(), nil).Write(&buf, nil)

	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCSVWriter_Write_PropagatesWriterErrors(t *testing.T) {
	err := NewCSVWriter(WriteOptions{BOMPrefix: true}, nil).Write(failingWriter{}, testDataset())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer

	sw, err := NewStreamWriter(&buf, []string{"a", "b"}, false)
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"1", "2"}))
	require.NoError(t, sw.Flush())

	assert.Equal(t, "a,b\n1,2\n", buf.String())
}
