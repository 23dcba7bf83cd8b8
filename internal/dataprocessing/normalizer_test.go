package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediamerge/internal/shared/testutil"
	"mediamerge/pkg/contracts/domain"
)

func rawTable(name string, columns []string, rows ...[]domain.Cell) *domain.RawTable {
	t := &domain.RawTable{Name: name, Columns: columns}
	for _, cells := range rows {
		rec := make(domain.Record, len(columns))
		for i, col := range columns {
			if i < len(cells) {
				rec[col] = cells[i]
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

func num(v float64) domain.Cell { return domain.NumberCell(v) }
func txt(s string) domain.Cell  { return domain.TextCell(s) }

// toRaw renders a canonical table back to raw form under its output names
func toRaw(ct *domain.CanonicalTable) *domain.RawTable {
	raw := &domain.RawTable{Name: ct.Name, Columns: ct.Columns}
	for _, r := range ct.Rows {
		rec := make(domain.Record)
		for k, v := range r.Extra {
			rec[k] = v
		}
		rec[domain.ColumnSpend] = r.Spend.Cell()
		rec[domain.ColumnImpressions] = r.Impressions.Cell()
		rec[domain.ColumnClicks] = r.Clicks.Cell()
		rec[domain.ColumnConversions] = r.Conversions.Cell()
		rec[domain.ColumnRevenue] = r.Revenue.Cell()
		if ct.HasChannel {
			rec[domain.ColumnChannel] = domain.TextCell(r.Channel)
		}
		raw.Rows = append(raw.Rows, rec)
	}
	return raw
}

func TestNormalizer_Normalize_Aliases(t *testing.T) {
	tests := []struct {
		name      string
		column    string
		canonical string
	}{
		{"spend", "Spend", domain.ColumnSpend},
		{"cost with whitespace", "  COST ", domain.ColumnSpend},
		{"spend pounds", "Spend (£)", domain.ColumnSpend},
		{"views", "Views", domain.ColumnImpressions},
		{"impressions", "impressions", domain.ColumnImpressions},
		{"clicks", "CLICKS", domain.ColumnClicks},
		{"conversions", "Conversions", domain.ColumnConversions},
		{"revenue", " revenue", domain.ColumnRevenue},
		{"revenue pounds", "REVENUE (£)", domain.ColumnRevenue},
		{"channel", " CHANNEL ", domain.ColumnChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalColumnFor(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.canonical, got)
		})
	}

	_, ok := CanonicalColumnFor("Campaign")
	assert.False(t, ok)
}

func TestNormalizer_Normalize(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	raw := rawTable("meta.xlsx",
		[]string{"Date", "cost", "Views", "channel", "Clicks"},
		[]domain.Cell{txt("2024-03-01"), num(100), num(20000), txt("Social"), num(50)},
		[]domain.Cell{txt("2024-03-02"), domain.EmptyCell(), txt("n/a"), txt("Search"), num(10)},
	)

	ct := NewNormalizer(logger).Normalize(raw)

	assert.Equal(t, []string{
		"Date", domain.ColumnSpend, domain.ColumnImpressions, domain.ColumnChannel, domain.ColumnClicks,
		domain.ColumnConversions, domain.ColumnRevenue,
	}, ct.Columns)
	assert.True(t, ct.HasChannel)
	require.Len(t, ct.Rows, 2)

	first := ct.Rows[0]
	assert.Equal(t, domain.Float(100), first.Spend)
	assert.Equal(t, domain.Float(20000), first.Impressions)
	assert.Equal(t, domain.Float(50), first.Clicks)
	assert.Equal(t, "Social", first.Channel)
	assert.Equal(t, "2024-03-01", first.Extra["Date"].String())

	// absent columns are zero, not missing
	assert.Equal(t, domain.Float(0), first.Conversions)
	assert.Equal(t, domain.Float(0), first.Revenue)

	// empty or non-numeric cells in a present column are missing
	second := ct.Rows[1]
	assert.False(t, second.Spend.Valid)
	assert.False(t, second.Impressions.Valid)
}

func TestNormalizer_Normalize_NoChannelColumn(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	raw := rawTable("tv.csv", []string{"Spend", "Network"}, []domain.Cell{num(5), txt("ITV")})

	ct := NewNormalizer(logger).Normalize(raw)

	assert.False(t, ct.HasChannel)
	assert.NotContains(t, ct.Columns, domain.ColumnChannel)
	assert.Equal(t, "ITV", ct.Rows[0].Extra["Network"].String())
}

func TestNormalizer_Normalize_DuplicateAliasKeepsFirst(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	raw := rawTable("dup.csv", []string{"Spend", "Cost"}, []domain.Cell{num(1), num(2)})

	ct := NewNormalizer(logger).Normalize(raw)

	assert.Equal(t, domain.Float(1), ct.Rows[0].Spend)
	assert.Equal(t, "2", ct.Rows[0].Extra["Cost"].String())
	assert.Contains(t, ct.Columns, "Cost")
	assert.True(t, logs.ContainsMessage("duplicate column"))
}

func TestNormalizer_Normalize_Idempotent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	n := NewNormalizer(logger)
	raw := rawTable("mixed.csv",
		[]string{"Campaign", "Cost", "Views", "Channel", "Revenue"},
		[]domain.Cell{txt("A"), num(10), num(1000), txt("Search"), num(25)},
		[]domain.Cell{txt("B"), domain.EmptyCell(), num(0), txt("TV"), num(5)},
	)

	once := n.Normalize(raw)
	twice := n.Normalize(toRaw(once))

	assert.Equal(t, once, twice)
}
