package domain

import "time"

// BenchmarkRow is a reference CPM/ROAS pair for one channel
type BenchmarkRow struct {
	Channel string    `json:"channel"`
	CPM     NullFloat `json:"benchmark_cpm"`
	ROAS    NullFloat `json:"benchmark_roas"`
}

// BenchmarkTable is a loaded benchmark upload. Channels are not required
// to be unique; lookups return the first row for a channel.
type BenchmarkTable struct {
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loaded_at"`
	Rows     []BenchmarkRow `json:"rows"`

	index map[string]int
}

// NewBenchmarkTable builds a table and its first-match lookup index
func NewBenchmarkTable(source string, rows []BenchmarkRow) *BenchmarkTable {
	t := &BenchmarkTable{
		Source:   source,
		LoadedAt: time.Now(),
		Rows:     rows,
		index:    make(map[string]int, len(rows)),
	}
	for i, row := range rows {
		if _, exists := t.index[row.Channel]; !exists {
			t.index[row.Channel] = i
		}
	}
	return t
}

// Lookup returns the first benchmark row whose channel equals channel
// exactly (case-sensitive).
func (t *BenchmarkTable) Lookup(channel string) (BenchmarkRow, bool) {
	if t == nil {
		return BenchmarkRow{}, false
	}
	if t.index == nil {
		for _, row := range t.Rows {
			if row.Channel == channel {
				return row, true
			}
		}
		return BenchmarkRow{}, false
	}
	i, ok := t.index[channel]
	if !ok {
		return BenchmarkRow{}, false
	}
	return t.Rows[i], true
}

// Len returns the number of benchmark rows
func (t *BenchmarkTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
