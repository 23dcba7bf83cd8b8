package dataprocessing

import (
	"github.com/montanaflynn/stats"

	"mediamerge/pkg/contracts/domain"
)

// Summarize groups the rows of a merged dataset by Channel. Rows without a
// channel are grouped under the empty channel. Mean and median only count
// rows whose metric is defined. Groups are returned in first-seen order.
func Summarize(ds *domain.MergedDataset) []domain.ChannelSummary {
	if ds == nil {
		return nil
	}

	type group struct {
		summary domain.ChannelSummary
		cpm     stats.Float64Data
		roas    stats.Float64Data
	}

	var order []string
	groups := make(map[string]*group)
	for _, rec := range ds.Rows {
		channel := rec.Get(domain.ColumnChannel).String()
		g, ok := groups[channel]
		if !ok {
			g = &group{summary: domain.ChannelSummary{Channel: channel}}
			groups[channel] = g
			order = append(order, channel)
		}

		g.summary.Rows++
		if v, ok := rec.Get(domain.ColumnSpend).Float(); ok {
			g.summary.TotalSpend += v
		}
		if v, ok := rec.Get(domain.ColumnRevenue).Float(); ok {
			g.summary.TotalRevenue += v
		}
		if v, ok := rec.Get(domain.ColumnCPM).Float(); ok {
			g.cpm = append(g.cpm, v)
		}
		if v, ok := rec.Get(domain.ColumnROAS).Float(); ok {
			g.roas = append(g.roas, v)
		}
		if rec.Get(domain.ColumnCPMStatus).String() == string(domain.StatusAboveBenchmark) {
			g.summary.AboveCPM++
		}
		if rec.Get(domain.ColumnROASStatus).String() == string(domain.StatusAboveBenchmark) {
			g.summary.AboveROAS++
		}
	}

	out := make([]domain.ChannelSummary, 0, len(order))
	for _, channel := range order {
		g := groups[channel]
		g.summary.MeanCPM = statOf(g.cpm, stats.Mean)
		g.summary.MedianCPM = statOf(g.cpm, stats.Median)
		g.summary.MeanROAS = statOf(g.roas, stats.Mean)
		g.summary.MedianROAS = statOf(g.roas, stats.Median)
		out = append(out, g.summary)
	}
	return out
}

// statOf applies fn, returning a missing value for empty input
func statOf(data stats.Float64Data, fn func(stats.Float64Data) (float64, error)) domain.NullFloat {
	if data.Len() == 0 {
		return domain.NullFloat{}
	}
	v, err := fn(data)
	if err != nil {
		return domain.NullFloat{}
	}
	return finite(v)
}
