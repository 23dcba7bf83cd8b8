// Package dataprocessing turns uploaded media performance spreadsheets into
// one merged, benchmark-annotated dataset.
//
// # Stages
//
// Every upload in a batch runs through the same stages, one table at a time:
//
//  1. Parser reads an .xlsx/.xlsm workbook or a .csv file into a RawTable.
//  2. Normalizer maps known column aliases (Cost, Views, ...) onto the
//     canonical names and coerces their cells to numbers.
//  3. Calculator derives CPM, CTR, CPC, ROAS and Conversion Rate. A metric
//     whose denominator is zero or missing is left undefined.
//  4. Joiner looks each row's Channel up in the benchmark table and
//     classifies CPM and ROAS against it.
//  5. Merger concatenates the tables under the union of their columns.
//
// Pipeline wires the stages together, records failures per file and keeps
// going, so one bad upload never loses the rest of a batch.
//
// # Usage
//
//	p := dataprocessing.NewPipeline(dataprocessing.DefaultOptions(), logger)
//	bench, err := p.LoadBenchmark(ctx, domain.Upload{Path: "benchmarks.xlsx"})
//	if err != nil {
//	    return err
//	}
//	result, err := p.Process(ctx, uploads, bench, nil)
//
// Summarize groups a merged dataset by channel for reporting.
package dataprocessing
