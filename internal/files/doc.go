// Package files discovers input tables on disk for the batch CLI.
//
// Discovery lists spreadsheets and CSV files of a directory in name order,
// skipping Office lock files ("~$report.xlsx") and hidden files. Watch
// re-runs a callback once a directory has been quiet for a while, which is
// how the CLI's watch mode re-merges a folder people are still saving into.
package files
