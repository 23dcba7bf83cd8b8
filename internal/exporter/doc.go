// Package exporter encodes merged media datasets for download.
//
// CSVWriter writes UTF-8 comma-separated text with an optional BOM so Excel
// detects the encoding. XLSXWriter writes a workbook with a single "Merged"
// sheet. Both emit the dataset columns as the header row and leave missing
// cells empty.
//
// Example usage:
//
//	w, err := exporter.New(exporter.FormatCSV, exporter.DefaultWriteOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	err = w.Write(rw, result.Dataset)
//
//	// or straight to disk, format chosen by extension
//	err = exporter.WriteFile("out/merged_media_data.xlsx", ds, opts, logger)
package exporter
