// Package shared holds helpers used across packages that belong to no
// single layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - spreadsheet fixtures (xlsx workbooks built with excelize, CSV files)
//   - multipart upload bodies for HTTP handler tests
//
// Nothing here may contain business logic or import application packages.
package shared
