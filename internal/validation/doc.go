// Package validation checks upload names and CLI paths before any table
// is parsed.
package validation
