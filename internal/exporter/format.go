package exporter

import (
	"strconv"

	"mediamerge/pkg/contracts/domain"
)

// formatFloat renders f with precision decimals, or in its shortest exact
// form when precision is negative.
func formatFloat(f float64, precision int) string {
	if precision < 0 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// formatCell renders a cell for delimited output. Numbers read from a
// source file keep their original text; computed numbers are formatted.
func formatCell(c domain.Cell, precision int) string {
	if c.Kind == domain.CellNumber && c.Text == "" {
		return formatFloat(c.Number, precision)
	}
	return c.String()
}

// cellValue converts a cell to the value stored in a workbook cell
func cellValue(c domain.Cell) interface{} {
	switch c.Kind {
	case domain.CellNumber:
		return c.Number
	case domain.CellText:
		return c.Text
	default:
		return nil
	}
}
