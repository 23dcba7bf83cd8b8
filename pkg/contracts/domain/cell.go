package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CellKind identifies the type of value held in a Cell
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
)

// Cell is a single scalar value read from or written to a spreadsheet.
// Number cells parsed from text keep the original text in Text so that
// pass-through columns are exported exactly as they were read.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

// EmptyCell returns the missing-value cell
func EmptyCell() Cell {
	return Cell{}
}

// NumberCell returns a numeric cell
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// TextCell returns a text cell, or an empty cell for blank input
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// ParseCell converts raw spreadsheet text into a cell, recognising
// numbers written with thousands separators or a currency/percent sign.
func ParseCell(raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return Cell{}
	}
	if v, ok := ParseNumber(raw); ok {
		return Cell{Kind: CellNumber, Number: v, Text: raw}
	}
	return Cell{Kind: CellText, Text: raw}
}

// ParseNumber parses text such as "1,200.50", "£35" or "12%"
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a usable measurement
	if v != v || v > 1e308 || v < -1e308 {
		return 0, false
	}
	return v, true
}

// IsEmpty reports whether the cell holds no value
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Float returns the numeric value of the cell. Text cells are parsed.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellText:
		return ParseNumber(c.Text)
	default:
		return 0, false
	}
}

// String renders the cell the way it is written to delimited output
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		if c.Text != "" {
			return c.Text
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// MarshalJSON encodes empty cells as null and numbers as JSON numbers
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumber:
		return json.Marshal(c.Number)
	case CellText:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

// Record maps a column name to its cell value for one row
type Record map[string]Cell

// Get returns the cell for column, or an empty cell
func (r Record) Get(column string) Cell {
	if r == nil {
		return Cell{}
	}
	return r[column]
}

// RawTable is one parsed upload before normalization. Columns keeps the
// source order; every row may omit columns it has no value for.
type RawTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// NullFloat is a float64 that may be missing. A metric that cannot be
// computed is a NullFloat with Valid set to false.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a present NullFloat
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// Cell converts the value to a number cell or an empty cell
func (n NullFloat) Cell() Cell {
	if !n.Valid {
		return Cell{}
	}
	return NumberCell(n.Value)
}

// MarshalJSON encodes a missing value as null
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts null or a number
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
