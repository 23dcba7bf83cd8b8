package dataprocessing

import (
	"log/slog"
	"strings"

	"mediamerge/pkg/contracts/domain"
)

// columnAliases maps a normalized source column name to its canonical
// output column. Output names are listed too so that normalization of an
// already-canonical table is a no-op.
var columnAliases = map[string]string{
	"spend":       domain.ColumnSpend,
	"cost":        domain.ColumnSpend,
	"spend (£)":   domain.ColumnSpend,
	"impressions": domain.ColumnImpressions,
	"views":       domain.ColumnImpressions,
	"clicks":      domain.ColumnClicks,
	"conversions": domain.ColumnConversions,
	"revenue":     domain.ColumnRevenue,
	"revenue (£)": domain.ColumnRevenue,
}

const channelKey = "channel"

// NormalizeColumnName lower-cases and trims a column name for matching
func NormalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CanonicalColumnFor returns the canonical column a source column maps to
func CanonicalColumnFor(source string) (string, bool) {
	key := NormalizeColumnName(source)
	if key == channelKey {
		return domain.ColumnChannel, true
	}
	canonical, ok := columnAliases[key]
	return canonical, ok
}

// Normalizer maps arbitrary source columns onto the canonical schema
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "normalizer"))}
}

// Normalize renames aliased columns, defaults absent numeric columns to
// zero and converts numeric cells. Cells in a canonical column that are
// empty or not numeric become missing values. Columns that match nothing
// are carried through unchanged.
func (n *Normalizer) Normalize(raw *domain.RawTable) *domain.CanonicalTable {
	out := &domain.CanonicalTable{Name: raw.Name}

	// source column -> canonical column, first match wins
	mapping := make(map[string]string)
	claimed := make(map[string]string)
	for _, col := range raw.Columns {
		canonical, ok := CanonicalColumnFor(col)
		if ok {
			if first, taken := claimed[canonical]; taken {
				n.logger.Warn("duplicate column for canonical field, keeping first",
					slog.String("file", raw.Name),
					slog.String("canonical", canonical),
					slog.String("kept", first),
					slog.String("passed_through", col))
			} else {
				claimed[canonical] = col
				mapping[col] = canonical
				out.Columns = append(out.Columns, canonical)
				continue
			}
		}
		out.Columns = append(out.Columns, col)
	}

	var defaulted []string
	for _, canonical := range domain.CanonicalColumns {
		if _, ok := claimed[canonical]; !ok {
			defaulted = append(defaulted, canonical)
			out.Columns = append(out.Columns, canonical)
		}
	}
	_, out.HasChannel = claimed[domain.ColumnChannel]

	nonNumeric := make(map[string]int)
	out.Rows = make([]domain.MediaRecord, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		rec := domain.MediaRecord{Extra: make(domain.Record)}
		for _, col := range raw.Columns {
			cell := row.Get(col)
			canonical, mapped := mapping[col]
			if !mapped {
				rec.Extra[col] = cell
				continue
			}
			if canonical == domain.ColumnChannel {
				rec.Channel = cell.String()
				continue
			}

			value, ok := cell.Float()
			if !ok && !cell.IsEmpty() {
				nonNumeric[col]++
			}
			v := domain.NullFloat{Value: value, Valid: ok}
			switch canonical {
			case domain.ColumnSpend:
				rec.Spend = v
			case domain.ColumnImpressions:
				rec.Impressions = v
			case domain.ColumnClicks:
				rec.Clicks = v
			case domain.ColumnConversions:
				rec.Conversions = v
			case domain.ColumnRevenue:
				rec.Revenue = v
			}
		}

		for _, canonical := range defaulted {
			zero := domain.Float(0)
			switch canonical {
			case domain.ColumnSpend:
				rec.Spend = zero
			case domain.ColumnImpressions:
				rec.Impressions = zero
			case domain.ColumnClicks:
				rec.Clicks = zero
			case domain.ColumnConversions:
				rec.Conversions = zero
			case domain.ColumnRevenue:
				rec.Revenue = zero
			}
		}

		out.Rows = append(out.Rows, rec)
	}

	for col, count := range nonNumeric {
		n.logger.Warn("non-numeric values treated as missing",
			slog.String("file", raw.Name),
			slog.String("column", col),
			slog.Int("cells", count))
	}
	if len(defaulted) > 0 {
		n.logger.Debug("defaulted absent columns to zero",
			slog.String("file", raw.Name),
			slog.Any("columns", defaulted))
	}

	return out
}
