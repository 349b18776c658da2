package statement

import (
	"strconv"
	"strings"
)

// CSVHeader is the fixed header row of the export format.
const CSVHeader = "Date,Description,Original Amount,Currency,Amount (USD),Category,Source"

// ExportCSV renders the cross-batch transaction list in the export
// format: Description and Source are always quoted with inner quotes
// doubled, Category is wrapped verbatim, numbers are unquoted with
// minimal digits. The format is fixed; do not switch to encoding/csv,
// which quotes on demand and would change the bytes.
func ExportCSV(txs []Transaction) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, t := range txs {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			t.Date,
			quoteField(t.Description),
			formatAmount(t.Amount),
			t.Currency,
			formatAmount(t.AmountUSD),
			`"` + t.Category + `"`,
			quoteField(t.SourceFile),
		}, ","))
	}
	return b.String()
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
