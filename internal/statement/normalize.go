package statement

import (
	"strings"

	"github.com/google/uuid"

	"money-sorter/internal/extraction"
)

// NormalizeTransaction shapes one raw extracted record into a
// Transaction. Exactly two defaults are applied: a missing currency
// becomes USD and a missing or zero USD conversion falls back to the
// original amount (assume 1:1). Everything else is passed through
// untouched so a debit stays a debit after conversion. The extractor
// never supplies an id; a fresh one is assigned here.
func NormalizeTransaction(raw extraction.RawTransaction) Transaction {
	currency := strings.TrimSpace(raw.Currency)
	if currency == "" {
		currency = "USD"
	}

	amountUSD := raw.AmountInUSD
	if amountUSD == 0 {
		amountUSD = raw.Amount
	}

	return Transaction{
		ID:          uuid.NewString(),
		Date:        raw.Date,
		Description: raw.Description,
		Amount:      raw.Amount,
		Currency:    currency,
		AmountUSD:   amountUSD,
		Category:    raw.Category,
		Notes:       raw.Notes,
	}
}

// Summarize folds per-file credit and debit totals from normalized
// transactions. Debits stay negative.
func Summarize(txs []Transaction) StatementSummary {
	var s StatementSummary
	for _, t := range txs {
		if t.AmountUSD > 0 {
			s.TotalCredits += t.AmountUSD
		} else {
			s.TotalDebits += t.AmountUSD
		}
	}
	s.NetFlow = s.TotalCredits + s.TotalDebits
	return s
}

// NewStatementData builds the immutable per-file outcome from an
// extraction result. The statement shares the tracker's id, and the
// source file name is attached to every transaction here, not by the
// extractor.
func NewStatementData(trackerID, fileName string, res *extraction.Result) StatementData {
	if !res.IsValidFinancialDocument {
		reason := strings.TrimSpace(res.ValidationReason)
		if reason == "" {
			reason = "Please upload a valid invoice or receipt."
		}
		return StatementData{
			ID:              trackerID,
			FileName:        fileName,
			IsValid:         false,
			ValidationError: reason,
			Transactions:    []Transaction{},
		}
	}

	txs := make([]Transaction, 0, len(res.Transactions))
	for _, raw := range res.Transactions {
		t := NormalizeTransaction(raw)
		t.SourceFile = fileName
		txs = append(txs, t)
	}

	return StatementData{
		ID:           trackerID,
		FileName:     fileName,
		IsValid:      true,
		Transactions: txs,
		Summary:      Summarize(txs),
	}
}
