package extraction

import "context"

// RawTransaction is one line item exactly as the extraction model
// returned it, before normalization.
type RawTransaction struct {
	Date        string  `json:"date"` // ISO 8601 format
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`   // signed, original currency
	Currency    string  `json:"currency"` // 3-letter code
	AmountInUSD float64 `json:"amountInUSD"`
	Category    string  `json:"category"`
	Notes       string  `json:"notes"`
}

// Result contains the extraction outcome for one document.
// When the model decides the document is not financial, IsValidFinancialDocument
// is false, ValidationReason explains why and Transactions is empty.
type Result struct {
	IsValidFinancialDocument bool             `json:"isValidFinancialDocument"`
	ValidationReason         string           `json:"validationReason"`
	Transactions             []RawTransaction `json:"transactions"`
}

// Extractor defines the interface for statement extraction backends
type Extractor interface {
	// ExtractStatement analyzes a statement/receipt/invoice and extracts transactions
	ExtractStatement(ctx context.Context, data []byte, contentType string) (*Result, error)
	// Close closes the extractor and releases resources
	Close() error
}
