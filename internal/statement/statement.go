package statement

import "time"

// FileStatus tracks a queued file through the processing loop.
// Pending -> Processing -> Complete or Error; Complete and Error are
// terminal.
type FileStatus string

const (
	StatusPending    FileStatus = "PENDING"
	StatusProcessing FileStatus = "PROCESSING"
	StatusComplete   FileStatus = "COMPLETE"
	StatusError      FileStatus = "ERROR"
)

// UploadedFile is one file offered for processing. Identity for
// deduplication is the (Name, Size) pair.
type UploadedFile struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// FileTracker is the per-file queue entry. Trackers are append-only:
// never removed individually, only cleared en masse by Reset.
type FileTracker struct {
	ID           string     `json:"id"`
	FileName     string     `json:"file_name"`
	FileSize     int64      `json:"file_size"`
	Status       FileStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"` // set iff Status == ERROR
}

// Transaction is one extracted financial line item. Negative amounts are
// expenses, positive amounts are income; the sign is preserved through
// currency normalization.
type Transaction struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"` // ISO calendar date
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`     // original currency
	Currency    string  `json:"currency"`   // 3-letter code
	AmountUSD   float64 `json:"amount_usd"` // normalized for aggregation
	Category    string  `json:"category,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	SourceFile  string  `json:"source_file,omitempty"` // attached by the pipeline
}

// StatementSummary holds per-file totals over AmountUSD. TotalDebits is
// kept negative; NetFlow = TotalCredits + TotalDebits.
type StatementSummary struct {
	TotalCredits float64 `json:"total_credits"`
	TotalDebits  float64 `json:"total_debits"`
	NetFlow      float64 `json:"net_flow"`
}

// StatementData is the per-file extraction outcome. It shares its ID with
// the originating FileTracker and is immutable once appended to the
// session collection. When IsValid is false, Transactions is empty and
// ValidationError explains why.
type StatementData struct {
	ID              string           `json:"id"`
	FileName        string           `json:"file_name"`
	IsValid         bool             `json:"is_valid"`
	ValidationError string           `json:"validation_error,omitempty"`
	Transactions    []Transaction    `json:"transactions"`
	Summary         StatementSummary `json:"summary"`
}

// BatchSummary is a pure projection over the session's statement
// collection, recomputed from scratch on every read.
type BatchSummary struct {
	TotalFiles      int     `json:"total_files"`
	ProcessedFiles  int     `json:"processed_files"`
	TotalCreditsUSD float64 `json:"total_credits_usd"`
	TotalDebitsUSD  float64 `json:"total_debits_usd"`
	NetFlowUSD      float64 `json:"net_flow_usd"`
}

// UserProfile is the signed-in user for the session
type UserProfile struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}
