package statement

// Aggregate recomputes the batch summary from scratch over the full
// statement collection. The result is invariant under reordering of the
// input; invalid statements carry zero totals by construction so they
// contribute nothing. totalFiles comes from the tracker queue length and
// is supplied by the caller.
func Aggregate(totalFiles int, statements []StatementData) BatchSummary {
	summary := BatchSummary{TotalFiles: totalFiles}
	for _, s := range statements {
		if s.IsValid {
			summary.ProcessedFiles++
		}
		summary.TotalCreditsUSD += s.Summary.TotalCredits
		summary.TotalDebitsUSD += s.Summary.TotalDebits
		summary.NetFlowUSD += s.Summary.NetFlow
	}
	return summary
}
