package statement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Aggregate", func() {
	var statements []StatementData

	BeforeEach(func() {
		statements = []StatementData{
			{IsValid: true, Summary: StatementSummary{TotalCredits: 500, TotalDebits: -100, NetFlow: 400}},
			{IsValid: true, Summary: StatementSummary{TotalCredits: 0, TotalDebits: -250, NetFlow: -250}},
			{IsValid: false, ValidationError: "not a statement"},
		}
	})

	It("folds per-file summaries into batch totals", func() {
		summary := Aggregate(5, statements)
		Expect(summary.TotalFiles).To(Equal(5))
		Expect(summary.ProcessedFiles).To(Equal(2))
		Expect(summary.TotalCreditsUSD).To(Equal(500.0))
		Expect(summary.TotalDebitsUSD).To(Equal(-350.0))
		Expect(summary.NetFlowUSD).To(Equal(150.0))
	})

	It("is invariant under reordering", func() {
		forward := Aggregate(3, statements)
		reversed := Aggregate(3, []StatementData{statements[2], statements[1], statements[0]})
		Expect(reversed).To(Equal(forward))
	})

	It("counts invalid statements in neither totals nor processed files", func() {
		withInvalid := Aggregate(3, statements)
		withoutInvalid := Aggregate(3, statements[:2])
		Expect(withInvalid.ProcessedFiles).To(Equal(withoutInvalid.ProcessedFiles))
		Expect(withInvalid.NetFlowUSD).To(Equal(withoutInvalid.NetFlowUSD))
	})

	It("returns an empty summary for an empty session", func() {
		Expect(Aggregate(0, nil)).To(Equal(BatchSummary{}))
	})
})
