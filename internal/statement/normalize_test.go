package statement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"money-sorter/internal/extraction"
)

var _ = Describe("NormalizeTransaction", func() {
	It("passes fully specified records through untouched", func() {
		t := NormalizeTransaction(extraction.RawTransaction{
			Date:        "2024-03-15",
			Description: "Grocery store",
			Amount:      -42.17,
			Currency:    "EUR",
			AmountInUSD: -45.9,
			Category:    "Food & Dining",
			Notes:       "weekly shop",
		})
		Expect(t.Date).To(Equal("2024-03-15"))
		Expect(t.Description).To(Equal("Grocery store"))
		Expect(t.Amount).To(Equal(-42.17))
		Expect(t.Currency).To(Equal("EUR"))
		Expect(t.AmountUSD).To(Equal(-45.9))
		Expect(t.Category).To(Equal("Food & Dining"))
		Expect(t.Notes).To(Equal("weekly shop"))
	})

	It("defaults a missing currency to USD", func() {
		t := NormalizeTransaction(extraction.RawTransaction{Amount: 10})
		Expect(t.Currency).To(Equal("USD"))
	})

	It("defaults a blank currency to USD", func() {
		t := NormalizeTransaction(extraction.RawTransaction{Amount: 10, Currency: "  "})
		Expect(t.Currency).To(Equal("USD"))
	})

	It("falls back to the original amount when the USD conversion is absent", func() {
		t := NormalizeTransaction(extraction.RawTransaction{Amount: -33.5})
		Expect(t.AmountUSD).To(Equal(-33.5))
	})

	It("preserves the sign through the fallback", func() {
		credit := NormalizeTransaction(extraction.RawTransaction{Amount: 120})
		debit := NormalizeTransaction(extraction.RawTransaction{Amount: -120})
		Expect(credit.AmountUSD).To(BeNumerically(">", 0))
		Expect(debit.AmountUSD).To(BeNumerically("<", 0))
	})

	It("assigns a fresh id to every transaction", func() {
		a := NormalizeTransaction(extraction.RawTransaction{Amount: 1})
		b := NormalizeTransaction(extraction.RawTransaction{Amount: 1})
		Expect(a.ID).NotTo(BeEmpty())
		Expect(a.ID).NotTo(Equal(b.ID))
	})
})

var _ = Describe("Summarize", func() {
	It("splits credits and debits and keeps debits negative", func() {
		s := Summarize([]Transaction{
			{AmountUSD: 100},
			{AmountUSD: -40},
			{AmountUSD: 25.5},
			{AmountUSD: -10.5},
		})
		Expect(s.TotalCredits).To(BeNumerically("~", 125.5, 1e-9))
		Expect(s.TotalDebits).To(BeNumerically("~", -50.5, 1e-9))
		Expect(s.NetFlow).To(BeNumerically("~", 75, 1e-9))
	})

	It("returns zero totals for no transactions", func() {
		Expect(Summarize(nil)).To(Equal(StatementSummary{}))
	})
})

var _ = Describe("NewStatementData", func() {
	When("the result is a valid document", func() {
		var data StatementData

		BeforeEach(func() {
			data = NewStatementData("tracker-1", "march.pdf", &extraction.Result{
				IsValidFinancialDocument: true,
				Transactions: []extraction.RawTransaction{
					{Date: "2024-03-01", Description: "Salary", Amount: 3000},
					{Date: "2024-03-02", Description: "Rent", Amount: -1200},
				},
			})
		})

		It("shares the tracker id", func() {
			Expect(data.ID).To(Equal("tracker-1"))
			Expect(data.IsValid).To(BeTrue())
		})

		It("attaches the source file to every transaction", func() {
			Expect(data.Transactions).To(HaveLen(2))
			for _, t := range data.Transactions {
				Expect(t.SourceFile).To(Equal("march.pdf"))
			}
		})

		It("summarizes the normalized transactions", func() {
			Expect(data.Summary.TotalCredits).To(Equal(3000.0))
			Expect(data.Summary.TotalDebits).To(Equal(-1200.0))
			Expect(data.Summary.NetFlow).To(Equal(1800.0))
		})
	})

	When("the result is not a financial document", func() {
		It("carries the validation reason and no transactions", func() {
			data := NewStatementData("tracker-2", "cat.png", &extraction.Result{
				IsValidFinancialDocument: false,
				ValidationReason:         "This looks like a photo of a cat.",
			})
			Expect(data.IsValid).To(BeFalse())
			Expect(data.ValidationError).To(Equal("This looks like a photo of a cat."))
			Expect(data.Transactions).To(BeEmpty())
			Expect(data.Summary).To(Equal(StatementSummary{}))
		})

		It("substitutes a default reason when the extractor gives none", func() {
			data := NewStatementData("tracker-3", "blank.png", &extraction.Result{})
			Expect(data.ValidationError).To(Equal("Please upload a valid invoice or receipt."))
		})
	})
})
