package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imocalc/imocalc/internal/domain"
)

var highInterestRate = decimal.New(5, -2) // 5% annual

var mortgageDisclaimers = []string{
	"Simulation assumes a constant rate over the full term; variable and mixed contracts will drift with Euribor.",
	"Mandatory life and multi-risk insurance are not included and typically add to the monthly charge.",
	"This simulation is informational only and is not financial, tax or legal advice.",
}

// mortgageSimulation computes the cost of credit for a mortgage: the
// French-amortization monthly installment, total interest over the term,
// and the one-off contracting costs.
func (e *Engine) mortgageSimulation(in domain.CalculationInput) (*domain.CalculationResult, error) {
	fees := e.table.Fees
	loan := deref(in.LoanAmount)
	annualRate := deref(in.AnnualInterestRate)
	months := in.TermYears * 12

	payment := monthlyPayment(loan, annualRate, months)
	totalRepaid := payment.Mul(decimal.NewFromInt(int64(months)))
	totalInterest := floorZero(totalRepaid.Sub(loan))

	var b breakdown
	b.add("total_interest", "Total interest over the term", totalInterest, domain.CategoryCost, true, true)
	b.add("loan_stamp_duty", "Stamp duty on mortgage", loan.Mul(fees.LoanStampDutyRate), domain.CategoryTax, true, true)
	b.add("bank_valuation_fee", "Bank valuation fee", fees.BankValuationFee, domain.CategoryFee, true, true)
	b.add("bank_processing_fee", "Bank processing fee", fees.BankProcessingFee, domain.CategoryFee, true, true)

	figures := []domain.Figure{
		{ID: "monthly_payment", Label: "Monthly payment", Value: payment},
		{ID: "total_repaid", Label: "Total repaid over the term", Value: totalRepaid.Round(2)},
		{ID: "total_credit_cost", Label: "Total cost of credit", Value: b.total},
	}

	var recs []string
	if annualRate.GreaterThan(highInterestRate) {
		recs = append(recs, fmt.Sprintf(
			"An annual rate of %s is above current market offers. Comparing spreads across banks could lower the installment.",
			percent(annualRate)))
	}
	if in.TermYears > 35 {
		recs = append(recs, "Terms beyond 35 years mostly increase total interest; shortening the term saves more than a small rate cut.")
	}

	return &domain.CalculationResult{
		Calculator:      domain.CalculatorMortgage,
		TotalCosts:      b.total,
		NetProceeds:     decimal.Zero,
		Breakdown:       b.items,
		Figures:         figures,
		Recommendations: recs,
		Disclaimers:     mortgageDisclaimers,
	}, nil
}
