package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imocalc/imocalc/internal/domain"
)

var highLoanToValue = decimal.New(9, -1) // 90%

var buyDisclaimers = []string{
	"IMT is computed with the own-permanent-residence schedule; other purchase regimes have different brackets.",
	"Bank fees are market averages; the financing bank's price list prevails.",
	"This simulation is informational only and is not financial, tax or legal advice.",
}

// buyHouse computes the acquisition costs of a purchase: IMT, stamp
// duties, legal fees, and bank fees when the purchase is financed. The
// headline numbers (total acquisition cost, cash required) are reported
// as figures; every cost line is a deduction so the deduction-sum
// invariant holds here too.
func (e *Engine) buyHouse(in domain.CalculationInput) (*domain.CalculationResult, error) {
	const op = "calc.buy_house"

	region, err := e.region(op, in.Region)
	if err != nil {
		return nil, err
	}
	fees := e.table.Fees
	price := deref(in.PropertyValue)
	loan := deref(in.LoanAmount)
	financed := loan.IsPositive()

	var b breakdown

	imt := imtFor(price, e.table.IMTScheduleFor(region))
	b.add("imt", "IMT (property transfer tax)", imt, domain.CategoryTax, true, true)
	b.add("stamp_duty", "Stamp duty on purchase", price.Mul(fees.StampDutyRate), domain.CategoryTax, true, true)
	b.add("notary_fee", "Notary fee", notaryFee(price, fees), domain.CategoryFee, true, true)
	b.add("registration_fee", "Land registry fee", fees.RegistrationFee, domain.CategoryFee, true, true)
	b.add("documentation_fee", "Documentation fee", fees.DocumentationFee, domain.CategoryFee, true, true)

	if financed {
		b.add("loan_stamp_duty", "Stamp duty on mortgage", loan.Mul(fees.LoanStampDutyRate), domain.CategoryTax, true, true)
		b.add("bank_valuation_fee", "Bank valuation fee", fees.BankValuationFee, domain.CategoryFee, true, true)
		b.add("bank_processing_fee", "Bank processing fee", fees.BankProcessingFee, domain.CategoryFee, true, true)
	}

	totalCosts := b.total
	acquisitionTotal := price.Add(totalCosts)
	cashRequired := floorZero(price.Sub(loan)).Add(totalCosts)

	figures := []domain.Figure{
		{ID: "total_acquisition_cost", Label: "Total acquisition cost", Value: acquisitionTotal},
		{ID: "cash_required", Label: "Upfront cash required", Value: cashRequired},
		{ID: "imt_amount", Label: "IMT due", Value: imt},
	}
	if financed && in.AnnualInterestRate != nil && in.TermYears > 0 {
		payment := monthlyPayment(loan, *in.AnnualInterestRate, in.TermYears*12)
		figures = append(figures, domain.Figure{ID: "monthly_payment", Label: "Estimated monthly payment", Value: payment})
	}

	var recs []string
	if imt.IsZero() {
		recs = append(recs, "The purchase price falls below the first IMT bracket, so no transfer tax is due.")
	}
	if financed && price.IsPositive() {
		ltv := loan.Div(price)
		if ltv.GreaterThan(highLoanToValue) {
			recs = append(recs, fmt.Sprintf(
				"A loan of %s is %s of the price. Most banks require at least a 10%% down payment on own-residence purchases.",
				euro(loan), percent(ltv)))
		}
	}

	return &domain.CalculationResult{
		Calculator:      domain.CalculatorBuyHouse,
		TotalCosts:      totalCosts,
		NetProceeds:     decimal.Zero,
		Breakdown:       b.items,
		Figures:         figures,
		Recommendations: recs,
		Disclaimers:     buyDisclaimers,
	}, nil
}
