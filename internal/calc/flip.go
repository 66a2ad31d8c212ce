package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imocalc/imocalc/internal/domain"
)

var thinFlipROI = decimal.New(1, -1) // 10%

var flipDisclaimers = []string{
	"Flip profits are taxed as gains without the main-residence exemption.",
	"Renovation budgets routinely overrun; stress-test the margin before buying.",
	"This simulation is informational only and is not financial, tax or legal advice.",
}

// propertyFlip computes the full cycle of a buy-renovate-sell operation:
// acquisition costs on the way in, holding costs for the renovation
// period, selling costs on the way out, and tax on the resulting profit.
func (e *Engine) propertyFlip(in domain.CalculationInput) (*domain.CalculationResult, error) {
	const op = "calc.property_flip"

	region, err := e.region(op, in.Region)
	if err != nil {
		return nil, err
	}
	fees := e.table.Fees
	purchase := deref(in.PropertyValue)
	renovation := deref(in.RenovationCost)
	sale := deref(in.ExpectedSalePrice)
	months := decimal.NewFromInt(int64(in.HoldingMonths))
	loan := deref(in.LoanAmount)

	var b breakdown

	// Acquisition
	b.add("imt", "IMT (property transfer tax)", imtFor(purchase, e.table.IMTScheduleFor(region)), domain.CategoryTax, true, true)
	b.add("stamp_duty", "Stamp duty on purchase", purchase.Mul(fees.StampDutyRate), domain.CategoryTax, true, true)
	b.add("notary_fee", "Notary and registration", notaryFee(purchase, fees).Add(fees.RegistrationFee), domain.CategoryFee, true, true)

	// Holding
	twelve := decimal.NewFromInt(12)
	b.add("imi_holding", "IMI during holding period", purchase.Mul(region.IMIRate).Mul(months).Div(twelve), domain.CategoryTax, true, true)
	b.add("holding_costs", "Utilities and upkeep while held", fees.HoldingMonthlyCost.Mul(months), domain.CategoryCost, true, true)
	if loan.IsPositive() && in.AnnualInterestRate != nil {
		interest := loan.Mul(*in.AnnualInterestRate).Mul(months).Div(twelve)
		b.add("financing_interest", "Financing interest while held", interest, domain.CategoryCost, true, true)
	}

	// Selling
	b.add("commission", "Agency commission on resale", sale.Mul(commissionRate(in, region)), domain.CategoryFee, true, true)
	b.add("energy_certificate", "Energy certificate", fees.EnergyCertificateFee, domain.CategoryCost, true, true)

	profitBeforeTax := sale.Sub(purchase).Sub(renovation).Sub(b.total)

	tax := floorZero(profitBeforeTax).Mul(fees.CapitalGainsRate)
	b.add("gains_tax", "Tax on flip profit", tax, domain.CategoryTax, true, true)

	totalCosts := b.total
	netProfit := sale.Sub(purchase).Sub(renovation).Sub(totalCosts)
	invested := purchase.Add(renovation).Add(totalCosts.Sub(tax.Round(2)))

	var roi decimal.Decimal
	if invested.IsPositive() {
		roi = netProfit.Div(invested).Round(4)
	}

	figures := []domain.Figure{
		{ID: "total_investment", Label: "Total capital invested", Value: invested.Round(2)},
		{ID: "profit_before_tax", Label: "Profit before tax", Value: profitBeforeTax.Round(2)},
		{ID: "net_profit", Label: "Net profit after tax", Value: netProfit.Round(2)},
		{ID: "roi", Label: "Return on investment", Value: roi},
	}

	var recs []string
	if netProfit.IsNegative() {
		recs = append(recs, fmt.Sprintf(
			"At these numbers the flip loses %s. The expected sale price does not cover acquisition, works and taxes.",
			euro(netProfit.Abs().Round(2))))
	} else if roi.LessThan(thinFlipROI) {
		recs = append(recs, fmt.Sprintf(
			"A return of %s leaves little room for overruns. Flips are usually underwritten at 10%% or better.",
			percent(roi)))
	}
	if in.HoldingMonths > 12 {
		recs = append(recs, "Holding beyond a year compounds IMI, utilities and financing costs; a faster resale protects the margin.")
	}

	return &domain.CalculationResult{
		Calculator:      domain.CalculatorFlip,
		TotalCosts:      totalCosts,
		NetProceeds:     floorZero(netProfit.Round(2)),
		Breakdown:       b.items,
		Figures:         figures,
		Recommendations: recs,
		Disclaimers:     flipDisclaimers,
	}, nil
}
