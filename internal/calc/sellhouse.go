package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imocalc/imocalc/internal/domain"
)

// Thresholds that trigger advisory recommendations on a sale.
var (
	highCostRatio      = decimal.New(15, -2) // 15% of property value
	highCommissionRate = decimal.New(7, -2)  // 7%
)

var sellDisclaimers = []string{
	"Estimates use average fees and current tax tables; actual costs vary by bank, notary and municipality.",
	"This simulation is informational only and is not financial, tax or legal advice.",
}

// sellHouse computes the full cost of selling a property: commission,
// mortgage liquidation, capital-gains tax, legal fees and fixed selling
// costs, in that order.
func (e *Engine) sellHouse(in domain.CalculationInput) (*domain.CalculationResult, error) {
	const op = "calc.sell_house"

	region, err := e.region(op, in.Region)
	if err != nil {
		return nil, err
	}
	fees := e.table.Fees
	value := deref(in.PropertyValue)
	rate := commissionRate(in, region)

	var b breakdown

	// 1. Agency commission, always a required deduction.
	b.add("commission", "Agency commission", value.Mul(rate), domain.CategoryFee, true, true)

	// 2. Mortgage liquidation: outstanding balance plus the early-repayment
	// commission together form the liquidation deduction.
	if in.HasOutstandingMortgage {
		balance := deref(in.OutstandingMortgageAmount)
		b.add("mortgage_balance", "Outstanding mortgage balance", balance, domain.CategoryCost, true, true)
		b.add("early_repayment_fee", "Early repayment commission", earlyRepaymentFee(balance, in.MortgageRateType), domain.CategoryFee, true, true)
	}

	// 3. Capital gains tax. The main-residence exemption is all or nothing:
	// held for the full exemption period means zero tax, one year short
	// means the full rate.
	var (
		gainTax    decimal.Decimal
		gain       decimal.Decimal
		yearsOwned int
		exempt     bool
	)
	if in.HasCapitalGains {
		basis := deref(in.OriginalPurchasePrice).Add(deref(in.ImprovementCosts))
		gain = floorZero(value.Sub(basis))
		yearsOwned = e.now().Year() - in.YearOfPurchase
		exempt = in.IsMainResidence && yearsOwned >= fees.ExemptionYears
		if gain.IsPositive() && !exempt {
			gainTax = gain.Mul(fees.CapitalGainsRate)
			b.add("capital_gains_tax", "Capital gains tax", gainTax, domain.CategoryTax, true, true)
		}
	}

	// 4. Legal and administrative fees.
	b.add("notary_fee", "Notary fee", notaryFee(value, fees), domain.CategoryFee, true, true)
	b.add("registration_fee", "Land registry fee", fees.RegistrationFee, domain.CategoryFee, true, true)
	b.add("documentation_fee", "Documentation fee", fees.DocumentationFee, domain.CategoryFee, true, true)

	// 5. Other selling costs.
	b.add("energy_certificate", "Energy certificate", fees.EnergyCertificateFee, domain.CategoryCost, true, true)
	b.add("cleaning_allowance", "Cleaning and minor repairs", cleaningAllowance(value, fees), domain.CategoryCost, true, true)

	totalCosts := b.total
	netProceeds := floorZero(value.Sub(totalCosts))

	// 7. Advisory notes, driven by fixed thresholds.
	var recs []string
	if value.IsPositive() && totalCosts.Div(value).GreaterThan(highCostRatio) {
		recs = append(recs, fmt.Sprintf(
			"Selling costs are %s of the property value, above the typical range. Review the commission and timing before committing.",
			percent(totalCosts.Div(value))))
	}
	if in.HasCapitalGains && in.IsMainResidence && !exempt && gain.IsPositive() {
		if wait := fees.ExemptionYears - yearsOwned; wait > 0 {
			recs = append(recs, fmt.Sprintf(
				"Waiting %d more year(s) would qualify the sale for the main-residence exemption and save %s in capital gains tax.",
				wait, euro(gainTax.Round(2))))
		}
	}
	if rate.GreaterThan(highCommissionRate) {
		recs = append(recs, fmt.Sprintf(
			"A commission of %s is above the market average of %s for %s. Comparing agencies could reduce it.",
			percent(rate), percent(region.AverageCommissionRate), region.Name))
	}

	return &domain.CalculationResult{
		Calculator:      domain.CalculatorSellHouse,
		TotalCosts:      totalCosts,
		NetProceeds:     netProceeds,
		Breakdown:       b.items,
		Recommendations: recs,
		Disclaimers:     sellDisclaimers,
	}, nil
}
