package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imocalc/imocalc/internal/domain"
)

// Defaults applied when the investor leaves the optional operating
// assumptions blank.
var (
	defaultVacancyRate     = decimal.New(8, -2) // ~1 month per year
	defaultMaintenanceRate = decimal.New(1, -2) // 1% of value per year
	defaultInsuranceAnnual = decimal.NewFromInt(150)

	lowGrossYield = decimal.New(4, -2) // 4%
)

var rentalDisclaimers = []string{
	"Rental income is taxed at the autonomous rate; opting for aggregation may change the effective rate.",
	"Vacancy, maintenance and insurance figures are assumptions, not quotes.",
	"This simulation is informational only and is not financial, tax or legal advice.",
}

// rentalInvestment computes the annual operating picture of a buy-to-let:
// effective rent after vacancy, operating costs, tax, yields and monthly
// cash flow (after debt service when financed).
func (e *Engine) rentalInvestment(in domain.CalculationInput) (*domain.CalculationResult, error) {
	const op = "calc.rental_investment"

	region, err := e.region(op, in.Region)
	if err != nil {
		return nil, err
	}
	fees := e.table.Fees
	value := deref(in.PropertyValue)
	annualRent := deref(in.MonthlyRent).Mul(decimal.NewFromInt(12))

	vacancy := derefOr(in.VacancyRate, defaultVacancyRate)
	effectiveRent := annualRent.Mul(decimal.NewFromInt(1).Sub(vacancy))

	var b breakdown
	b.add("imi", "IMI (annual property tax)", value.Mul(region.IMIRate), domain.CategoryTax, true, true)
	b.add("maintenance", "Maintenance allowance", value.Mul(derefOr(in.MaintenanceRate, defaultMaintenanceRate)), domain.CategoryCost, true, true)
	b.add("insurance", "Multi-risk insurance", derefOr(in.InsuranceAnnual, defaultInsuranceAnnual), domain.CategoryInsurance, true, true)
	if in.CondoFeesMonthly != nil {
		b.add("condo_fees", "Condominium fees", in.CondoFeesMonthly.Mul(decimal.NewFromInt(12)), domain.CategoryCost, false, true)
	}

	operating := b.total
	noi := effectiveRent.Sub(operating)

	tax := floorZero(noi).Mul(fees.CapitalGainsRate)
	b.add("rental_income_tax", "Tax on rental income", tax, domain.CategoryTax, true, true)

	netIncome := effectiveRent.Sub(b.total)

	var debtService decimal.Decimal
	if deref(in.LoanAmount).IsPositive() && in.AnnualInterestRate != nil && in.TermYears > 0 {
		debtService = monthlyPayment(*in.LoanAmount, *in.AnnualInterestRate, in.TermYears*12)
	}
	monthlyCashFlow := netIncome.Div(decimal.NewFromInt(12)).Sub(debtService).Round(2)

	var grossYield, netYield decimal.Decimal
	if value.IsPositive() {
		grossYield = annualRent.Div(value).Round(4)
		netYield = netIncome.Div(value).Round(4)
	}

	figures := []domain.Figure{
		{ID: "gross_yield", Label: "Gross yield", Value: grossYield},
		{ID: "net_yield", Label: "Net yield", Value: netYield},
		{ID: "annual_net_income", Label: "Net annual income after tax", Value: netIncome.Round(2)},
		{ID: "monthly_cash_flow", Label: "Monthly cash flow", Value: monthlyCashFlow},
	}

	var recs []string
	if grossYield.IsPositive() && grossYield.LessThan(lowGrossYield) {
		recs = append(recs, fmt.Sprintf(
			"A gross yield of %s is below the typical range for %s. The asking rent may not cover the risk of the investment.",
			percent(grossYield), region.Name))
	}
	if monthlyCashFlow.IsNegative() {
		recs = append(recs, fmt.Sprintf(
			"Cash flow is negative (%s per month): the rent does not cover costs and debt service at these assumptions.",
			euro(monthlyCashFlow.Abs())))
	}

	return &domain.CalculationResult{
		Calculator:      domain.CalculatorRental,
		TotalCosts:      b.total,
		NetProceeds:     decimal.Zero,
		Breakdown:       b.items,
		Figures:         figures,
		Recommendations: recs,
		Disclaimers:     rentalDisclaimers,
	}, nil
}
