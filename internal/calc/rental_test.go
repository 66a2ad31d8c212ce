package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imocalc/imocalc/internal/domain"
)

func TestRentalInvestmentBaseScenario(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorRental, domain.CalculationInput{
		PropertyValue: dec("200000"),
		Region:        "lisboa",
		MonthlyRent:   dec("1000"),
	})
	require.NoError(t, err)

	byID := lineItemsByID(res.Breakdown)
	requireDecimal(t, "600", byID["imi"].Amount)          // 0.3% IMI
	requireDecimal(t, "2000", byID["maintenance"].Amount) // 1% default
	requireDecimal(t, "150", byID["insurance"].Amount)
	// effective rent 11040 (8% default vacancy) - operating 2750 = NOI 8290
	requireDecimal(t, "2321.20", byID["rental_income_tax"].Amount)

	figures := figuresByID(res.Figures)
	requireDecimal(t, "0.06", figures["gross_yield"].Value)
	requireDecimal(t, "0.0298", figures["net_yield"].Value)
	requireDecimal(t, "5968.80", figures["annual_net_income"].Value)
	requireDecimal(t, "497.40", figures["monthly_cash_flow"].Value)

	require.True(t, res.TotalCosts.Equal(res.DeductionTotal()))
	assert.Empty(t, res.Recommendations)
}

func TestRentalInvestmentExplicitAssumptions(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorRental, domain.CalculationInput{
		PropertyValue:    dec("200000"),
		Region:           "lisboa",
		MonthlyRent:      dec("1000"),
		VacancyRate:      dec("0"),
		MaintenanceRate:  dec("0.005"),
		InsuranceAnnual:  dec("300"),
		CondoFeesMonthly: dec("50"),
	})
	require.NoError(t, err)

	byID := lineItemsByID(res.Breakdown)
	requireDecimal(t, "1000", byID["maintenance"].Amount)
	requireDecimal(t, "300", byID["insurance"].Amount)
	requireDecimal(t, "600", byID["condo_fees"].Amount)

	// NOI = 12000 - (600+1000+300+600) = 9500; tax 2660
	requireDecimal(t, "2660", byID["rental_income_tax"].Amount)
	requireDecimal(t, "6840", figuresByID(res.Figures)["annual_net_income"].Value)
}

func TestRentalInvestmentLowYieldWarning(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorRental, domain.CalculationInput{
		PropertyValue: dec("200000"),
		Region:        "lisboa",
		MonthlyRent:   dec("500"), // 3% gross
	})
	require.NoError(t, err)

	requireDecimal(t, "0.03", figuresByID(res.Figures)["gross_yield"].Value)
	assertRecommendationContains(t, res.Recommendations, "below the typical range")
}

func TestRentalInvestmentNegativeCashFlowWhenFinanced(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorRental, domain.CalculationInput{
		PropertyValue:      dec("200000"),
		Region:             "lisboa",
		MonthlyRent:        dec("1000"),
		LoanAmount:         dec("150000"),
		AnnualInterestRate: dec("0.04"),
		TermYears:          30,
	})
	require.NoError(t, err)

	cashFlow := figuresByID(res.Figures)["monthly_cash_flow"].Value
	require.True(t, cashFlow.IsNegative(),
		"debt service on 150000 at 4%% exceeds the 497.40 unlevered cash flow")
	assertRecommendationContains(t, res.Recommendations, "Cash flow is negative")
}
