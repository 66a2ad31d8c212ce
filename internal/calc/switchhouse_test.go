package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imocalc/imocalc/internal/domain"
)

func TestSwitchHouseSurplus(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorSwitchHouse, domain.CalculationInput{
		PropertyValue:      dec("200000"),
		Region:             "lisboa",
		CommissionRate:     dec("0.06"),
		NewPropertyValue:   dec("300000"),
		LoanAmount:         dec("200000"),
		AnnualInterestRate: dec("0.03"),
		TermYears:          30,
	})
	require.NoError(t, err)

	// Sale side matches the standalone sell-house base scenario.
	byID := lineItemsByID(res.Breakdown)
	requireDecimal(t, "12000", byID["sell_commission"].Amount)
	assert.Equal(t, "Sale: Agency commission", byID["sell_commission"].Label)

	// Purchase side: 300000 * 7% - 10022.42 abatement.
	requireDecimal(t, "10977.58", byID["buy_imt"].Amount)
	requireDecimal(t, "1200", byID["buy_loan_stamp_duty"].Amount)

	figures := figuresByID(res.Figures)
	requireDecimal(t, "186650", figures["equity_released"].Value)
	// (300000 - 200000 loan) + purchase costs 16057.58
	requireDecimal(t, "116057.58", figures["cash_required"].Value)
	requireDecimal(t, "-70592.42", figures["funding_gap"].Value)
	requireDecimal(t, "70592.42", res.NetProceeds)
	requireDecimal(t, "29407.58", res.TotalCosts)

	_, hasPayment := figures["monthly_payment"]
	assert.True(t, hasPayment, "financed purchase forwards the installment figure")

	require.True(t, res.TotalCosts.Equal(res.DeductionTotal()))
	assertRecommendationContains(t, res.Recommendations, "to spare")
}

func TestSwitchHouseFundingGap(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorSwitchHouse, domain.CalculationInput{
		PropertyValue:    dec("200000"),
		Region:           "lisboa",
		CommissionRate:   dec("0.06"),
		NewPropertyValue: dec("500000"),
	})
	require.NoError(t, err)

	figures := figuresByID(res.Figures)
	assert.True(t, figures["funding_gap"].Value.IsPositive())
	requireDecimal(t, "0", res.NetProceeds)
	assertRecommendationContains(t, res.Recommendations, "gap")
}

func TestSwitchHouseCarriesSaleRecommendations(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorSwitchHouse, domain.CalculationInput{
		PropertyValue:         dec("300000"),
		Region:                "lisboa",
		HasCapitalGains:       true,
		OriginalPurchasePrice: dec("200000"),
		IsMainResidence:       true,
		YearOfPurchase:        fixedYear - 2,
		NewPropertyValue:      dec("300000"),
	})
	require.NoError(t, err)

	assertRecommendationContains(t, res.Recommendations, "Waiting 1 more year")
}
