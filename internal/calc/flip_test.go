package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imocalc/imocalc/internal/domain"
)

func TestPropertyFlipProfitableScenario(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorFlip, domain.CalculationInput{
		PropertyValue:     dec("150000"),
		Region:            "lisboa",
		RenovationCost:    dec("30000"),
		ExpectedSalePrice: dec("250000"),
		HoldingMonths:     6,
		CommissionRate:    dec("0.05"),
	})
	require.NoError(t, err)

	byID := lineItemsByID(res.Breakdown)
	requireDecimal(t, "1279.30", byID["imt"].Amount) // 150000*5% - 6220.70
	requireDecimal(t, "1200", byID["stamp_duty"].Amount)
	requireDecimal(t, "450", byID["notary_fee"].Amount) // floor 200 + registry 250
	requireDecimal(t, "225", byID["imi_holding"].Amount)
	requireDecimal(t, "450", byID["holding_costs"].Amount) // 75 * 6 months
	requireDecimal(t, "12500", byID["commission"].Amount)  // on the sale price
	requireDecimal(t, "250", byID["energy_certificate"].Amount)
	requireDecimal(t, "15020.80", byID["gains_tax"].Amount)

	figures := figuresByID(res.Figures)
	requireDecimal(t, "53645.70", figures["profit_before_tax"].Value)
	requireDecimal(t, "38624.90", figures["net_profit"].Value)
	requireDecimal(t, "196354.30", figures["total_investment"].Value)
	requireDecimal(t, "0.1967", figures["roi"].Value)

	requireDecimal(t, "38624.90", res.NetProceeds)
	require.True(t, res.TotalCosts.Equal(res.DeductionTotal()))
	assert.Empty(t, res.Recommendations)
}

func TestPropertyFlipFinancingInterest(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorFlip, domain.CalculationInput{
		PropertyValue:      dec("150000"),
		Region:             "lisboa",
		ExpectedSalePrice:  dec("220000"),
		HoldingMonths:      6,
		LoanAmount:         dec("100000"),
		AnnualInterestRate: dec("0.06"),
	})
	require.NoError(t, err)

	// simple interest: 100000 * 6% * 6/12
	requireDecimal(t, "3000", lineItemsByID(res.Breakdown)["financing_interest"].Amount)
}

func TestPropertyFlipLoss(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorFlip, domain.CalculationInput{
		PropertyValue:     dec("150000"),
		Region:            "lisboa",
		RenovationCost:    dec("30000"),
		ExpectedSalePrice: dec("150000"),
		HoldingMonths:     6,
	})
	require.NoError(t, err)

	requireDecimal(t, "0", lineItemsByID(res.Breakdown)["gains_tax"].Amount)
	requireDecimal(t, "0", res.NetProceeds)
	assert.True(t, figuresByID(res.Figures)["net_profit"].Value.IsNegative())
	assertRecommendationContains(t, res.Recommendations, "loses")
}

func TestPropertyFlipThinMargin(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorFlip, domain.CalculationInput{
		PropertyValue:     dec("150000"),
		Region:            "lisboa",
		ExpectedSalePrice: dec("180000"),
		HoldingMonths:     1,
		CommissionRate:    dec("0.05"),
	})
	require.NoError(t, err)

	roi := figuresByID(res.Figures)["roi"].Value
	require.True(t, roi.IsPositive())
	require.True(t, roi.LessThan(thinFlipROI))
	assertRecommendationContains(t, res.Recommendations, "little room")
}

func TestPropertyFlipLongHold(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorFlip, domain.CalculationInput{
		PropertyValue:     dec("150000"),
		Region:            "lisboa",
		ExpectedSalePrice: dec("250000"),
		HoldingMonths:     18,
	})
	require.NoError(t, err)

	assertRecommendationContains(t, res.Recommendations, "Holding beyond a year")
}
