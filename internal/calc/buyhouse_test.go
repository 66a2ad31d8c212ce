package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imocalc/imocalc/internal/domain"
)

func TestBuyHouseCashPurchase(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorBuyHouse, domain.CalculationInput{
		PropertyValue: dec("200000"),
		Region:        "lisboa",
	})
	require.NoError(t, err)

	byID := lineItemsByID(res.Breakdown)
	// 200000 * 7% - 10022.42 abatement
	requireDecimal(t, "3977.58", byID["imt"].Amount)
	requireDecimal(t, "1600", byID["stamp_duty"].Amount)
	requireDecimal(t, "200", byID["notary_fee"].Amount)
	requireDecimal(t, "250", byID["registration_fee"].Amount)
	requireDecimal(t, "150", byID["documentation_fee"].Amount)
	requireDecimal(t, "6177.58", res.TotalCosts)

	_, hasLoanDuty := byID["loan_stamp_duty"]
	assert.False(t, hasLoanDuty, "cash purchase must not carry bank lines")

	figures := figuresByID(res.Figures)
	requireDecimal(t, "206177.58", figures["total_acquisition_cost"].Value)
	requireDecimal(t, "206177.58", figures["cash_required"].Value)
	require.True(t, res.TotalCosts.Equal(res.DeductionTotal()))
}

func TestBuyHouseBelowFirstIMTBracket(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorBuyHouse, domain.CalculationInput{
		PropertyValue: dec("100000"),
		Region:        "lisboa",
	})
	require.NoError(t, err)

	requireDecimal(t, "0", lineItemsByID(res.Breakdown)["imt"].Amount)
	// stamp 800 + notary floor 200 + registration 250 + documentation 150
	requireDecimal(t, "1400", res.TotalCosts)
	assertRecommendationContains(t, res.Recommendations, "no transfer tax")
}

func TestBuyHouseFinanced(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorBuyHouse, domain.CalculationInput{
		PropertyValue:      dec("200000"),
		Region:             "lisboa",
		LoanAmount:         dec("160000"),
		AnnualInterestRate: dec("0.036"),
		TermYears:          30,
	})
	require.NoError(t, err)

	byID := lineItemsByID(res.Breakdown)
	requireDecimal(t, "960", byID["loan_stamp_duty"].Amount)
	requireDecimal(t, "280", byID["bank_valuation_fee"].Amount)
	requireDecimal(t, "500", byID["bank_processing_fee"].Amount)
	requireDecimal(t, "7917.58", res.TotalCosts)

	figures := figuresByID(res.Figures)
	requireDecimal(t, "47917.58", figures["cash_required"].Value)
	payment, ok := figures["monthly_payment"]
	require.True(t, ok)
	assert.True(t, payment.Value.IsPositive())

	// 80% LTV is below the down-payment warning threshold.
	for _, r := range res.Recommendations {
		assert.NotContains(t, r, "down payment")
	}
}

func TestBuyHouseHighLoanToValue(t *testing.T) {
	engine := testEngine(t)

	res, err := engine.Calculate(domain.CalculatorBuyHouse, domain.CalculationInput{
		PropertyValue: dec("200000"),
		Region:        "lisboa",
		LoanAmount:    dec("185000"),
	})
	require.NoError(t, err)

	assertRecommendationContains(t, res.Recommendations, "down payment")
}

func TestBuyHouseIslandsScheduleIsCheaper(t *testing.T) {
	engine := testEngine(t)
	in := domain.CalculationInput{PropertyValue: dec("250000")}

	in.Region = "lisboa"
	mainland, err := engine.Calculate(domain.CalculatorBuyHouse, in)
	require.NoError(t, err)

	in.Region = "madeira"
	islands, err := engine.Calculate(domain.CalculatorBuyHouse, in)
	require.NoError(t, err)

	mainlandIMT := figuresByID(mainland.Figures)["imt_amount"].Value
	islandsIMT := figuresByID(islands.Figures)["imt_amount"].Value
	assert.True(t, islandsIMT.LessThan(mainlandIMT),
		"islands brackets sit 25%% higher, so the same price owes less IMT: %s vs %s",
		islandsIMT, mainlandIMT)
}

func TestBuyHouseUnknownRegion(t *testing.T) {
	engine := testEngine(t)

	_, err := engine.Calculate(domain.CalculatorBuyHouse, domain.CalculationInput{
		PropertyValue: dec("200000"),
		Region:        "narnia",
	})
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func figuresByID(figures []domain.Figure) map[string]domain.Figure {
	byID := make(map[string]domain.Figure, len(figures))
	for _, f := range figures {
		byID[f.ID] = f
	}
	return byID
}
