package calc

import (
	"fmt"

	"github.com/imocalc/imocalc/internal/domain"
)

var switchDisclaimers = []string{
	"Sale and purchase are assumed to complete in the same tax year.",
	"Reinvesting sale proceeds in a new main residence can defer capital gains tax; the simulation does not model reinvestment relief.",
	"This simulation is informational only and is not financial, tax or legal advice.",
}

// switchHouse composes the sell and buy engines: sell the current
// property, buy the new one, and report whether the released equity covers
// the cash needed for the purchase.
func (e *Engine) switchHouse(in domain.CalculationInput) (*domain.CalculationResult, error) {
	sellRes, err := e.sellHouse(in)
	if err != nil {
		return nil, err
	}

	buyIn := domain.CalculationInput{
		PropertyValue:      in.NewPropertyValue,
		Region:             in.Region,
		LoanAmount:         in.LoanAmount,
		AnnualInterestRate: in.AnnualInterestRate,
		TermYears:          in.TermYears,
	}
	buyRes, err := e.buyHouse(buyIn)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(sellRes.Breakdown)+len(buyRes.Breakdown))
	for _, item := range sellRes.Breakdown {
		item.ID = "sell_" + item.ID
		item.Label = "Sale: " + item.Label
		items = append(items, item)
	}
	for _, item := range buyRes.Breakdown {
		item.ID = "buy_" + item.ID
		item.Label = "Purchase: " + item.Label
		items = append(items, item)
	}

	totalCosts := sellRes.TotalCosts.Add(buyRes.TotalCosts)
	equity := sellRes.NetProceeds

	newValue := deref(in.NewPropertyValue)
	loan := deref(in.LoanAmount)
	cashRequired := floorZero(newValue.Sub(loan)).Add(buyRes.TotalCosts)
	gap := cashRequired.Sub(equity)

	figures := []domain.Figure{
		{ID: "equity_released", Label: "Equity released by the sale", Value: equity},
		{ID: "cash_required", Label: "Cash required for the purchase", Value: cashRequired},
		{ID: "funding_gap", Label: "Funding gap (negative means surplus)", Value: gap.Round(2)},
	}
	for _, f := range buyRes.Figures {
		if f.ID == "monthly_payment" {
			figures = append(figures, f)
		}
	}

	recs := append([]string{}, sellRes.Recommendations...)
	if gap.IsPositive() {
		recs = append(recs, fmt.Sprintf(
			"The sale proceeds leave a gap of %s on the new purchase. A larger loan or bridging credit would be needed.",
			euro(gap.Round(2))))
	} else {
		recs = append(recs, fmt.Sprintf(
			"The sale covers the purchase with %s to spare at these prices.",
			euro(gap.Neg().Round(2))))
	}

	return &domain.CalculationResult{
		Calculator:      domain.CalculatorSwitchHouse,
		TotalCosts:      totalCosts,
		NetProceeds:     floorZero(equity.Sub(cashRequired)),
		Breakdown:       items,
		Figures:         figures,
		Recommendations: recs,
		Disclaimers:     switchDisclaimers,
	}, nil
}
