// Package calc implements the cost calculation engines and the input
// validator for the calculator family.
//
// Engines are pure: given validated input and an injected rate table they
// produce the same breakdown every time, with no I/O. The only ambient
// input is the current date (for capital-gains holding periods), which is
// injectable for tests.
package calc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imocalc/imocalc/internal/domain"
	"github.com/imocalc/imocalc/internal/rates"
)

// Early-repayment commission rates per Decreto-Lei 74-A/2017. The €250 cap
// on variable-rate contracts is a regulatory figure; do not derive it.
var (
	variableRepaymentRate = decimal.New(5, -3) // 0.5%
	variableRepaymentCap  = decimal.NewFromInt(250)
	fixedRepaymentRate    = decimal.New(2, -2) // 2%
)

// Engine computes cost breakdowns from validated calculation input.
type Engine struct {
	table *rates.Table
	now   func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineNow overrides the engine clock. Tests use this to pin the
// current year for capital-gains holding periods.
func WithEngineNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine over an immutable rate table.
func NewEngine(table *rates.Table, opts ...EngineOption) *Engine {
	e := &Engine{
		table: table,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate runs the calculator identified by calcType over input.
//
// Input must already have passed Validator.Validate for the same calculator
// type; engines assume well-formed input and do not re-validate. The only
// errors returned are an unknown calculator type or a region code missing
// from the rate table.
func (e *Engine) Calculate(calcType domain.CalculatorType, in domain.CalculationInput) (*domain.CalculationResult, error) {
	const op = "calc.calculate"

	switch calcType {
	case domain.CalculatorSellHouse:
		return e.sellHouse(in)
	case domain.CalculatorBuyHouse:
		return e.buyHouse(in)
	case domain.CalculatorMortgage:
		return e.mortgageSimulation(in)
	case domain.CalculatorRental:
		return e.rentalInvestment(in)
	case domain.CalculatorFlip:
		return e.propertyFlip(in)
	case domain.CalculatorSwitchHouse:
		return e.switchHouse(in)
	default:
		return nil, domain.Invalid(op, "unknown calculator type "+string(calcType))
	}
}

// region resolves the region code against the rate table.
func (e *Engine) region(op string, code domain.RegionCode) (domain.RegionRates, error) {
	region, ok := e.table.Region(code)
	if !ok {
		return domain.RegionRates{}, domain.NotFound(op, "region", string(code))
	}
	return region, nil
}

// commissionRate returns the caller's override or the region average.
func commissionRate(in domain.CalculationInput, region domain.RegionRates) decimal.Decimal {
	if in.CommissionRate != nil {
		return *in.CommissionRate
	}
	return region.AverageCommissionRate
}

// =============================================================================
// Breakdown builder
// =============================================================================

// breakdown accumulates line items and keeps the deduction total in sync,
// so TotalCosts always equals the sum of deduction lines by construction.
type breakdown struct {
	items []domain.LineItem
	total decimal.Decimal
}

// add appends a line item, rounding the amount to cents.
func (b *breakdown) add(id, label string, amount decimal.Decimal, category domain.LineItemCategory, required, deduction bool) {
	amount = amount.Round(2)
	b.items = append(b.items, domain.LineItem{
		ID:          id,
		Label:       label,
		Amount:      amount,
		Category:    category,
		Required:    required,
		IsDeduction: deduction,
	})
	if deduction {
		b.total = b.total.Add(amount)
	}
}

// =============================================================================
// Shared arithmetic
// =============================================================================

// earlyRepaymentFee returns the early-termination commission for paying off
// a mortgage of the given balance. Variable-rate contracts pay 0.5% capped
// at €250; fixed and mixed contracts pay the 2% fixed-rate commission.
func earlyRepaymentFee(balance decimal.Decimal, rateType domain.MortgageRateType) decimal.Decimal {
	if rateType == domain.RateTypeVariable || rateType == "" {
		fee := balance.Mul(variableRepaymentRate)
		if fee.GreaterThan(variableRepaymentCap) {
			return variableRepaymentCap
		}
		return fee.Round(2)
	}
	return balance.Mul(fixedRepaymentRate).Round(2)
}

// notaryFee is a percentage of property value clamped to a fixed band.
func notaryFee(value decimal.Decimal, fees domain.FeeSchedule) decimal.Decimal {
	fee := value.Mul(fees.NotaryRate)
	if fee.LessThan(fees.NotaryFeeMin) {
		return fees.NotaryFeeMin
	}
	if fee.GreaterThan(fees.NotaryFeeMax) {
		return fees.NotaryFeeMax
	}
	return fee.Round(2)
}

// cleaningAllowance is a percentage of property value with a fixed floor.
func cleaningAllowance(value decimal.Decimal, fees domain.FeeSchedule) decimal.Decimal {
	allowance := value.Mul(fees.CleaningRate)
	if allowance.LessThan(fees.CleaningFeeMin) {
		return fees.CleaningFeeMin
	}
	return allowance.Round(2)
}

// imtFor computes IMT for a purchase price against a bracket schedule.
// Brackets use marginal rate minus abatement; the final bracket is
// unbounded so the loop always terminates with a match.
func imtFor(price decimal.Decimal, schedule []domain.IMTBracket) decimal.Decimal {
	for _, b := range schedule {
		if b.UpTo.IsZero() || price.LessThanOrEqual(b.UpTo) {
			tax := price.Mul(b.Rate).Sub(b.Abatement)
			if tax.IsNegative() {
				return decimal.Zero
			}
			return tax.Round(2)
		}
	}
	return decimal.Zero
}

// monthlyPayment computes the French-amortization monthly installment.
func monthlyPayment(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(months))
	if annualRate.IsZero() {
		return principal.DivRound(n, 2)
	}
	r := annualRate.Div(decimal.NewFromInt(12))
	factor := decimal.NewFromInt(1).Add(r).Pow(n)
	return principal.Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1))).Round(2)
}

// floorZero clamps negative amounts to zero.
func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// deref returns the pointed-at decimal or zero.
func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// derefOr returns the pointed-at decimal or a fallback.
func derefOr(d *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if d == nil {
		return fallback
	}
	return *d
}
