package calc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imocalc/imocalc/internal/domain"
	"github.com/imocalc/imocalc/internal/rates"
)

// Severity separates hard blockers from advisory findings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// RuleContext is everything a rule may inspect. Rules are pure functions
// of this context.
type RuleContext struct {
	Calculator domain.CalculatorType
	Input      *domain.CalculationInput
	Table      *rates.Table
	Now        time.Time
}

// Rule is a single named validation check. Rules run in declaration order;
// errors attach to Field, warnings are free-form messages.
type Rule struct {
	Name      string
	Field     string
	Severity  Severity
	AppliesTo []domain.CalculatorType // nil means every calculator
	Check     func(ctx RuleContext) string // returns failure message, "" when ok
}

func (r Rule) appliesTo(calc domain.CalculatorType) bool {
	if len(r.AppliesTo) == 0 {
		return true
	}
	for _, c := range r.AppliesTo {
		if c == calc {
			return true
		}
	}
	return false
}

// Commission sanity band for warnings. Out-of-band values are accepted;
// the caller just gets told they are unusual.
var (
	commissionBandLow  = decimal.New(2, -2)  // 2%
	commissionBandHigh = decimal.New(15, -2) // 15%

	marketValueLow  = decimal.NewFromInt(25_000)
	marketValueHigh = decimal.NewFromInt(5_000_000)

	maxPlausibleAnnualRate = decimal.New(25, -2) // 25%
)

// Calculators that operate on an existing property the caller owns or is
// pricing, as opposed to the pure-financing simulator.
var propertyCalculators = []domain.CalculatorType{
	domain.CalculatorSellHouse,
	domain.CalculatorBuyHouse,
	domain.CalculatorRental,
	domain.CalculatorFlip,
	domain.CalculatorSwitchHouse,
}

var financedCalculators = []domain.CalculatorType{
	domain.CalculatorRental,
	domain.CalculatorFlip,
}

// defaultRules is the fixed-order rule list. Hard errors first, so a
// caller fixing the errors map converges quickly; warnings follow.
func defaultRules() []Rule {
	return []Rule{
		// ---------------------------------------------------------------- errors
		{
			Name:      "property_value_required",
			Field:     "propertyValue",
			Severity:  SeverityError,
			AppliesTo: propertyCalculators,
			Check: func(ctx RuleContext) string {
				if ctx.Input.PropertyValue == nil {
					return "Property value is required."
				}
				if !ctx.Input.PropertyValue.IsPositive() {
					return "Property value must be positive."
				}
				return ""
			},
		},
		{
			Name:      "region_known",
			Field:     "region",
			Severity:  SeverityError,
			AppliesTo: propertyCalculators,
			Check: func(ctx RuleContext) string {
				if ctx.Input.Region == "" {
					return "Region is required."
				}
				if _, ok := ctx.Table.Region(ctx.Input.Region); !ok {
					return fmt.Sprintf("Unknown region %q.", ctx.Input.Region)
				}
				return ""
			},
		},
		{
			Name:     "mortgage_amount_required",
			Field:    "outstandingMortgageAmount",
			Severity: SeverityError,
			Check: func(ctx RuleContext) string {
				if !ctx.Input.HasOutstandingMortgage {
					return ""
				}
				if ctx.Input.OutstandingMortgageAmount == nil {
					return "Outstanding mortgage amount is required when the property has a mortgage."
				}
				if !ctx.Input.OutstandingMortgageAmount.IsPositive() {
					return "Outstanding mortgage amount must be positive."
				}
				return ""
			},
		},
		{
			Name:     "mortgage_within_property_value",
			Field:    "outstandingMortgageAmount",
			Severity: SeverityError,
			Check: func(ctx RuleContext) string {
				in := ctx.Input
				if !in.HasOutstandingMortgage || in.OutstandingMortgageAmount == nil || in.PropertyValue == nil {
					return ""
				}
				if in.OutstandingMortgageAmount.GreaterThan(*in.PropertyValue) {
					return "Outstanding mortgage cannot exceed the property value."
				}
				return ""
			},
		},
		{
			Name:     "mortgage_rate_type_known",
			Field:    "mortgageRateType",
			Severity: SeverityError,
			Check: func(ctx RuleContext) string {
				in := ctx.Input
				if !in.HasOutstandingMortgage || in.MortgageRateType == "" {
					return "" // absent defaults to variable in the engine
				}
				if !in.MortgageRateType.IsValid() {
					return fmt.Sprintf("Unknown mortgage rate type %q.", in.MortgageRateType)
				}
				return ""
			},
		},
		{
			Name:     "purchase_price_required",
			Field:    "originalPurchasePrice",
			Severity: SeverityError,
			Check: func(ctx RuleContext) string {
				in := ctx.Input
				if !in.HasCapitalGains {
					return ""
				}
				if in.OriginalPurchasePrice == nil {
					return "Original purchase price is required to compute capital gains."
				}
				if in.OriginalPurchasePrice.IsNegative() {
					return "Original purchase price cannot be negative."
				}
				return ""
			},
		},
		{
			Name:     "purchase_year_valid",
			Field:    "yearOfPurchase",
			Severity: SeverityError,
			Check: func(ctx RuleContext) string {
				in := ctx.Input
				if !in.HasCapitalGains {
					return ""
				}
				if in.YearOfPurchase == 0 {
					return "Year of purchase is required to compute capital gains."
				}
				if in.YearOfPurchase > ctx.Now.Year() {
					return "Year of purchase cannot be in the future."
				}
				return ""
			},
		},
		{
			Name:      "loan_amount_required",
			Field:     "loanAmount",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorMortgage},
			Check: func(ctx RuleContext) string {
				if ctx.Input.LoanAmount == nil {
					return "Loan amount is required."
				}
				if !ctx.Input.LoanAmount.IsPositive() {
					return "Loan amount must be positive."
				}
				return ""
			},
		},
		{
			Name:      "interest_rate_required",
			Field:     "annualInterestRate",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorMortgage},
			Check: func(ctx RuleContext) string {
				if ctx.Input.AnnualInterestRate == nil {
					return "Annual interest rate is required."
				}
				return rateSanity(*ctx.Input.AnnualInterestRate)
			},
		},
		{
			Name:      "term_years_range",
			Field:     "termYears",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorMortgage},
			Check: func(ctx RuleContext) string {
				if ctx.Input.TermYears < 1 || ctx.Input.TermYears > 50 {
					return "Term must be between 1 and 50 years."
				}
				return ""
			},
		},
		{
			Name:      "financing_terms_complete",
			Field:     "annualInterestRate",
			Severity:  SeverityError,
			AppliesTo: financedCalculators,
			Check: func(ctx RuleContext) string {
				in := ctx.Input
				if in.LoanAmount == nil || !in.LoanAmount.IsPositive() {
					return ""
				}
				if in.AnnualInterestRate == nil {
					return "Annual interest rate is required when financing is included."
				}
				return rateSanity(*in.AnnualInterestRate)
			},
		},
		{
			Name:      "monthly_rent_required",
			Field:     "monthlyRent",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorRental},
			Check: func(ctx RuleContext) string {
				if ctx.Input.MonthlyRent == nil || !ctx.Input.MonthlyRent.IsPositive() {
					return "Monthly rent is required and must be positive."
				}
				return ""
			},
		},
		{
			Name:      "vacancy_rate_range",
			Field:     "vacancyRate",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorRental},
			Check: func(ctx RuleContext) string {
				v := ctx.Input.VacancyRate
				if v == nil {
					return ""
				}
				if v.IsNegative() || v.GreaterThanOrEqual(decimal.NewFromInt(1)) {
					return "Vacancy rate must be between 0 and 1."
				}
				return ""
			},
		},
		{
			Name:      "expected_sale_price_required",
			Field:     "expectedSalePrice",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorFlip},
			Check: func(ctx RuleContext) string {
				if ctx.Input.ExpectedSalePrice == nil || !ctx.Input.ExpectedSalePrice.IsPositive() {
					return "Expected sale price is required and must be positive."
				}
				return ""
			},
		},
		{
			Name:      "holding_months_range",
			Field:     "holdingMonths",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorFlip},
			Check: func(ctx RuleContext) string {
				if ctx.Input.HoldingMonths < 1 || ctx.Input.HoldingMonths > 120 {
					return "Holding period must be between 1 and 120 months."
				}
				return ""
			},
		},
		{
			Name:      "new_property_value_required",
			Field:     "newPropertyValue",
			Severity:  SeverityError,
			AppliesTo: []domain.CalculatorType{domain.CalculatorSwitchHouse},
			Check: func(ctx RuleContext) string {
				if ctx.Input.NewPropertyValue == nil || !ctx.Input.NewPropertyValue.IsPositive() {
					return "Value of the new property is required and must be positive."
				}
				return ""
			},
		},
		// -------------------------------------------------------------- warnings
		{
			Name:     "selling_at_a_loss",
			Severity: SeverityWarning,
			Check: func(ctx RuleContext) string {
				in := ctx.Input
				if !in.HasCapitalGains || in.OriginalPurchasePrice == nil || in.PropertyValue == nil {
					return ""
				}
				if in.OriginalPurchasePrice.GreaterThan(*in.PropertyValue) {
					return "Original purchase price is above the sale price; the sale realizes a loss and no capital gains tax applies."
				}
				return ""
			},
		},
		{
			Name:     "commission_outside_band",
			Severity: SeverityWarning,
			Check: func(ctx RuleContext) string {
				rate := ctx.Input.CommissionRate
				if rate == nil {
					return ""
				}
				if rate.LessThan(commissionBandLow) || rate.GreaterThan(commissionBandHigh) {
					return fmt.Sprintf("Commission rate of %s is outside the typical 2%%–15%% band.", percent(*rate))
				}
				return ""
			},
		},
		{
			Name:      "property_value_outside_market",
			Severity:  SeverityWarning,
			AppliesTo: propertyCalculators,
			Check: func(ctx RuleContext) string {
				v := ctx.Input.PropertyValue
				if v == nil {
					return ""
				}
				if v.IsPositive() && (v.LessThan(marketValueLow) || v.GreaterThan(marketValueHigh)) {
					return fmt.Sprintf("Property value of %s is far outside the typical market range.", euro(*v))
				}
				return ""
			},
		},
		{
			Name:      "sale_below_purchase",
			Severity:  SeverityWarning,
			AppliesTo: []domain.CalculatorType{domain.CalculatorFlip},
			Check: func(ctx RuleContext) string {
				in := ctx.Input
				if in.ExpectedSalePrice == nil || in.PropertyValue == nil {
					return ""
				}
				if in.ExpectedSalePrice.LessThan(*in.PropertyValue) {
					return "Expected sale price is below the purchase price; the flip loses money before costs."
				}
				return ""
			},
		},
	}
}

// rateSanity rejects interest rates that are negative or implausibly high.
func rateSanity(rate decimal.Decimal) string {
	if rate.IsNegative() {
		return "Annual interest rate cannot be negative."
	}
	if rate.GreaterThan(maxPlausibleAnnualRate) {
		return "Annual interest rate above 25% is not plausible; rates are fractions (0.04 means 4%)."
	}
	return ""
}
