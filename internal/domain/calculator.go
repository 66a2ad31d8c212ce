// Package domain contains core business types and interfaces.
//
// This file defines the calculator family: input records, breakdown line
// items, and the result type shared by all six calculators.
package domain

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// Calculator Types
// =============================================================================

// CalculatorType identifies which cost calculator is being run.
type CalculatorType string

const (
	CalculatorSellHouse   CalculatorType = "sell-house"
	CalculatorBuyHouse    CalculatorType = "buy-house"
	CalculatorMortgage    CalculatorType = "mortgage-simulator"
	CalculatorRental      CalculatorType = "rental-investment"
	CalculatorFlip        CalculatorType = "property-flip"
	CalculatorSwitchHouse CalculatorType = "switch-house"
)

// String returns the string representation of the calculator type.
func (c CalculatorType) String() string {
	return string(c)
}

// IsValid returns true if the calculator type is a recognized value.
func (c CalculatorType) IsValid() bool {
	switch c {
	case CalculatorSellHouse, CalculatorBuyHouse, CalculatorMortgage,
		CalculatorRental, CalculatorFlip, CalculatorSwitchHouse:
		return true
	}
	return false
}

// ParseCalculatorType maps a URL path segment to a CalculatorType.
// Returns false for unknown values.
func ParseCalculatorType(s string) (CalculatorType, bool) {
	c := CalculatorType(s)
	return c, c.IsValid()
}

// MortgageRateType identifies the interest-rate regime of a mortgage
// contract. It drives the early-repayment commission formula.
type MortgageRateType string

const (
	RateTypeVariable MortgageRateType = "variable"
	RateTypeFixed    MortgageRateType = "fixed"
	RateTypeMixed    MortgageRateType = "mixed"
)

// IsValid returns true if the rate type is a recognized value.
func (m MortgageRateType) IsValid() bool {
	switch m {
	case RateTypeVariable, RateTypeFixed, RateTypeMixed:
		return true
	}
	return false
}

// =============================================================================
// Calculation Input
// =============================================================================

// CalculationInput is the shared input record for the calculator family.
// Which fields are required and which are read depends on the calculator
// type; optional numeric fields are pointers so the validator can tell
// "absent" apart from zero.
type CalculationInput struct {
	PropertyValue  *decimal.Decimal `json:"propertyValue,omitempty"`
	Region         RegionCode       `json:"region,omitempty"`
	CommissionRate *decimal.Decimal `json:"commissionRate,omitempty"` // Fraction; region average when absent

	// Outstanding mortgage on the property being sold
	HasOutstandingMortgage    bool             `json:"hasOutstandingMortgage,omitempty"`
	OutstandingMortgageAmount *decimal.Decimal `json:"outstandingMortgageAmount,omitempty"`
	MortgageRateType          MortgageRateType `json:"mortgageRateType,omitempty"`

	// Capital gains state for the property being sold
	HasCapitalGains       bool             `json:"hasCapitalGains,omitempty"`
	OriginalPurchasePrice *decimal.Decimal `json:"originalPurchasePrice,omitempty"`
	ImprovementCosts      *decimal.Decimal `json:"improvementCosts,omitempty"`
	YearOfPurchase        int              `json:"yearOfPurchase,omitempty"`
	IsMainResidence       bool             `json:"isMainResidence,omitempty"`

	// Financing (buy-house, mortgage-simulator, rental, flip)
	LoanAmount         *decimal.Decimal `json:"loanAmount,omitempty"`
	AnnualInterestRate *decimal.Decimal `json:"annualInterestRate,omitempty"` // Fraction, e.g. 0.036
	TermYears          int              `json:"termYears,omitempty"`

	// Rental investment
	MonthlyRent      *decimal.Decimal `json:"monthlyRent,omitempty"`
	VacancyRate      *decimal.Decimal `json:"vacancyRate,omitempty"`      // Fraction of the year vacant
	CondoFeesMonthly *decimal.Decimal `json:"condoFeesMonthly,omitempty"`
	InsuranceAnnual  *decimal.Decimal `json:"insuranceAnnual,omitempty"`
	MaintenanceRate  *decimal.Decimal `json:"maintenanceRate,omitempty"` // Fraction of property value per year

	// Property flip
	RenovationCost    *decimal.Decimal `json:"renovationCost,omitempty"`
	ExpectedSalePrice *decimal.Decimal `json:"expectedSalePrice,omitempty"`
	HoldingMonths     int              `json:"holdingMonths,omitempty"`

	// Switch house
	NewPropertyValue *decimal.Decimal `json:"newPropertyValue,omitempty"`
}

// =============================================================================
// Calculation Output
// =============================================================================

// LineItemCategory classifies a breakdown line for presentation grouping.
type LineItemCategory string

const (
	CategoryFee       LineItemCategory = "fee"
	CategoryTax       LineItemCategory = "tax"
	CategoryCost      LineItemCategory = "cost"
	CategoryInsurance LineItemCategory = "insurance"
	CategoryOther     LineItemCategory = "other"
)

// LineItem is one entry of a cost breakdown.
type LineItem struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Amount      decimal.Decimal  `json:"amount"`
	Category    LineItemCategory `json:"category"`
	Required    bool             `json:"required"`
	IsDeduction bool             `json:"isDeduction"` // Whether it subtracts from gross proceeds
}

// Figure is a named headline number a calculator produces beyond the cost
// breakdown (monthly payment, gross yield, ROI, ...). Ordered for display.
type Figure struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// CalculationResult is the structured output of a calculator run.
//
// Invariants: TotalCosts equals the sum of all IsDeduction line amounts,
// and NetProceeds is floored at zero. For calculators where "net proceeds"
// has no meaning (buy-house, mortgage-simulator) NetProceeds is zero and
// the headline numbers live in Figures.
type CalculationResult struct {
	Calculator      CalculatorType  `json:"calculator"`
	TotalCosts      decimal.Decimal `json:"totalCosts"`
	NetProceeds     decimal.Decimal `json:"netProceeds"`
	Breakdown       []LineItem      `json:"breakdown"`
	Figures         []Figure        `json:"figures,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Disclaimers     []string        `json:"disclaimers"`
}

// DeductionTotal sums all deduction line items. Callers can use it to
// verify the TotalCosts invariant.
func (r *CalculationResult) DeductionTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Breakdown {
		if item.IsDeduction {
			total = total.Add(item.Amount)
		}
	}
	return total
}

// =============================================================================
// Validation Result
// =============================================================================

// ValidationResult aggregates hard errors and soft warnings for an input.
// Errors block calculation; warnings are advisory and never block.
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   map[string]string `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// AddError records a field-level hard error and marks the result invalid.
// The first error per field wins so rule order is deterministic.
func (v *ValidationResult) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
	v.IsValid = false
}

// AddWarning records an advisory message.
func (v *ValidationResult) AddWarning(message string) {
	v.Warnings = append(v.Warnings, message)
}
