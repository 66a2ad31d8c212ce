package calc

import (
	"time"

	"github.com/imocalc/imocalc/internal/domain"
	"github.com/imocalc/imocalc/internal/rates"
)

// Validator runs the rule list against raw calculation input. It is pure
// and must be called before Engine.Calculate; the engines do not
// re-validate.
type Validator struct {
	table *rates.Table
	rules []Rule
	now   func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorNow overrides the validator clock, used by the
// year-of-purchase rule.
func WithValidatorNow(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator creates a Validator over the default rule list.
func NewValidator(table *rates.Table, opts ...ValidatorOption) *Validator {
	v := &Validator{
		table: table,
		rules: defaultRules(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every applicable rule in order and aggregates the result.
// Errors block calculation; warnings never do. The first error per field
// wins, so later rules cannot mask an earlier, more fundamental failure.
func (v *Validator) Validate(calcType domain.CalculatorType, in domain.CalculationInput) domain.ValidationResult {
	result := domain.ValidationResult{IsValid: true}
	ctx := RuleContext{
		Calculator: calcType,
		Input:      &in,
		Table:      v.table,
		Now:        v.now(),
	}

	for _, rule := range v.rules {
		if !rule.appliesTo(calcType) {
			continue
		}
		message := rule.Check(ctx)
		if message == "" {
			continue
		}
		switch rule.Severity {
		case SeverityError:
			result.AddError(rule.Field, message)
		case SeverityWarning:
			result.AddWarning(message)
		}
	}

	return result
}
