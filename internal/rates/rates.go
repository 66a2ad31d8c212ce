// Package rates loads the fixed Portuguese rate tables the calculators
// consume: IMT bracket schedules, stamp-duty and tax rates, fixed legal
// fees, and per-region market averages.
//
// Tables are embedded in the binary and immutable after load. The YAML is
// parsed into string-typed records first and converted to exact decimals,
// so a malformed number fails at startup instead of producing a wrong
// calculation later.
package rates

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/imocalc/imocalc/internal/domain"
)

//go:embed tables.yaml
var embeddedTables []byte

// Table is the full rate table injected into the calculation engine.
type Table struct {
	Fees         domain.FeeSchedule
	IMTSchedules map[domain.IMTScheduleID][]domain.IMTBracket

	regions map[domain.RegionCode]domain.RegionRates
	order   []domain.RegionCode // Preserves YAML order for listing
}

// Region returns the rates for a region code.
func (t *Table) Region(code domain.RegionCode) (domain.RegionRates, bool) {
	r, ok := t.regions[code]
	return r, ok
}

// Regions returns all regions in table order.
func (t *Table) Regions() []domain.RegionRates {
	out := make([]domain.RegionRates, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.regions[code])
	}
	return out
}

// IMTScheduleFor returns the bracket schedule for a region.
func (t *Table) IMTScheduleFor(region domain.RegionRates) []domain.IMTBracket {
	return t.IMTSchedules[region.IMTSchedule]
}

// Load parses the embedded rate tables.
func Load() (*Table, error) {
	return Parse(embeddedTables)
}

// Parse builds a Table from raw YAML. Exposed so tests can exercise the
// engine with alternate jurisdiction data.
func Parse(data []byte) (*Table, error) {
	var raw rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rate tables: %w", err)
	}

	fees, err := raw.Fees.convert()
	if err != nil {
		return nil, fmt.Errorf("rate tables: fees: %w", err)
	}

	schedules := make(map[domain.IMTScheduleID][]domain.IMTBracket, len(raw.IMTSchedules))
	for id, rawBrackets := range raw.IMTSchedules {
		brackets := make([]domain.IMTBracket, 0, len(rawBrackets))
		for i, rb := range rawBrackets {
			b, err := rb.convert()
			if err != nil {
				return nil, fmt.Errorf("rate tables: imt schedule %s bracket %d: %w", id, i, err)
			}
			brackets = append(brackets, b)
		}
		if err := checkSchedule(brackets); err != nil {
			return nil, fmt.Errorf("rate tables: imt schedule %s: %w", id, err)
		}
		schedules[domain.IMTScheduleID(id)] = brackets
	}

	t := &Table{
		Fees:         fees,
		IMTSchedules: schedules,
		regions:      make(map[domain.RegionCode]domain.RegionRates, len(raw.Regions)),
	}

	for _, rr := range raw.Regions {
		region, err := rr.convert()
		if err != nil {
			return nil, fmt.Errorf("rate tables: region %s: %w", rr.Code, err)
		}
		if _, ok := schedules[region.IMTSchedule]; !ok {
			return nil, fmt.Errorf("rate tables: region %s references unknown imt schedule %q", rr.Code, rr.IMTSchedule)
		}
		if _, dup := t.regions[region.Code]; dup {
			return nil, fmt.Errorf("rate tables: duplicate region %s", rr.Code)
		}
		t.regions[region.Code] = region
		t.order = append(t.order, region.Code)
	}

	if len(t.order) == 0 {
		return nil, fmt.Errorf("rate tables: no regions defined")
	}

	return t, nil
}

// checkSchedule enforces that brackets are ascending and end with an
// unbounded bracket, so the IMT lookup can never fall through.
func checkSchedule(brackets []domain.IMTBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("empty schedule")
	}
	last := brackets[len(brackets)-1]
	if !last.UpTo.IsZero() {
		return fmt.Errorf("final bracket must be unbounded")
	}
	prev := decimal.Zero
	for i, b := range brackets[:len(brackets)-1] {
		if b.UpTo.LessThanOrEqual(prev) {
			return fmt.Errorf("bracket %d upper bound not ascending", i)
		}
		prev = b.UpTo
	}
	return nil
}

// =============================================================================
// Raw YAML records
// =============================================================================

type rawTable struct {
	Fees         rawFees                 `yaml:"fees"`
	IMTSchedules map[string][]rawBracket `yaml:"imtSchedules"`
	Regions      []rawRegion             `yaml:"regions"`
}

type rawFees struct {
	StampDutyRate        string `yaml:"stampDutyRate"`
	LoanStampDutyRate    string `yaml:"loanStampDutyRate"`
	CapitalGainsRate     string `yaml:"capitalGainsRate"`
	ExemptionYears       int    `yaml:"exemptionYears"`
	NotaryRate           string `yaml:"notaryRate"`
	NotaryFeeMin         string `yaml:"notaryFeeMin"`
	NotaryFeeMax         string `yaml:"notaryFeeMax"`
	CleaningRate         string `yaml:"cleaningRate"`
	CleaningFeeMin       string `yaml:"cleaningFeeMin"`
	RegistrationFee      string `yaml:"registrationFee"`
	DocumentationFee     string `yaml:"documentationFee"`
	EnergyCertificateFee string `yaml:"energyCertificateFee"`
	BankValuationFee     string `yaml:"bankValuationFee"`
	BankProcessingFee    string `yaml:"bankProcessingFee"`
	HoldingMonthlyCost   string `yaml:"holdingMonthlyCost"`
}

type rawBracket struct {
	UpTo      string `yaml:"upTo"`
	Rate      string `yaml:"rate"`
	Abatement string `yaml:"abatement"`
}

type rawRegion struct {
	Code                  string `yaml:"code"`
	Name                  string `yaml:"name"`
	IMTSchedule           string `yaml:"imtSchedule"`
	AverageCommissionRate string `yaml:"averageCommissionRate"`
	AveragePricePerSqm    string `yaml:"averagePricePerSqm"`
	IMIRate               string `yaml:"imiRate"`
}

func (f rawFees) convert() (domain.FeeSchedule, error) {
	var (
		fees domain.FeeSchedule
		err  error
	)
	if fees.StampDutyRate, err = parseDecimal("stampDutyRate", f.StampDutyRate); err != nil {
		return fees, err
	}
	if fees.LoanStampDutyRate, err = parseDecimal("loanStampDutyRate", f.LoanStampDutyRate); err != nil {
		return fees, err
	}
	if fees.CapitalGainsRate, err = parseDecimal("capitalGainsRate", f.CapitalGainsRate); err != nil {
		return fees, err
	}
	if fees.NotaryRate, err = parseDecimal("notaryRate", f.NotaryRate); err != nil {
		return fees, err
	}
	if fees.NotaryFeeMin, err = parseDecimal("notaryFeeMin", f.NotaryFeeMin); err != nil {
		return fees, err
	}
	if fees.NotaryFeeMax, err = parseDecimal("notaryFeeMax", f.NotaryFeeMax); err != nil {
		return fees, err
	}
	if fees.CleaningRate, err = parseDecimal("cleaningRate", f.CleaningRate); err != nil {
		return fees, err
	}
	if fees.CleaningFeeMin, err = parseDecimal("cleaningFeeMin", f.CleaningFeeMin); err != nil {
		return fees, err
	}
	if fees.RegistrationFee, err = parseDecimal("registrationFee", f.RegistrationFee); err != nil {
		return fees, err
	}
	if fees.DocumentationFee, err = parseDecimal("documentationFee", f.DocumentationFee); err != nil {
		return fees, err
	}
	if fees.EnergyCertificateFee, err = parseDecimal("energyCertificateFee", f.EnergyCertificateFee); err != nil {
		return fees, err
	}
	if fees.BankValuationFee, err = parseDecimal("bankValuationFee", f.BankValuationFee); err != nil {
		return fees, err
	}
	if fees.BankProcessingFee, err = parseDecimal("bankProcessingFee", f.BankProcessingFee); err != nil {
		return fees, err
	}
	if fees.HoldingMonthlyCost, err = parseDecimal("holdingMonthlyCost", f.HoldingMonthlyCost); err != nil {
		return fees, err
	}
	if f.ExemptionYears <= 0 {
		return fees, fmt.Errorf("exemptionYears must be positive")
	}
	fees.ExemptionYears = f.ExemptionYears
	return fees, nil
}

func (b rawBracket) convert() (domain.IMTBracket, error) {
	var (
		out domain.IMTBracket
		err error
	)
	if out.UpTo, err = parseDecimal("upTo", b.UpTo); err != nil {
		return out, err
	}
	if out.Rate, err = parseDecimal("rate", b.Rate); err != nil {
		return out, err
	}
	if out.Abatement, err = parseDecimal("abatement", b.Abatement); err != nil {
		return out, err
	}
	return out, nil
}

func (r rawRegion) convert() (domain.RegionRates, error) {
	var (
		out domain.RegionRates
		err error
	)
	if r.Code == "" {
		return out, fmt.Errorf("missing region code")
	}
	if r.Name == "" {
		return out, fmt.Errorf("missing region name")
	}
	out.Code = domain.RegionCode(r.Code)
	out.Name = r.Name
	out.IMTSchedule = domain.IMTScheduleID(r.IMTSchedule)
	if out.AverageCommissionRate, err = parseDecimal("averageCommissionRate", r.AverageCommissionRate); err != nil {
		return out, err
	}
	if out.AveragePricePerSqm, err = parseDecimal("averagePricePerSqm", r.AveragePricePerSqm); err != nil {
		return out, err
	}
	if out.IMIRate, err = parseDecimal("imiRate", r.IMIRate); err != nil {
		return out, err
	}
	return out, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("missing %s", field)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
