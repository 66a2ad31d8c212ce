// Package domain contains core business types and interfaces.
//
// This file defines region codes and the rate-table types the calculation
// engine consumes. Tables are immutable reference data loaded at startup;
// they are injected into the engine rather than read from globals so tests
// and future jurisdiction updates can swap them out.
package domain

import (
	"github.com/shopspring/decimal"
)

// RegionCode identifies a Portuguese region in the rate tables.
type RegionCode string

// IMTScheduleID selects which IMT bracket schedule applies to a region.
// The autonomous regions (Madeira, Açores) have higher bracket thresholds.
type IMTScheduleID string

const (
	IMTScheduleMainland IMTScheduleID = "mainland"
	IMTScheduleIslands  IMTScheduleID = "islands"
)

// IMTBracket is one step of the IMT schedule. Portuguese IMT is computed
// as value*rate - abatement within the matching bracket; the top brackets
// are flat single rates with no abatement.
type IMTBracket struct {
	UpTo      decimal.Decimal `yaml:"upTo" json:"upTo"` // Zero means no upper bound
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
	Abatement decimal.Decimal `yaml:"abatement" json:"abatement"`
}

// RegionRates holds per-region reference data.
type RegionRates struct {
	Code                  RegionCode      `yaml:"code" json:"code"`
	Name                  string          `yaml:"name" json:"name"`
	IMTSchedule           IMTScheduleID   `yaml:"imtSchedule" json:"imtSchedule"`
	AverageCommissionRate decimal.Decimal `yaml:"averageCommissionRate" json:"averageCommissionRate"`
	AveragePricePerSqm    decimal.Decimal `yaml:"averagePricePerSqm" json:"averagePricePerSqm"`
	IMIRate               decimal.Decimal `yaml:"imiRate" json:"imiRate"`
}

// FeeSchedule holds the jurisdiction-wide fixed fees and rates shared by
// all regions.
type FeeSchedule struct {
	StampDutyRate        decimal.Decimal `yaml:"stampDutyRate" json:"stampDutyRate"`               // On purchase price
	LoanStampDutyRate    decimal.Decimal `yaml:"loanStampDutyRate" json:"loanStampDutyRate"`       // On mortgage principal
	CapitalGainsRate     decimal.Decimal `yaml:"capitalGainsRate" json:"capitalGainsRate"`
	ExemptionYears       int             `yaml:"exemptionYears" json:"exemptionYears"` // Main-residence holding period
	NotaryRate           decimal.Decimal `yaml:"notaryRate" json:"notaryRate"` // Of property value, clamped below
	NotaryFeeMin         decimal.Decimal `yaml:"notaryFeeMin" json:"notaryFeeMin"`
	NotaryFeeMax         decimal.Decimal `yaml:"notaryFeeMax" json:"notaryFeeMax"`
	CleaningRate         decimal.Decimal `yaml:"cleaningRate" json:"cleaningRate"` // Of property value, floored below
	CleaningFeeMin       decimal.Decimal `yaml:"cleaningFeeMin" json:"cleaningFeeMin"`
	RegistrationFee      decimal.Decimal `yaml:"registrationFee" json:"registrationFee"`
	DocumentationFee     decimal.Decimal `yaml:"documentationFee" json:"documentationFee"`
	EnergyCertificateFee decimal.Decimal `yaml:"energyCertificateFee" json:"energyCertificateFee"`
	BankValuationFee     decimal.Decimal `yaml:"bankValuationFee" json:"bankValuationFee"`
	BankProcessingFee    decimal.Decimal `yaml:"bankProcessingFee" json:"bankProcessingFee"`
	HoldingMonthlyCost   decimal.Decimal `yaml:"holdingMonthlyCost" json:"holdingMonthlyCost"` // Utilities etc. while flipping
}
