// Package domain contains core business types and interfaces.
//
// This file defines subscription tiers and the usage limits attached to
// each tier. Tier resolution (who the caller is, what they pay for) happens
// upstream; this service only consumes the resolved tier.
package domain

// SubscriptionTier identifies the caller's subscription level.
type SubscriptionTier string

const (
	TierAnonymous  SubscriptionTier = "anonymous"
	TierFree       SubscriptionTier = "free"
	TierRegistered SubscriptionTier = "registered"
	TierPro        SubscriptionTier = "pro"
)

// String returns the string representation of the tier.
func (t SubscriptionTier) String() string {
	return string(t)
}

// IsValid returns true if the tier is a recognized value.
func (t SubscriptionTier) IsValid() bool {
	switch t {
	case TierAnonymous, TierFree, TierRegistered, TierPro:
		return true
	}
	return false
}

// ParseTier maps a raw tier string (e.g. from an upstream header) to a
// SubscriptionTier. Unknown or empty values resolve to the anonymous tier
// so a misconfigured upstream can never grant extra quota.
func ParseTier(s string) SubscriptionTier {
	t := SubscriptionTier(s)
	if t.IsValid() {
		return t
	}
	return TierAnonymous
}

// TierLimits defines daily and short-window usage caps for a tier.
type TierLimits struct {
	DailyCalculations int  // Calculations per day; ignored when Unlimited
	PerMinute         int  // Sliding-window cap, requests per 60s
	PerHour           int  // Sliding-window cap, requests per 3600s
	Unlimited         bool // Pro tier has no daily cap (rate limits still apply)
}

// tierLimits is the fixed policy table. Anonymous and free share the same
// daily cap; registration buys a higher cap, pro removes it.
var tierLimits = map[SubscriptionTier]TierLimits{
	TierAnonymous: {
		DailyCalculations: 5,
		PerMinute:         3,
		PerHour:           10,
	},
	TierFree: {
		DailyCalculations: 5,
		PerMinute:         3,
		PerHour:           10,
	},
	TierRegistered: {
		DailyCalculations: 10,
		PerMinute:         5,
		PerHour:           20,
	},
	TierPro: {
		Unlimited: true,
		PerMinute: 10,
		PerHour:   100,
	},
}

// LimitsForTier returns the limits for a tier, defaulting to the anonymous
// tier for unknown tiers.
func LimitsForTier(tier SubscriptionTier) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[TierAnonymous]
}
