// Package core holds the donation domain: validation, weight conversion and
// the aggregate snapshot shown on the dashboard.
//
// All kilogram to pound conversion happens in this file. Storage sums raw
// kilograms and hands them to BuildSnapshot, which converts each figure once.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var poundsPerKilogram = decimal.RequireFromString("2.20462")

// KilogramsToPounds converts kg to lbs and rounds half away from zero to two
// decimal places.
//
// Examples:
//
//	KilogramsToPounds(5)  -> 11.02
//	KilogramsToPounds(10) -> 22.05
func KilogramsToPounds(kg float64) float64 {
	return decimal.NewFromFloat(kg).Mul(poundsPerKilogram).Round(2).InexactFloat64()
}

// ParseKilograms reads a weight typed into the admin form. Both "2.5" and
// "2,5" are accepted. Only malformed input is rejected here; zero and
// negative amounts parse so that Donation.Validate reports the minimum.
func ParseKilograms(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// GoalProgress returns how far totalLbs is towards goalLbs as a percentage,
// capped at 100 and rounded to one decimal place.
func GoalProgress(totalLbs, goalLbs float64) float64 {
	if goalLbs <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(totalLbs).
		Div(decimal.NewFromFloat(goalLbs)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return pct.InexactFloat64()
}
