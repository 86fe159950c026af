package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pure pricing computations for membership billing. All amounts are integer
// minor-currency units; intermediate math uses decimals so no float ever
// touches money. Signup display and the actual first charge both go through
// these functions so the two cannot drift apart.

// ApplyDiscount reduces amount by percent (0-100), rounding half up to the
// nearest minor unit. Out-of-range percentages are clamped.
func ApplyDiscount(amount int64, percent int) int64 {
	if percent <= 0 {
		return amount
	}
	if percent >= 100 {
		return 0
	}
	d := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(int64(100 - percent))).
		Div(decimal.NewFromInt(100))
	return d.Round(0).IntPart()
}

// ProrateMonthly computes the first-payment amount for the remainder of the
// current billing month: baseFee scaled by remaining days (today inclusive)
// over the number of days in the month, then discounted.
func ProrateMonthly(baseFee int64, discountPercent int, now time.Time) int64 {
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	remaining := daysInMonth - now.Day() + 1
	prorated := decimal.NewFromInt(baseFee).
		Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Round(0).IntPart()
	return ApplyDiscount(prorated, discountPercent)
}

// ProrateAnnual computes the first-payment amount for the remainder of the
// current billing year: baseFee scaled by remaining days (today inclusive)
// over the number of days in the year, then discounted.
func ProrateAnnual(baseFee int64, discountPercent int, now time.Time) int64 {
	daysInYear := 365
	if isLeapYear(now.Year()) {
		daysInYear = 366
	}
	remaining := daysInYear - now.YearDay() + 1
	prorated := decimal.NewFromInt(baseFee).
		Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(daysInYear))).
		Round(0).IntPart()
	return ApplyDiscount(prorated, discountPercent)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
