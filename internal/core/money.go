// Package core holds the domain model and the aggregation functions the
// dashboard is computed from. Everything here is pure: no I/O, no clocks
// beyond explicit parameters.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Money is an amount of rupiah in whole units. Rupiah has no minor unit in
// practice, so the fixed point sits at the unit boundary; keeping an integer
// avoids float summation drift across aggregation passes.
type Money struct {
	Units int64
}

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Units: m.Units + o.Units}
}

// ParseAmount converts a user-typed currency string to whole rupiah units.
// Formatting noise ("Rp", spaces, dot thousands separators) is stripped; a
// decimal comma is honored and rounded half away from zero. Malformed input
// yields 0 rather than an error so bad data never aborts a write path.
//
//	ParseAmount("Rp 1.000.000") -> 1000000
//	ParseAmount("12500")        -> 12500
//	ParseAmount("7,5")          -> 8
//	ParseAmount("abc")          -> 0
func ParseAmount(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Replace(b.String(), ",", ".", 1)
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Round(f))
}

// FormatRupiah renders whole rupiah units with dot thousands separators,
// matching the id-ID locale ("Rp 1.000.000"). Display only; calculations
// stay on integer units.
func FormatRupiah(units int64) string {
	neg := units < 0
	if neg {
		units = -units
	}
	digits := strconv.FormatInt(units, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	s := "Rp " + strings.Join(groups, ".")
	if neg {
		return "-" + s
	}
	return s
}
