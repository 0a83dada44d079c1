package venue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/lattice-markets/limitbook/pkg/core"
)

// scaleDecimal converts a venue decimal string into the engine's internal
// fixed-point representation, scaled by core.ScaleFactor with round-half-up
// on any digits beyond what the scale factor can hold. It round-trips
// through fpdecimal.FromString/String rather than trusting the wire
// string directly, so malformed venue payloads are rejected the same way
// the rest of the corpus validates decimal input.
func scaleDecimal(raw string) (uint64, error) {
	d, err := fpdecimal.FromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", raw, err)
	}
	return scaleDecimalString(d.String())
}

// scaleDecimalString scales a canonical decimal string ("123.456") into a
// core.ScaleFactor-scaled integer, rounding half away from zero on any
// fractional digits beyond the eight the scale factor supports.
func scaleDecimalString(s string) (uint64, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		return 0, fmt.Errorf("negative decimal %q not valid for price/quantity", s)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}

	const scaleDigits = 8 // log10(core.ScaleFactor)

	roundUp := false
	if len(frac) > scaleDigits {
		if frac[scaleDigits] >= '5' {
			roundUp = true
		}
		frac = frac[:scaleDigits]
	}
	for len(frac) < scaleDigits {
		frac += "0"
	}

	digits := whole + frac
	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("scale decimal %q: %w", s, err)
	}
	if roundUp {
		value++
	}
	return value, nil
}

// scalePrice and scaleQuantity are thin wrappers documenting intent at
// call sites; both venue prices and quantities share the same scale.
func scalePrice(raw string) (core.Price, error) {
	v, err := scaleDecimal(raw)
	return core.Price(v), err
}

func scaleQuantity(raw string) (core.Quantity, error) {
	v, err := scaleDecimal(raw)
	return core.Quantity(v), err
}
