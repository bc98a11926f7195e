// Package rating holds the pure shipment math: volumetric and chargeable
// weight, shipment value, unit conversion and the export declaration
// surcharge. Nothing here performs I/O.
package rating

import (
	"strconv"
	"strings"
)

// UnitSystem selects the weight/dimension units the form is filled in with.
type UnitSystem int

const (
	// MetricKgCm is kilograms and centimeters, volumetric divisor 5000.
	MetricKgCm UnitSystem = iota
	// ImperialLbIn is pounds and inches, volumetric divisor 306.
	ImperialLbIn
)

const (
	metricDivisor   = 5000
	imperialDivisor = 306

	poundsPerKilogram  = 0.453592
	centimetersPerInch = 2.54
)

func (u UnitSystem) String() string {
	if u == ImperialLbIn {
		return "lb/in"
	}
	return "kg/cm"
}

// WeightUnit is the unit label for chargeable weights in this system.
func (u UnitSystem) WeightUnit() string {
	if u == ImperialLbIn {
		return "lb"
	}
	return "kg"
}

func (u UnitSystem) divisor() float64 {
	if u == ImperialLbIn {
		return imperialDivisor
	}
	return metricDivisor
}

// VolumetricWeight returns (l x b x h) / divisor, or 0 when any dimension is
// missing or non-positive.
func VolumetricWeight(length, breadth, height float64, unit UnitSystem) float64 {
	if length <= 0 || breadth <= 0 || height <= 0 {
		return 0
	}
	return (length * breadth * height) / unit.divisor()
}

// ChargeableWeight is the carrier billing basis for a single package unit:
// the greater of its actual and volumetric weight.
func ChargeableWeight(actual, length, breadth, height float64, unit UnitSystem) float64 {
	if actual < 0 {
		actual = 0
	}
	volumetric := VolumetricWeight(length, breadth, height, unit)
	if actual > volumetric {
		return actual
	}
	return volumetric
}

// BoxDims is the numeric view of one package row.
type BoxDims struct {
	Quantity     int
	ActualWeight float64
	Length       float64
	Breadth      float64
	Height       float64
}

// Chargeable returns the box's total chargeable weight, per-unit chargeable
// times quantity. A quantity below 1 counts as 1.
func (b BoxDims) Chargeable(unit UnitSystem) float64 {
	qty := b.Quantity
	if qty < 1 {
		qty = 1
	}
	return ChargeableWeight(b.ActualWeight, b.Length, b.Breadth, b.Height, unit) * float64(qty)
}

// AggregateChargeableWeight sums chargeable weight over all boxes.
func AggregateChargeableWeight(boxes []BoxDims, unit UnitSystem) float64 {
	var total float64
	for _, box := range boxes {
		total += box.Chargeable(unit)
	}
	return total
}

// ValueLine is one product line for shipment value purposes.
type ValueLine struct {
	UnitPrice float64
	Quantity  int
}

// ShipmentValue sums unit price times quantity over all lines. Negative
// inputs count as 0, matching the coercion rule for invalid form input.
func ShipmentValue(lines []ValueLine) float64 {
	var total float64
	for _, line := range lines {
		price := line.UnitPrice
		if price < 0 {
			price = 0
		}
		qty := line.Quantity
		if qty < 0 {
			qty = 0
		}
		total += price * float64(qty)
	}
	return total
}

// PoundsToKilograms converts for the collaborator API, which prices in kg.
func PoundsToKilograms(lb float64) float64 {
	return lb * poundsPerKilogram
}

// InchesToCentimeters converts for the collaborator API, which expects cm.
func InchesToCentimeters(in float64) float64 {
	return in * centimetersPerInch
}

// Number coerces a form input to a float. Empty or malformed input is 0.
func Number(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Integer coerces a form input to an int. Empty or malformed input is 0.
func Integer(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Tolerate "2.0" style input the way the form layer always has.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return v
}
