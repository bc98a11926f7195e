package rating

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestVolumetricWeight(t *testing.T) {
	tests := []struct {
		name     string
		length   float64
		breadth  float64
		height   float64
		unit     UnitSystem
		expected float64
	}{
		{
			name:     "metric_divisor_5000",
			length:   50,
			breadth:  40,
			height:   30,
			unit:     MetricKgCm,
			expected: 12,
		},
		{
			name:     "imperial_divisor_306",
			length:   20,
			breadth:  15,
			height:   10.2,
			unit:     ImperialLbIn,
			expected: 10,
		},
		{
			name:     "zero_length_yields_zero",
			length:   0,
			breadth:  40,
			height:   30,
			unit:     MetricKgCm,
			expected: 0,
		},
		{
			name:     "negative_dimension_yields_zero",
			length:   50,
			breadth:  -1,
			height:   30,
			unit:     MetricKgCm,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VolumetricWeight(tt.length, tt.breadth, tt.height, tt.unit)
			if !almostEqual(got, tt.expected) {
				t.Errorf("VolumetricWeight() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestChargeableWeight(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		length   float64
		breadth  float64
		height   float64
		unit     UnitSystem
		expected float64
	}{
		{
			name:     "actual_wins_over_volumetric",
			actual:   5,
			length:   10,
			breadth:  10,
			height:   10,
			unit:     MetricKgCm,
			expected: 5, // volumetric is 0.2
		},
		{
			name:     "volumetric_wins_over_actual",
			actual:   0,
			length:   50,
			breadth:  50,
			height:   50,
			unit:     MetricKgCm,
			expected: 25,
		},
		{
			name:     "no_dimensions_uses_actual",
			actual:   3.5,
			unit:     MetricKgCm,
			expected: 3.5,
		},
		{
			name:     "negative_actual_counts_as_zero",
			actual:   -2,
			length:   10,
			breadth:  10,
			height:   10,
			unit:     MetricKgCm,
			expected: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChargeableWeight(tt.actual, tt.length, tt.breadth, tt.height, tt.unit)
			if !almostEqual(got, tt.expected) {
				t.Errorf("ChargeableWeight() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestBoxChargeableMultipliesByQuantity(t *testing.T) {
	box := BoxDims{Quantity: 3, ActualWeight: 2, Length: 50, Breadth: 40, Height: 30}
	// per-unit volumetric 12 beats actual 2, times quantity 3
	if got := box.Chargeable(MetricKgCm); !almostEqual(got, 36) {
		t.Errorf("Chargeable() = %v, expected 36", got)
	}
}

func TestBoxChargeableQuantityFloor(t *testing.T) {
	box := BoxDims{Quantity: 0, ActualWeight: 4}
	if got := box.Chargeable(MetricKgCm); !almostEqual(got, 4) {
		t.Errorf("Chargeable() with zero quantity = %v, expected 4", got)
	}
}

func TestAggregateChargeableWeight(t *testing.T) {
	boxes := []BoxDims{
		{Quantity: 1, ActualWeight: 5},
		{Quantity: 2, ActualWeight: 1, Length: 50, Breadth: 40, Height: 30},
	}
	if got := AggregateChargeableWeight(boxes, MetricKgCm); !almostEqual(got, 29) {
		t.Errorf("AggregateChargeableWeight() = %v, expected 29", got)
	}
}

func TestShipmentValue(t *testing.T) {
	lines := []ValueLine{
		{UnitPrice: 10.5, Quantity: 2},
		{UnitPrice: 100, Quantity: 1},
		{UnitPrice: -5, Quantity: 3},  // invalid price counts as 0
		{UnitPrice: 20, Quantity: -1}, // invalid quantity counts as 0
	}
	if got := ShipmentValue(lines); !almostEqual(got, 121) {
		t.Errorf("ShipmentValue() = %v, expected 121", got)
	}
}

func TestUnitConversions(t *testing.T) {
	if got := PoundsToKilograms(10); !almostEqual(got, 4.53592) {
		t.Errorf("PoundsToKilograms(10) = %v, expected 4.53592", got)
	}
	if got := InchesToCentimeters(10); !almostEqual(got, 25.4) {
		t.Errorf("InchesToCentimeters(10) = %v, expected 25.4", got)
	}
}

func TestNumberCoercion(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"12.5", 12.5},
		{" 3 ", 3},
		{"", 0},
		{"abc", 0},
		{"-1.5", -1.5},
	}

	for _, tt := range tests {
		if got := Number(tt.input); !almostEqual(got, tt.expected) {
			t.Errorf("Number(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestIntegerCoercion(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"4", 4},
		{"2.0", 2},
		{"2.9", 2},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		if got := Integer(tt.input); got != tt.expected {
			t.Errorf("Integer(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}
