package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Unit is one of the closed set of measuring units used for pricing and recipes.
type Unit string

const (
	KG Unit = "KG"
	G  Unit = "G"
	L  Unit = "L"
	ML Unit = "ML"
	UD Unit = "UD"
)

// Dimension groups units that can be converted into each other.
type Dimension int

const (
	Unknown Dimension = iota
	Mass
	Volume
	Count
)

func (d Dimension) String() string {
	switch d {
	case Mass:
		return "mass"
	case Volume:
		return "volume"
	case Count:
		return "count"
	default:
		return "unknown"
	}
}

// ErrIncompatible is returned when two units do not share a dimension or one of them is not a known unit.
var ErrIncompatible = errors.New("units: incompatible units")

var all = []Unit{KG, G, L, ML, UD}

// factors are expressed relative to the base unit of each dimension (KG, L, UD).
var factors = map[Unit]float64{
	KG: 1,
	G:  0.001,
	L:  1,
	ML: 0.001,
	UD: 1,
}

var labels = map[Unit]string{
	KG: "Kilogramos",
	G:  "Gramos",
	L:  "Litros",
	ML: "Mililitros",
	UD: "Unidades",
}

// All returns every supported unit in display order.
func All() []Unit {
	result := make([]Unit, len(all))
	copy(result, all)
	return result
}

// Parse normalises the supplied value into a Unit.
func Parse(value string) (Unit, error) {
	u := Unit(strings.ToUpper(strings.TrimSpace(value)))
	if !u.Valid() {
		return "", fmt.Errorf("%w: unknown unit %q", ErrIncompatible, value)
	}
	return u, nil
}

// Valid reports whether u belongs to the closed set of units.
func (u Unit) Valid() bool {
	_, ok := factors[u]
	return ok
}

// Dimension returns the physical dimension of u, or Unknown.
func (u Unit) Dimension() Dimension {
	switch u {
	case KG, G:
		return Mass
	case L, ML:
		return Volume
	case UD:
		return Count
	default:
		return Unknown
	}
}

// Label returns the human readable name shown in the kitchen UI.
func (u Unit) Label() string {
	if label, ok := labels[u]; ok {
		return label
	}
	return string(u)
}

// Compatible reports whether a quantity in u can be expressed in other.
func (u Unit) Compatible(other Unit) bool {
	d := u.Dimension()
	return d != Unknown && d == other.Dimension()
}

// Convert expresses amount, measured in from, in the unit to.
// No density is ever assumed, so mass and volume never convert into each other.
func Convert(amount float64, from, to Unit) (float64, error) {
	if !from.Compatible(to) {
		return 0, fmt.Errorf("%w: %s to %s", ErrIncompatible, from, to)
	}
	if from == to {
		return amount, nil
	}
	return amount * factors[from] / factors[to], nil
}

// ConvertTo is Convert with a boolean result in place of the error.
func ConvertTo(amount float64, from, to Unit) (float64, bool) {
	converted, err := Convert(amount, from, to)
	if err != nil {
		return 0, false
	}
	return converted, true
}

// Format renders an amount followed by its unit symbol.
func Format(amount float64, unit Unit) string {
	return strconv.FormatFloat(amount, 'f', -1, 64) + " " + string(unit)
}
