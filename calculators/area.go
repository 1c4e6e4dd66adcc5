package calculators

import (
	"errors"
	"fmt"
)

var ErrUnknownUnit = errors.New("unknown area unit")

// Unit is a named area unit expressed in square feet.
type Unit struct {
	Name       string  `json:"name"`
	SquareFeet float64 `json:"squareFeet"`
}

// Units keeps the order the converter offers them in.
var Units = []Unit{
	{"Square Feet", 1},
	{"Square Yard", 9},
	{"Square Meter", 10.76},
	{"Acre", 43560},
	{"Hectare", 107639},
	{"Gaj", 9},
	{"Bigha (Pucca)", 27225},
	{"Ground", 2400},
}

func factor(name string) (float64, error) {
	for _, u := range Units {
		if u.Name == name {
			return u.SquareFeet, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
}

// ConvertArea converts value from one unit to another through the square-feet base.
func ConvertArea(value float64, from, to string) (float64, error) {
	f, err := factor(from)
	if err != nil {
		return 0, err
	}
	t, err := factor(to)
	if err != nil {
		return 0, err
	}
	return value * f / t, nil
}
