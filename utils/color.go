package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsHexColor reports whether s is a #rrggbb color.
func IsHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// AdjustColor scales each channel of a #rrggbb color by (1 + percent/100),
// flooring and capping at 255. Inputs that are not #rrggbb are returned unchanged.
func AdjustColor(hex string, percent float64) string {
	if !IsHexColor(hex) {
		return hex
	}
	out := "#"
	for i := 1; i < 7; i += 2 {
		v, _ := strconv.ParseUint(hex[i:i+2], 16, 8)
		c := math.Floor(float64(v) * (1 + percent/100))
		if c > 255 {
			c = 255
		}
		if c < 0 {
			c = 0
		}
		out += fmt.Sprintf("%02x", int(c))
	}
	return out
}
