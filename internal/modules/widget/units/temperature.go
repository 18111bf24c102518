package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidInput is returned for NaN or infinite temperatures.
var ErrInvalidInput = errors.New("invalid temperature input")

// DegreeSign follows every rendered temperature.
const DegreeSign = "°"

// CelsiusToFahrenheit converts and rounds half away from zero, so 0.5 goes
// to 1 and -0.5 goes to -1.
func CelsiusToFahrenheit(celsius float64) (int, error) {
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, celsius)
	}
	return int(math.Round(celsius*9/5 + 32)), nil
}

// FormatFahrenheit renders a whole-degree value the way the widget shows it, e.g. "70°".
func FormatFahrenheit(f int) string {
	return strconv.Itoa(f) + DegreeSign
}
