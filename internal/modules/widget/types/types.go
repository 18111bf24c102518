package types

// StationKey is the preference holding the weather.gov station identifier.
const StationKey = "Station"

// Preferences maps preference names to values as supplied by the
// configuration source.
type Preferences map[string]string

// Station returns the configured station id, or "" if unset.
func (p Preferences) Station() string {
	return p[StationKey]
}

// Preference is one stored name/value pair.
type Preference struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Observation is the slice of a station's latest observation the widget
// renders. TemperatureC is nil when the station reports no value.
type Observation struct {
	Station      string
	TemperatureC *float64
	Description  string
}

// State is the widget lifecycle position for one page load.
type State int

const (
	StateUninitialized State = iota
	StateFetching
	StateRendered
	StateErrorDisplayed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateFetching:
		return "fetching"
	case StateRendered:
		return "rendered"
	case StateErrorDisplayed:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateRendered || s == StateErrorDisplayed
}
