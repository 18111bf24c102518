package observation

import "fmt"

// latestResponse is the subset of the weather.gov latest-observation
// GeoJSON the widget reads. Every level is optional; the API omits or nulls
// values for stations with failed sensors.
type latestResponse struct {
	Properties *properties `json:"properties"`
}

type properties struct {
	Temperature     *quantitativeValue `json:"temperature"`
	TextDescription *string            `json:"textDescription"`
}

type quantitativeValue struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

// APIError is a non-2xx answer from the observation API. weather.gov sends
// application/problem+json bodies; Title and Detail are empty when it did not.
type APIError struct {
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Detail)
	case e.Title != "":
		return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Title)
	default:
		return fmt.Sprintf("API error (HTTP %d)", e.StatusCode)
	}
}
