package schemas

import "time"

const (
	MinDateBoundHeader = "x-min-date-from"
	MaxDateBoundHeader = "x-max-date-till"
)

// DateBounds is the date range covered by a listing. A nil bound means the listing is empty.
type DateBounds struct {
	Min *time.Time `json:"x-min-date-from,omitempty"`
	Max *time.Time `json:"x-max-date-till,omitempty"`
}

// Headers renders the set bounds as RFC 3339 response headers.
func (b DateBounds) Headers() map[string]string {
	headers := make(map[string]string, 2)
	if b.Min != nil {
		headers[MinDateBoundHeader] = b.Min.UTC().Format(time.RFC3339)
	}
	if b.Max != nil {
		headers[MaxDateBoundHeader] = b.Max.UTC().Format(time.RFC3339)
	}
	return headers
}
