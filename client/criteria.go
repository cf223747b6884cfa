package client

import (
	"net/url"
	"strconv"
)

// Criteria describes the filter and sort parameters for a task listing.
// Zero-valued fields are omitted from the query string, leaving the
// server defaults in effect.
type Criteria struct {
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// Values encodes the criteria as URL query parameters.
func (c Criteria) Values() url.Values {
	values := url.Values{}
	if c.Status != "" {
		values.Set("status", c.Status)
	}
	if c.Priority != "" {
		values.Set("priority", c.Priority)
	}
	if c.Search != "" {
		values.Set("search", c.Search)
	}
	if c.SortBy != "" {
		values.Set("sort_by", c.SortBy)
	}
	if c.SortOrder != "" {
		values.Set("sort_order", c.SortOrder)
	}
	if c.Limit > 0 {
		values.Set("limit", strconv.Itoa(c.Limit))
	}
	if c.Offset > 0 {
		values.Set("offset", strconv.Itoa(c.Offset))
	}
	return values
}
