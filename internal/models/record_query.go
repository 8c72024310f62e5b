package models

// Listing bounds for /fridges and /settings.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// RecordQuery selects one page of readings. Empty filter fields match
// everything; FridgeID matches as a substring of the decimal id and the
// name fields match case-insensitively.
type RecordQuery struct {
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
	FridgeID       string `form:"fridge_id"`
	InstrumentName string `form:"instrument_name"`
	ParameterName  string `form:"parameter_name"`
}

// Normalize clamps Page to >= 1 and Limit to [1, MaxLimit], defaulting an
// unset limit to DefaultLimit.
func (q RecordQuery) Normalize() RecordQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	return q
}

// Offset is the number of rows skipped before the page.
func (q RecordQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
