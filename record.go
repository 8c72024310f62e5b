package fridge_monitor

import "strconv"

// Record is a single fridge telemetry reading as served by the monitoring backend.
type Record struct {
	FridgeID       int     `json:"fridge_id"`
	InstrumentName string  `json:"instrument_name"`
	ParameterName  string  `json:"parameter_name"`
	AppliedValue   float64 `json:"applied_value"`
	Timestamp      int64   `json:"timestamp"` // epoch millis
}

// Key identifies a record for keyed rendering: "<fridge_id>-<timestamp>".
// The backend does not guarantee uniqueness of this pair.
func (r Record) Key() string {
	return strconv.Itoa(r.FridgeID) + "-" + strconv.FormatInt(r.Timestamp, 10)
}

// FridgePage is one page of the historical listing.
type FridgePage struct {
	Fridges []Record `json:"fridges"`
	Total   int      `json:"total"`
}

// GroupStats summarizes the readings that share a grouping key.
type GroupStats struct {
	Count    int     `json:"count"`
	AvgValue float64 `json:"avgValue"`
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
}

// OverallStats summarizes every stored reading.
type OverallStats struct {
	TotalRecords int     `json:"totalRecords"`
	AvgValue     float64 `json:"avgValue"`
	MinValue     float64 `json:"minValue"`
	MaxValue     float64 `json:"maxValue"`
}

// Analytics is the precomputed summary served by /analytics.
type Analytics struct {
	ByFridge     map[string]GroupStats `json:"byFridge"`
	ByInstrument map[string]GroupStats `json:"byInstrument"`
	ByParameter  map[string]GroupStats `json:"byParameter"`
	Overall      OverallStats          `json:"overall"`
}
