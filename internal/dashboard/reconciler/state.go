package reconciler

import (
	"fridge_monitor"
	"fridge_monitor/internal/dashboard/filter"
)

// Mode selects the data source feeding the buffer.
type Mode int

const (
	ModeHistorical Mode = iota
	ModeLive
)

func (m Mode) String() string {
	switch m {
	case ModeHistorical:
		return "historical"
	case ModeLive:
		return "live"
	default:
		return "unknown"
	}
}

// State is the reconciler's position in its state machine.
type State int

const (
	StateHistoricalIdle State = iota
	StateHistoricalLoading
	StateLive
)

func (s State) String() string {
	switch s {
	case StateHistoricalIdle:
		return "historical-idle"
	case StateHistoricalLoading:
		return "historical-loading"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the reconciler's view state.
type Snapshot struct {
	State    State
	Mode     Mode
	Criteria filter.Criteria

	Page     int
	PageSize int
	HasMore  bool
	Total    int

	// Buffer is the authoritative record set; Display is Buffer filtered by
	// Criteria, in Buffer order.
	Buffer  []fridge_monitor.Record
	Display []fridge_monitor.Record

	LastErr       error
	LiveConnected bool
	// Discarded counts fetch results and live messages dropped as stale.
	Discarded uint64
}
