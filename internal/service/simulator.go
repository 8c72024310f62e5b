package service

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/metrics"
)

// ----------- Simulation catalogue -----------
const (
	SimFridges  = 5   // fridge ids 1..SimFridges
	SimMaxValue = 2.0 // readings fall in [-SimMaxValue, SimMaxValue)
)

// SimInstruments and SimParameters are the names synthetic readings draw from.
var (
	SimInstruments = []string{
		"instrument_one", "instrument_two", "instrument_three", "instrument_four", "instrument_five",
	}
	SimParameters = []string{
		"flux_bias", "temperature", "power_level", "current_bias", "voltage",
	}
)

// SimulatorService stores one synthetic reading per tick.
type SimulatorService struct {
	records *RecordsService
	rng     *rand.Rand
}

// NewSimulatorService returns a simulator writing through records.
func NewSimulatorService(records *RecordsService) *SimulatorService {
	return &SimulatorService{
		records: records,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			// a failed insert is retried on the next tick with a fresh reading
			_, _ = s.records.add(ctx, s.next(now), metrics.SourceSimulator)
		}
	}
}

// next draws a reading stamped with now.
func (s *SimulatorService) next(now time.Time) fridge_monitor.Record {
	value := (s.rng.Float64()*2 - 1) * SimMaxValue
	return fridge_monitor.Record{
		FridgeID:       1 + s.rng.IntN(SimFridges),
		InstrumentName: SimInstruments[s.rng.IntN(len(SimInstruments))],
		ParameterName:  SimParameters[s.rng.IntN(len(SimParameters))],
		AppliedValue:   math.Round(value*100) / 100,
		Timestamp:      now.UnixMilli(),
	}
}
