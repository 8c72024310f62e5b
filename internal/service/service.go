package service

import (
	"context"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/models"
	"fridge_monitor/internal/repository"
)

// Records lists and stores readings.
type Records interface {
	List(ctx context.Context, q models.RecordQuery) (fridge_monitor.FridgePage, error)
	Add(ctx context.Context, rec fridge_monitor.Record) (fridge_monitor.Record, error)
}

// Analytics exposes the aggregate summary.
type Analytics interface {
	Summary(ctx context.Context) (fridge_monitor.Analytics, error)
}

// Broadcaster fans new readings out to live subscribers.
type Broadcaster interface {
	Subscribe() (id string, ch <-chan fridge_monitor.Record, cancel func())
	Publish(rec fridge_monitor.Record)
}

// Simulator runs the background loop that produces synthetic readings.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Records
	Analytics
	Broadcaster
	Simulator
}

// NewService wires the repository layer and the broadcast hub into concrete
// services.
func NewService(repos *repository.Repository, hub Broadcaster) *Service {
	records := NewRecordsService(repos.Records, hub)
	return &Service{
		Records:     records,
		Analytics:   NewAnalyticsService(repos.Records),
		Broadcaster: hub,
		Simulator:   NewSimulatorService(records),
	}
}
