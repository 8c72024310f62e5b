package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/metrics"
	"fridge_monitor/internal/models"
	"fridge_monitor/internal/repository"
)

// ErrInvalidRecord rejects readings that cannot be stored.
var ErrInvalidRecord = errors.New("invalid record")

type RecordsService struct {
	repo repository.RecordRepo
	hub  Broadcaster
	now  func() time.Time
}

func NewRecordsService(repo repository.RecordRepo, hub Broadcaster) *RecordsService {
	return &RecordsService{repo: repo, hub: hub, now: time.Now}
}

// List returns one page of readings; Fridges is never nil.
func (s *RecordsService) List(ctx context.Context, q models.RecordQuery) (fridge_monitor.FridgePage, error) {
	records, total, err := s.repo.List(ctx, q.Normalize())
	if err != nil {
		return fridge_monitor.FridgePage{}, err
	}
	if records == nil {
		records = []fridge_monitor.Record{}
	}
	return fridge_monitor.FridgePage{Fridges: records, Total: total}, nil
}

// Add validates and stores rec, then publishes it to live subscribers. A zero
// timestamp is replaced with the current time.
func (s *RecordsService) Add(ctx context.Context, rec fridge_monitor.Record) (fridge_monitor.Record, error) {
	return s.add(ctx, rec, metrics.SourceAPI)
}

func (s *RecordsService) add(ctx context.Context, rec fridge_monitor.Record, source string) (fridge_monitor.Record, error) {
	rec, err := s.normalize(rec)
	if err != nil {
		return fridge_monitor.Record{}, err
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return fridge_monitor.Record{}, err
	}
	metrics.ReadingsInserted.WithLabelValues(source).Inc()
	if s.hub != nil {
		s.hub.Publish(rec)
	}
	return rec, nil
}

func (s *RecordsService) normalize(rec fridge_monitor.Record) (fridge_monitor.Record, error) {
	rec.InstrumentName = strings.TrimSpace(rec.InstrumentName)
	rec.ParameterName = strings.TrimSpace(rec.ParameterName)
	switch {
	case rec.FridgeID <= 0:
		return rec, fmt.Errorf("%w: fridge_id must be positive", ErrInvalidRecord)
	case rec.InstrumentName == "":
		return rec, fmt.Errorf("%w: instrument_name is required", ErrInvalidRecord)
	case rec.ParameterName == "":
		return rec, fmt.Errorf("%w: parameter_name is required", ErrInvalidRecord)
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = s.now().UnixMilli()
	}
	return rec, nil
}
