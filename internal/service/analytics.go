package service

import (
	"context"

	"fridge_monitor"
	"fridge_monitor/internal/repository"
)

type AnalyticsService struct {
	repo repository.RecordRepo
}

func NewAnalyticsService(repo repository.RecordRepo) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Summary returns the aggregate statistics. Group maps are never nil so they
// encode as {} rather than null.
func (s *AnalyticsService) Summary(ctx context.Context) (fridge_monitor.Analytics, error) {
	a, err := s.repo.Stats(ctx)
	if err != nil {
		return fridge_monitor.Analytics{}, err
	}
	if a.ByFridge == nil {
		a.ByFridge = map[string]fridge_monitor.GroupStats{}
	}
	if a.ByInstrument == nil {
		a.ByInstrument = map[string]fridge_monitor.GroupStats{}
	}
	if a.ByParameter == nil {
		a.ByParameter = map[string]fridge_monitor.GroupStats{}
	}
	return a, nil
}
