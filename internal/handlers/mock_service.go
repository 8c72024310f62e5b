package handlers

import (
	"context"

	"fridge_monitor"
	"fridge_monitor/internal/models"
	"fridge_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockRecords struct {
	page    fridge_monitor.FridgePage
	listErr error
	addErr  error

	lastQuery models.RecordQuery
	lastAdd   fridge_monitor.Record
	listCalls int
	addCalls  int
}

func (m *mockRecords) List(ctx context.Context, q models.RecordQuery) (fridge_monitor.FridgePage, error) {
	m.listCalls++
	m.lastQuery = q
	return m.page, m.listErr
}

func (m *mockRecords) Add(ctx context.Context, rec fridge_monitor.Record) (fridge_monitor.Record, error) {
	m.addCalls++
	m.lastAdd = rec
	if m.addErr != nil {
		return fridge_monitor.Record{}, m.addErr
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = 1
	}
	return rec, nil
}

type mockAnalytics struct {
	resp fridge_monitor.Analytics
	err  error
}

func (m *mockAnalytics) Summary(ctx context.Context) (fridge_monitor.Analytics, error) {
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts...)
	return h.InitRoutes()
}
