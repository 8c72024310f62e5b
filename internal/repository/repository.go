package repository

import (
	"context"
	"database/sql"

	"fridge_monitor"
	"fridge_monitor/internal/models"
)

type RecordRepo interface {
	Insert(ctx context.Context, rec fridge_monitor.Record) error
	List(ctx context.Context, q models.RecordQuery) ([]fridge_monitor.Record, int, error)
	Stats(ctx context.Context) (fridge_monitor.Analytics, error)
}

type Repository struct {
	Records RecordRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Records: NewRecordSQLite(db),
	}
}
