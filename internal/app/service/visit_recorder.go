package service

import (
	"context"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
)

// VisitRecorder persists public menu page views.
type VisitRecorder interface {
	Record(ctx context.Context, visit model.Visit) error
}

type dbVisitRecorder struct {
	visitRepo repository.VisitRepository
}

// NewDBVisitRecorder writes visits straight to the database.
func NewDBVisitRecorder(visitRepo repository.VisitRepository) VisitRecorder {
	return &dbVisitRecorder{visitRepo: visitRepo}
}

func (r *dbVisitRecorder) Record(ctx context.Context, visit model.Visit) error {
	return r.visitRepo.Create(&visit)
}
