// internal/repository/interfaces.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"receipt-service/internal/model"
)

// JobRepository persists the print job journal
type JobRepository interface {
	Create(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	Update(ctx context.Context, job *model.PrintJob) error
	List(ctx context.Context, limit, offset int) ([]*model.PrintJob, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
