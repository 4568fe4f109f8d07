package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

// BatchRunRepository defines data operations for persisted batch runs.
type BatchRunRepository interface {
	Create(ctx context.Context, run *models.BatchRun) error
	GetByID(ctx context.Context, id string) (models.BatchRun, error)
	List(ctx context.Context, limit, offset int) ([]models.BatchRun, int64, error)
}

type batchRunRepository struct {
	db *gorm.DB
}

// NewBatchRunRepository instantiates the repository.
func NewBatchRunRepository(db *gorm.DB) BatchRunRepository {
	return &batchRunRepository{db: db}
}

func (r *batchRunRepository) Create(ctx context.Context, run *models.BatchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *batchRunRepository) GetByID(ctx context.Context, id string) (models.BatchRun, error) {
	var run models.BatchRun
	if err := r.db.WithContext(ctx).
		Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&run, "id = ?", id).Error; err != nil {
		return models.BatchRun{}, err
	}

	return run, nil
}

func (r *batchRunRepository) List(ctx context.Context, limit, offset int) ([]models.BatchRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BatchRun{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var runs []models.BatchRun
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&runs).Error; err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}
