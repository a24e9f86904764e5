package repository

import (
	"context"
	"fmt"

	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	FindAll(ctx context.Context) ([]*model.Report, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Report, error)
	Update(ctx context.Context, report *model.Report) error
	AppendFiles(ctx context.Context, reportID uuid.UUID, files []model.ReportFile) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		files := report.Files
		report.Files = nil

		if err := tx.Create(report).Error; err != nil {
			return err
		}

		for i := range files {
			files[i].ReportID = report.ID
		}
		if len(files) > 0 {
			if err := tx.Create(&files).Error; err != nil {
				return err
			}
		}
		report.Files = files

		return nil
	})
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := r.db.WithContext(ctx).
		Preload("Files").
		Preload("User").
		Preload("User.Role").
		Where("id = ?", id).
		First(&report).Error; err != nil {
		return nil, err
	}

	return &report, nil
}

func (r *reportRepository) FindAll(ctx context.Context) ([]*model.Report, error) {
	var reports []*model.Report
	if err := r.db.WithContext(ctx).
		Preload("Files").
		Preload("User").
		Order("created_at desc").
		Find(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *reportRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var reports []*model.Report
	if err := r.db.WithContext(ctx).
		Preload("Files").
		Preload("User").
		Where("id IN ?", ids).
		Order("created_at desc").
		Find(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}

// Update is version-checked the same way as user updates.
func (r *reportRepository) Update(ctx context.Context, report *model.Report) error {
	loaded := report.Version
	report.Version = loaded + 1

	result := r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("id = ? AND version = ?", report.ID, loaded).
		Select("user_id", "title", "content", "status", "approved_by_id", "approved_at", "version").
		Updates(report)
	if result.Error != nil {
		report.Version = loaded
		return result.Error
	}
	if result.RowsAffected == 0 {
		report.Version = loaded
		return fmt.Errorf("%w: report was modified concurrently", apperror.ErrConflict)
	}

	return nil
}

func (r *reportRepository) AppendFiles(ctx context.Context, reportID uuid.UUID, files []model.ReportFile) error {
	if len(files) == 0 {
		return nil
	}

	for i := range files {
		files[i].ReportID = reportID
	}
	return r.db.WithContext(ctx).Create(&files).Error
}
