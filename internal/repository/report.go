package repository

import (
	"context"

	"scribe/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for pending reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, limit, offset int) ([]models.Report, error)
	Delete(ctx context.Context, id uint) (bool, error)
	DeleteByRef(ctx context.Context, typ models.ReportType, refID uint) (int64, error)
	// DeleteByPost removes reports on the post and on its comments.
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
	// DeleteByUser removes reports filed by or against the user.
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, wrapErr(err, "Report", id)
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var list []models.Report
	if err := r.db.WithContext(ctx).Order("id").Limit(clampLimit(limit)).Offset(offset).Find(&list).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

func (r *reportRepository) Delete(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, r.db, &models.Report{}, id)
}

func (r *reportRepository) DeleteByRef(ctx context.Context, typ models.ReportType, refID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Report{}, "type = ? AND ref_id = ?", typ, refID)
}

func (r *reportRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Report{},
		"(type = ? AND ref_id = ?) OR post_ref_id = ?", models.ReportTypeBlog, postID, postID)
}

func (r *reportRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	return deleteWhere(ctx, r.db, &models.Report{}, "reporter_id = ? OR reported_user_id = ?", userID, userID)
}

func (r *reportRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Report{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
