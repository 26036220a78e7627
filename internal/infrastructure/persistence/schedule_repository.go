package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/persistence/models"
)

// GormScheduleRepository implements pipeline.ScheduleRepository using GORM.
type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

var _ pipeline.ScheduleRepository = (*GormScheduleRepository)(nil)

func (r *GormScheduleRepository) Save(ctx context.Context, s *pipeline.Schedule) error {
	m, err := models.ScheduleModelFromDomain(s)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *GormScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pipeline.Schedule, error) {
	var m models.ScheduleModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

func (r *GormScheduleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pipeline.Schedule, int64, error) {
	filter = filter.Normalize()
	query := likeAny(r.db.WithContext(ctx).Model(&models.ScheduleModel{}), filter.Search, "name")
	if v, ok := filter.Filters["enabled"].(bool); ok {
		query = query.Where("enabled = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ScheduleModel
	if err := paginate(query, filter, ScheduleSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out, err := schedulesToDomain(rows)
	return out, total, err
}

func (r *GormScheduleRepository) FindEnabled(ctx context.Context) ([]pipeline.Schedule, error) {
	var rows []models.ScheduleModel
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return schedulesToDomain(rows)
}

func (r *GormScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.ScheduleModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func schedulesToDomain(rows []models.ScheduleModel) ([]pipeline.Schedule, error) {
	out := make([]pipeline.Schedule, 0, len(rows))
	for i := range rows {
		s, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}
