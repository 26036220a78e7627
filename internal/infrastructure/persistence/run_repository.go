package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/persistence/models"
)

// GormRunRepository implements pipeline.RunRepository using GORM.
type GormRunRepository struct {
	db *gorm.DB
}

func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

var _ pipeline.RunRepository = (*GormRunRepository)(nil)

// Save upserts the run row and all of its stage rows in one transaction.
// A write carrying an older version than the stored row is rejected.
func (r *GormRunRepository) Save(ctx context.Context, run *pipeline.Run) error {
	m, err := models.PipelineRunModelFromDomain(run)
	if err != nil {
		return err
	}
	stages := m.Stages
	m.Stages = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(m).
			Where("version <= ?", m.Version).
			Select("*").
			Omit(clause.Associations, "id", "created_at").
			Updates(m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.PipelineRunModel{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return shared.ErrConcurrencyConflict
			}
			if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
				return err
			}
		}
		if len(stages) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "stage"}},
			UpdateAll: true,
		}).Create(&stages).Error
	})
}

func (r *GormRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*pipeline.Run, error) {
	var m models.PipelineRunModel
	if err := r.withStages(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindAll lists runs newest first by default. An empty status lists all.
func (r *GormRunRepository) FindAll(ctx context.Context, filter shared.Filter, status pipeline.RunStatus) ([]pipeline.Run, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.PipelineRunModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = likeAny(query, filter.Search, "product_name", "niche")
	for key, value := range filter.Filters {
		switch key {
		case "schedule_id":
			query = query.Where("schedule_id = ?", value)
		case "niche":
			query = query.Where("niche = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PipelineRunModel
	if err := r.withStages(paginate(query, filter, RunSortFields)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	runs, err := runsToDomain(rows)
	return runs, total, err
}

// FindByStatus returns every run in status, oldest first.
func (r *GormRunRepository) FindByStatus(ctx context.Context, status pipeline.RunStatus) ([]pipeline.Run, error) {
	var rows []models.PipelineRunModel
	if err := r.withStages(r.db.WithContext(ctx)).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return runsToDomain(rows)
}

func (r *GormRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&models.StageResultModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.PipelineRunModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormRunRepository) withStages(q *gorm.DB) *gorm.DB {
	return q.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func runsToDomain(rows []models.PipelineRunModel) ([]pipeline.Run, error) {
	runs := make([]pipeline.Run, 0, len(rows))
	for i := range rows {
		run, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}
