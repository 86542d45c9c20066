package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cubicleally/ai-gateway/internal/models"
	"github.com/cubicleally/ai-gateway/internal/storage"
)

type OccupationRepository struct {
	db *storage.Postgres
}

func NewOccupationRepository(db *storage.Postgres) *OccupationRepository {
	return &OccupationRepository{db: db}
}

// Retrieves the full occupation catalog, ordered by title. The AI services
// feed this to the model as candidates and to the guardrail as the
// whitelist, so suggestions can only ever reference occupations we hold.
func (r *OccupationRepository) List(ctx context.Context) ([]models.Occupation, error) {
	var occupations []models.Occupation
	err := r.db.DB.WithContext(ctx).
		Order("title ASC").
		Find(&occupations).Error

	return occupations, err
}

func (r *OccupationRepository) FindByCode(ctx context.Context, code string) (*models.Occupation, error) {
	var occupation models.Occupation
	err := r.db.DB.WithContext(ctx).
		Where("code = ?", code).
		First(&occupation).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &occupation, err
}

// Loads or refreshes catalog rows, used by the O*NET data import
func (r *OccupationRepository) UpsertBatch(ctx context.Context, occupations []models.Occupation) error {
	if len(occupations) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			UpdateAll: true,
		}).
		Create(&occupations).Error
}
