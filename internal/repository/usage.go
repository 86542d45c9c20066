package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cubicleally/ai-gateway/internal/models"
	"github.com/cubicleally/ai-gateway/internal/storage"
)

type UsageLogRepository struct {
	db *storage.Postgres
}

func NewUsageLogRepository(db *storage.Postgres) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

// Inserts a single usage log
func (r *UsageLogRepository) Create(ctx context.Context, log *models.UsageLog) error {
	return r.db.DB.WithContext(ctx).Create(log).Error
}

// Inserts multiple usage logs (for batch insertion)
func (r *UsageLogRepository) CreateBatch(ctx context.Context, logs []*models.UsageLog) error {
	if len(logs) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).Create(&logs).Error
}

// Retrieves logs for a specific user
func (r *UsageLogRepository) FindByUser(ctx context.Context, userID uuid.UUID, from, to time.Time, limit, offset int) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, from, to).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error

	return logs, err
}

// Counts logged calls in a time range
func (r *UsageLogRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageLog{}).
		Where("created_at BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

// Aggregated token usage for one call category
type CategoryUsage struct {
	Category     string `json:"category"`
	Calls        int64  `json:"calls"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// Token totals grouped by call category
func (r *UsageLogRepository) UsageByCategory(ctx context.Context, from, to time.Time) ([]CategoryUsage, error) {
	var results []CategoryUsage

	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageLog{}).
		Select("category, COUNT(*) as calls, SUM(input_tokens) as input_tokens, SUM(output_tokens) as output_tokens").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("category").
		Order("calls DESC").
		Scan(&results).Error

	return results, err
}

// Returns the token count grouped by day, for cost trend charts
func (r *UsageLogRepository) DailyUsage(ctx context.Context, from, to time.Time) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	rows, err := r.db.DB.WithContext(ctx).
		Model(&models.UsageLog{}).
		Select("DATE_TRUNC('day', created_at) as day, COUNT(*) as calls, SUM(input_tokens + output_tokens) as total_tokens").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("day").
		Order("day ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		var calls, totalTokens int64
		if err := rows.Scan(&day, &calls, &totalTokens); err != nil {
			return nil, err
		}
		results = append(results, map[string]interface{}{
			"day":          day,
			"calls":        calls,
			"total_tokens": totalTokens,
		})
	}

	return results, nil
}

// Deletes logs older than the specified time
func (r *UsageLogRepository) DeleteOldLogs(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.UsageLog{})

	return result.RowsAffected, result.Error
}
