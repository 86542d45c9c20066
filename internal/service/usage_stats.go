package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cubicleally/ai-gateway/internal/models"
	"github.com/cubicleally/ai-gateway/internal/repository"
)

// UsageStatsService answers cost and consumption questions from the usage
// log: how many AI calls, how many tokens, split by category and day.
type UsageStatsService struct {
	repository *repository.UsageLogRepository
}

func NewUsageStatsService(repo *repository.UsageLogRepository) *UsageStatsService {
	return &UsageStatsService{repository: repo}
}

type UsageSummary struct {
	TotalCalls   int64                      `json:"total_calls"`
	InputTokens  int64                      `json:"input_tokens"`
	OutputTokens int64                      `json:"output_tokens"`
	TotalTokens  int64                      `json:"total_tokens"`
	ByCategory   []repository.CategoryUsage `json:"by_category"`
}

// Retrieves token usage summary for a time range
func (s *UsageStatsService) GetSummary(ctx context.Context, from, to time.Time) (*UsageSummary, error) {
	summary := &UsageSummary{}

	totalCalls, err := s.repository.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalCalls = totalCalls

	if totalCalls == 0 {
		summary.ByCategory = []repository.CategoryUsage{}
		return summary, nil
	}

	byCategory, err := s.repository.UsageByCategory(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.ByCategory = byCategory

	for _, cat := range byCategory {
		summary.InputTokens += cat.InputTokens
		summary.OutputTokens += cat.OutputTokens
	}
	summary.TotalTokens = summary.InputTokens + summary.OutputTokens

	return summary, nil
}

// Retrieves daily token totals for trend charts
func (s *UsageStatsService) GetDailyUsage(ctx context.Context, from, to time.Time) ([]map[string]interface{}, error) {
	return s.repository.DailyUsage(ctx, from, to)
}

// Retrieves one user's recent AI calls
func (s *UsageStatsService) GetUserUsage(ctx context.Context, userID uuid.UUID, from, to time.Time, limit, offset int) ([]models.UsageLog, error) {
	return s.repository.FindByUser(ctx, userID, from, to, limit, offset)
}

// Deletes usage logs older than the retention period
func (s *UsageStatsService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	cutOffDate := time.Now().AddDate(0, 0, -retentionDays)
	return s.repository.DeleteOldLogs(ctx, cutOffDate)
}
