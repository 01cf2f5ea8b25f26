package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"querydesk-api/internal/models"
	"querydesk-api/pkg/logger"
)

// QueryHistoryRepository persists probed statements. It satisfies
// dbmanager.HistoryStore.
type QueryHistoryRepository interface {
	SaveQuery(ctx context.Context, databaseID uint, statement string, actor string) (uint, error)
	FindByID(ctx context.Context, id uint) (*models.QueryHistory, error)
	ListByDatabase(ctx context.Context, databaseID uint, limit int) ([]*models.QueryHistory, error)
}

type queryHistoryRepository struct {
	db *gorm.DB
}

func NewQueryHistoryRepository(db *gorm.DB) QueryHistoryRepository {
	return &queryHistoryRepository{db: db}
}

func (r *queryHistoryRepository) SaveQuery(ctx context.Context, databaseID uint, statement string, actor string) (uint, error) {
	record := models.QueryHistory{
		DatabaseID: databaseID,
		Statement:  statement,
		CreatedBy:  actor,
	}
	if err := r.db.WithContext(ctx).Omit("Database").Create(&record).Error; err != nil {
		return 0, fmt.Errorf("failed to save query history: %w", err)
	}
	logger.Debug("QueryHistoryRepository -> SaveQuery -> saved", logger.Ctx{"id": record.ID, "database_id": databaseID})
	return record.ID, nil
}

func (r *queryHistoryRepository) FindByID(ctx context.Context, id uint) (*models.QueryHistory, error) {
	var record models.QueryHistory
	err := r.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByDatabase returns the newest entries first.
func (r *queryHistoryRepository) ListByDatabase(ctx context.Context, databaseID uint, limit int) ([]*models.QueryHistory, error) {
	var records []*models.QueryHistory
	err := r.db.WithContext(ctx).
		Where("database_id = ?", databaseID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
