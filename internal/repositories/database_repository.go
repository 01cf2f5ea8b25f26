package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"querydesk-api/internal/models"
)

type DatabaseRepository interface {
	Create(ctx context.Context, database *models.ExternalDatabase) error
	Update(ctx context.Context, database *models.ExternalDatabase) error
	Delete(ctx context.Context, id uint) (bool, error)
	FindByID(ctx context.Context, id uint) (*models.ExternalDatabase, error)
	List(ctx context.Context, page, pageSize int) ([]*models.ExternalDatabase, int64, error)
	ListIDsByServer(ctx context.Context, serverID uint) ([]uint, error)
}

type databaseRepository struct {
	db *gorm.DB
}

func NewDatabaseRepository(db *gorm.DB) DatabaseRepository {
	return &databaseRepository{db: db}
}

func (r *databaseRepository) Create(ctx context.Context, database *models.ExternalDatabase) error {
	return r.db.WithContext(ctx).Omit("Server").Create(database).Error
}

func (r *databaseRepository) Update(ctx context.Context, database *models.ExternalDatabase) error {
	return r.db.WithContext(ctx).Omit("Server").Save(database).Error
}

func (r *databaseRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.ExternalDatabase{}, id)
	return result.RowsAffected > 0, result.Error
}

// FindByID returns nil without error when no entry has this id. The tunnel
// server is preloaded.
func (r *databaseRepository) FindByID(ctx context.Context, id uint) (*models.ExternalDatabase, error) {
	var database models.ExternalDatabase
	err := r.db.WithContext(ctx).Preload("Server").First(&database, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &database, nil
}

func (r *databaseRepository) List(ctx context.Context, page, pageSize int) ([]*models.ExternalDatabase, int64, error) {
	var databases []*models.ExternalDatabase
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ExternalDatabase{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&databases).Error
	return databases, total, err
}

func (r *databaseRepository) ListIDsByServer(ctx context.Context, serverID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ExternalDatabase{}).
		Where("server_id = ?", serverID).
		Pluck("id", &ids).Error
	return ids, err
}
