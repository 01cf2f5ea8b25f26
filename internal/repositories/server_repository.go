package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"querydesk-api/internal/models"
)

type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	Update(ctx context.Context, server *models.Server) error
	Delete(ctx context.Context, id uint) (bool, error)
	FindByID(ctx context.Context, id uint) (*models.Server, error)
	List(ctx context.Context, page, pageSize int) ([]*models.Server, int64, error)
}

type serverRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) ServerRepository {
	return &serverRepository{db: db}
}

func (r *serverRepository) Create(ctx context.Context, server *models.Server) error {
	return r.db.WithContext(ctx).Create(server).Error
}

func (r *serverRepository) Update(ctx context.Context, server *models.Server) error {
	return r.db.WithContext(ctx).Save(server).Error
}

func (r *serverRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Server{}, id)
	return result.RowsAffected > 0, result.Error
}

func (r *serverRepository) FindByID(ctx context.Context, id uint) (*models.Server, error) {
	var server models.Server
	err := r.db.WithContext(ctx).First(&server, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &server, nil
}

func (r *serverRepository) List(ctx context.Context, page, pageSize int) ([]*models.Server, int64, error) {
	var servers []*models.Server
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Server{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&servers).Error
	return servers, total, err
}
