package repository

import (
	"context"
	"time"

	"cedarworks/internal/app/erp/entity"

	"gorm.io/gorm"
)

type salesRepository struct {
	db *gorm.DB
}

// NewSalesRepository создает репозиторий наблюдений фактических цен продаж
// Это внешний порт: таблицу наполняет система продаж, ядро только читает
func NewSalesRepository(db *gorm.DB) SalesRepository {
	return &salesRepository{db: db}
}

// Observations получает наблюдения в окне [from, to)
func (r *salesRepository) Observations(ctx context.Context, from, to time.Time) ([]entity.SalesObservation, error) {
	var observations []entity.SalesObservation
	result := r.db.WithContext(ctx).
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Order("sold_at ASC").
		Find(&observations)
	if result.Error != nil {
		return nil, result.Error
	}
	return observations, nil
}
