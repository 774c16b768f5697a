package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cedarworks/internal/app/erp/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type priceRepository struct {
	db *gorm.DB
}

// NewPriceRepository создает новый репозиторий стандартных цен
func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepository{db: db}
}

// GetByID получает запись цены по ID
func (r *priceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.StandardPrice, error) {
	var price entity.StandardPrice
	result := r.db.WithContext(ctx).First(&price, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPriceNotFound
		}
		return nil, result.Error
	}
	return &price, nil
}

// CurrentByProductCode получает текущую запись цены продукта
// Если флаг is_current неоднозначен (больше одной строки), выигрывает
// самая свежая по effective_date затем created_at; остальные вызывающая
// сторона считает историческими
func (r *priceRepository) CurrentByProductCode(ctx context.Context, code string) (*entity.StandardPrice, error) {
	var price entity.StandardPrice
	result := r.db.WithContext(ctx).
		Where("product_code = ? AND is_current = ?", code, true).
		Order("effective_date DESC, created_at DESC").
		First(&price)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPriceNotFound
		}
		return nil, result.Error
	}
	return &price, nil
}

// ListCurrent получает текущие цены всех продуктов
func (r *priceRepository) ListCurrent(ctx context.Context) ([]entity.StandardPrice, error) {
	var prices []entity.StandardPrice
	result := r.db.WithContext(ctx).
		Where("is_current = ?", true).
		Order("product_code ASC, effective_date DESC, created_at DESC").
		Find(&prices)
	if result.Error != nil {
		return nil, result.Error
	}
	return prices, nil
}

// ListAll получает все записи цен, самые свежие первыми
func (r *priceRepository) ListAll(ctx context.Context) ([]entity.StandardPrice, error) {
	var prices []entity.StandardPrice
	result := r.db.WithContext(ctx).
		Order("effective_date DESC, created_at DESC").
		Find(&prices)
	if result.Error != nil {
		return nil, result.Error
	}
	return prices, nil
}

// ListByProductCode получает историю цен продукта, самые свежие первыми
func (r *priceRepository) ListByProductCode(ctx context.Context, code string) ([]entity.StandardPrice, error) {
	var prices []entity.StandardPrice
	result := r.db.WithContext(ctx).
		Where("product_code = ?", code).
		Order("effective_date DESC, created_at DESC").
		Find(&prices)
	if result.Error != nil {
		return nil, result.Error
	}
	return prices, nil
}

// Insert добавляет запись цены без предшественника
func (r *priceRepository) Insert(ctx context.Context, rec *entity.StandardPrice) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Supersede выполняет замену текущей записи в одной транзакции:
// предшественник теряет is_current, новая запись вставляется текущей,
// запись аудита фиксирует изменение. Конкурирующие замены по одному
// product_code сериализует БД
func (r *priceRepository) Supersede(ctx context.Context, rec *entity.StandardPrice, predecessorID uuid.UUID, change *entity.PriceChangeRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.StandardPrice{}).
			Where("id = ?", predecessorID).
			Updates(map[string]interface{}{"is_current": false, "updated_at": time.Now()})
		if result.Error != nil {
			return fmt.Errorf("failed to clear predecessor flag: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrPriceNotFound
		}

		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to insert superseding price: %w", err)
		}

		if change != nil {
			if err := tx.Create(change).Error; err != nil {
				return fmt.Errorf("failed to insert price change record: %w", err)
			}
		}

		return nil
	})
}

// InsertHistorical вставляет запись задним числом без замены текущей
// Запись аудита все равно создается - направление изменения корректно
// по знаку
func (r *priceRepository) InsertHistorical(ctx context.Context, rec *entity.StandardPrice, change *entity.PriceChangeRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to insert historical price: %w", err)
		}
		if change != nil {
			if err := tx.Create(change).Error; err != nil {
				return fmt.Errorf("failed to insert price change record: %w", err)
			}
		}
		return nil
	})
}

// SetCurrent выставляет флаг is_current записи
func (r *priceRepository) SetCurrent(ctx context.Context, id uuid.UUID, current bool) error {
	result := r.db.WithContext(ctx).Model(&entity.StandardPrice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_current": current, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPriceNotFound
	}
	return nil
}

// UpdateChangeReason правит причину изменения - единственное поле
// исторической записи доступное для прямой правки
func (r *priceRepository) UpdateChangeReason(ctx context.Context, id uuid.UUID, reason string) error {
	result := r.db.WithContext(ctx).Model(&entity.StandardPrice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"change_reason": reason, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPriceNotFound
	}
	return nil
}

// HardDeleteAndPromote физически удаляет строку
// Если удалена текущая, самая свежая из оставшихся по тому же коду
// становится текущей - инвариант единственной текущей записи сохраняется
func (r *priceRepository) HardDeleteAndPromote(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var victim entity.StandardPrice
		if err := tx.First(&victim, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPriceNotFound
			}
			return err
		}

		if err := tx.Delete(&entity.StandardPrice{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete price: %w", err)
		}

		if !victim.IsCurrent {
			return nil
		}

		var next entity.StandardPrice
		err := tx.Where("product_code = ?", victim.ProductCode).
			Order("effective_date DESC, created_at DESC").
			First(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Историй больше нет - продвигать некого
				return nil
			}
			return err
		}

		result := tx.Model(&entity.StandardPrice{}).
			Where("id = ?", next.ID).
			Updates(map[string]interface{}{"is_current": true, "updated_at": time.Now()})
		if result.Error != nil {
			return fmt.Errorf("failed to promote successor: %w", result.Error)
		}
		return nil
	})
}

// ListChanges получает записи аудита по продукту, самые свежие первыми
func (r *priceRepository) ListChanges(ctx context.Context, productCode string) ([]entity.PriceChangeRecord, error) {
	var changes []entity.PriceChangeRecord
	tx := r.db.WithContext(ctx).Order("change_date DESC, created_at DESC")
	if productCode != "" {
		tx = tx.Where("product_code = ?", productCode)
	}
	if err := tx.Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}
