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

type agreementRepository struct {
	db *gorm.DB
}

// NewAgreementRepository создает новый репозиторий соглашений с поставщиками
func NewAgreementRepository(db *gorm.DB) AgreementRepository {
	return &agreementRepository{db: db}
}

func (r *agreementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SupplierAgreement, error) {
	var agreement entity.SupplierAgreement
	result := r.db.WithContext(ctx).First(&agreement, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAgreementNotFound
		}
		return nil, result.Error
	}
	return &agreement, nil
}

// CurrentByKey получает текущее соглашение по паре (product_code, supplier_id)
func (r *agreementRepository) CurrentByKey(ctx context.Context, productCode string, supplierID uuid.UUID) (*entity.SupplierAgreement, error) {
	var agreement entity.SupplierAgreement
	result := r.db.WithContext(ctx).
		Where("product_code = ? AND supplier_id = ? AND is_current = ?", productCode, supplierID, true).
		Order("effective_date DESC, created_at DESC").
		First(&agreement)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAgreementNotFound
		}
		return nil, result.Error
	}
	return &agreement, nil
}

func (r *agreementRepository) ListCurrent(ctx context.Context) ([]entity.SupplierAgreement, error) {
	var agreements []entity.SupplierAgreement
	result := r.db.WithContext(ctx).
		Where("is_current = ?", true).
		Order("product_code ASC, supplier_name ASC").
		Find(&agreements)
	if result.Error != nil {
		return nil, result.Error
	}
	return agreements, nil
}

func (r *agreementRepository) ListAll(ctx context.Context) ([]entity.SupplierAgreement, error) {
	var agreements []entity.SupplierAgreement
	result := r.db.WithContext(ctx).
		Order("effective_date DESC, created_at DESC").
		Find(&agreements)
	if result.Error != nil {
		return nil, result.Error
	}
	return agreements, nil
}

func (r *agreementRepository) ListByKey(ctx context.Context, productCode string, supplierID uuid.UUID) ([]entity.SupplierAgreement, error) {
	var agreements []entity.SupplierAgreement
	result := r.db.WithContext(ctx).
		Where("product_code = ? AND supplier_id = ?", productCode, supplierID).
		Order("effective_date DESC, created_at DESC").
		Find(&agreements)
	if result.Error != nil {
		return nil, result.Error
	}
	return agreements, nil
}

func (r *agreementRepository) Insert(ctx context.Context, rec *entity.SupplierAgreement) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Supersede - транзакционная замена текущего соглашения, как у цен
func (r *agreementRepository) Supersede(ctx context.Context, rec *entity.SupplierAgreement, predecessorID uuid.UUID, change *entity.PriceChangeRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.SupplierAgreement{}).
			Where("id = ?", predecessorID).
			Updates(map[string]interface{}{"is_current": false, "updated_at": time.Now()})
		if result.Error != nil {
			return fmt.Errorf("failed to clear predecessor flag: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAgreementNotFound
		}

		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to insert superseding agreement: %w", err)
		}

		if change != nil {
			if err := tx.Create(change).Error; err != nil {
				return fmt.Errorf("failed to insert price change record: %w", err)
			}
		}
		return nil
	})
}

func (r *agreementRepository) InsertHistorical(ctx context.Context, rec *entity.SupplierAgreement, change *entity.PriceChangeRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to insert historical agreement: %w", err)
		}
		if change != nil {
			if err := tx.Create(change).Error; err != nil {
				return fmt.Errorf("failed to insert price change record: %w", err)
			}
		}
		return nil
	})
}

func (r *agreementRepository) SetCurrent(ctx context.Context, id uuid.UUID, current bool) error {
	result := r.db.WithContext(ctx).Model(&entity.SupplierAgreement{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_current": current, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAgreementNotFound
	}
	return nil
}

func (r *agreementRepository) UpdateChangeReason(ctx context.Context, id uuid.UUID, reason string) error {
	result := r.db.WithContext(ctx).Model(&entity.SupplierAgreement{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"change_reason": reason, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAgreementNotFound
	}
	return nil
}

func (r *agreementRepository) HardDeleteAndPromote(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var victim entity.SupplierAgreement
		if err := tx.First(&victim, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAgreementNotFound
			}
			return err
		}

		if err := tx.Delete(&entity.SupplierAgreement{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete agreement: %w", err)
		}

		if !victim.IsCurrent {
			return nil
		}

		var next entity.SupplierAgreement
		err := tx.Where("product_code = ? AND supplier_id = ?", victim.ProductCode, victim.SupplierID).
			Order("effective_date DESC, created_at DESC").
			First(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		result := tx.Model(&entity.SupplierAgreement{}).
			Where("id = ?", next.ID).
			Updates(map[string]interface{}{"is_current": true, "updated_at": time.Now()})
		if result.Error != nil {
			return fmt.Errorf("failed to promote successor: %w", result.Error)
		}
		return nil
	})
}
