package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cedarworks/internal/app/erp/entity"

	"gorm.io/gorm"
)

type rateRepository struct {
	db *gorm.DB
}

// NewRateRepository создает новый репозиторий курсов валют
func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

// Latest получает самый свежий курс валюты
func (r *rateRepository) Latest(ctx context.Context, currencyCode string) (*entity.ExchangeRate, error) {
	var rate entity.ExchangeRate
	result := r.db.WithContext(ctx).
		Where("currency_code = ?", currencyCode).
		Order("rate_date DESC").
		First(&rate)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, result.Error
	}
	return &rate, nil
}

// LatestAll получает последний курс каждой валюты
func (r *rateRepository) LatestAll(ctx context.Context) ([]entity.ExchangeRate, error) {
	var rates []entity.ExchangeRate
	// DISTINCT ON - выбираем самую свежую строку по каждой валюте
	result := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (currency_code) *
		     FROM exchange_rates
		     ORDER BY currency_code, rate_date DESC`).
		Scan(&rates)
	if result.Error != nil {
		return nil, result.Error
	}
	return rates, nil
}

// PeriodAverage возвращает средний курс за календарный квартал (month=0)
// либо месяц (quarter=0). Отсутствие наблюдений в периоде - ErrRateNotFound
func (r *rateRepository) PeriodAverage(ctx context.Context, currencyCode string, year, quarter, month int) (float64, error) {
	from, to, err := PeriodBounds(year, quarter, month)
	if err != nil {
		return 0, err
	}

	var avg *float64
	result := r.db.WithContext(ctx).
		Model(&entity.ExchangeRate{}).
		Select("AVG(rate)").
		Where("currency_code = ? AND rate_date >= ? AND rate_date < ?", currencyCode, from, to).
		Scan(&avg)
	if result.Error != nil {
		return 0, result.Error
	}
	if avg == nil {
		return 0, ErrRateNotFound
	}
	return *avg, nil
}

func (r *rateRepository) Insert(ctx context.Context, rate *entity.ExchangeRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

// PeriodBounds возвращает границы календарного периода [from, to)
func PeriodBounds(year, quarter, month int) (time.Time, time.Time, error) {
	switch {
	case quarter >= 1 && quarter <= 4 && month == 0:
		from := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 3, 0), nil
	case month >= 1 && month <= 12 && quarter == 0:
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid period: year=%d quarter=%d month=%d", year, quarter, month)
}
