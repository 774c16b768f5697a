package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/util"
	"cedarworks/pkg/logger"
)

// BatchRateCache - пакетная запись курсов в кеш
type BatchRateCache interface {
	SetLatestBatch(ctx context.Context, rates []entity.ExchangeRate) error
	SetPeriodAverage(ctx context.Context, currencyCode, periodKey string, avg float64) error
}

// RatesServiceInterface - контракт фонового обновления курсов
type RatesServiceInterface interface {
	RefreshLatest(ctx context.Context) error
	PrecomputePeriodAverages(ctx context.Context) error
}

// RatesService прогревает кеш курсов по расписанию
// Страницы читают из кеша; после рестарта Redis первый прогон
// планировщика восстанавливает прогрев
type RatesService struct {
	rateRepo repository.RateRepository
	cache    BatchRateCache
}

// NewRatesService создает сервис фонового обновления курсов
func NewRatesService(rateRepo repository.RateRepository, cache BatchRateCache) *RatesService {
	return &RatesService{rateRepo: rateRepo, cache: cache}
}

// RefreshLatest кеширует последний известный курс каждой валюты
func (s *RatesService) RefreshLatest(ctx context.Context) error {
	rates, err := s.rateRepo.LatestAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load latest rates: %w", err)
	}
	if len(rates) == 0 {
		logger.Warn().Msg("no exchange rates stored, cache refresh skipped")
		return nil
	}

	if err := s.cache.SetLatestBatch(ctx, rates); err != nil {
		return fmt.Errorf("failed to cache latest rates: %w", err)
	}

	logger.Info().Int("count", len(rates)).Msg("latest exchange rates cached")
	return nil
}

// PrecomputePeriodAverages считает и кеширует средние курсы текущего
// квартала и прошлого месяца. Валюты без строк за период пропускаются
func (s *RatesService) PrecomputePeriodAverages(ctx context.Context) error {
	now := time.Now()
	year := now.Year()
	quarter := (int(now.Month())-1)/3 + 1

	prevMonth := now.AddDate(0, -1, 0)

	codes := KnownCurrencies()
	for _, code := range codes {
		if code == "USD" {
			continue
		}

		s.cachePeriod(ctx, code, year, quarter, 0)
		s.cachePeriod(ctx, code, prevMonth.Year(), 0, int(prevMonth.Month()))
	}

	return nil
}

func (s *RatesService) cachePeriod(ctx context.Context, code string, year, quarter, month int) {
	avg, err := s.rateRepo.PeriodAverage(ctx, code, year, quarter, month)
	if err != nil {
		if !errors.Is(err, repository.ErrRateNotFound) {
			logger.Error().Err(err).Str("currency", code).Msg("failed to compute period average")
		}
		return
	}

	periodKey := util.PeriodKey(year, quarter, month)
	if err := s.cache.SetPeriodAverage(ctx, code, periodKey, avg); err != nil {
		logger.Warn().Err(err).Str("currency", code).Str("period", periodKey).
			Msg("failed to cache period average")
	}
}

// KnownCurrencies возвращает коды поддерживаемых валют в стабильном порядке
func KnownCurrencies() []string {
	codes := make([]string, 0, len(defaultRates))
	for code := range defaultRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
