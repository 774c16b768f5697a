package service

import (
	"context"
	"testing"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockBatchCache struct {
	mock.Mock
}

func (m *mockBatchCache) SetLatestBatch(ctx context.Context, rates []entity.ExchangeRate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

func (m *mockBatchCache) SetPeriodAverage(ctx context.Context, currencyCode, periodKey string, avg float64) error {
	args := m.Called(ctx, currencyCode, periodKey, avg)
	return args.Error(0)
}

func TestRefreshLatest(t *testing.T) {
	// Arrange
	rateRepo := new(mocks.MockRateRepository)
	cache := new(mockBatchCache)
	service := NewRatesService(rateRepo, cache)

	rates := []entity.ExchangeRate{
		{CurrencyCode: "KRW", Rate: 1310},
		{CurrencyCode: "VND", Rate: 24100},
	}
	rateRepo.On("LatestAll", mock.Anything).Return(rates, nil)
	cache.On("SetLatestBatch", mock.Anything, rates).Return(nil)

	// Act
	err := service.RefreshLatest(context.Background())

	// Assert
	assert.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestRefreshLatest_EmptyIsNotError(t *testing.T) {
	rateRepo := new(mocks.MockRateRepository)
	cache := new(mockBatchCache)
	service := NewRatesService(rateRepo, cache)

	rateRepo.On("LatestAll", mock.Anything).Return([]entity.ExchangeRate{}, nil)

	err := service.RefreshLatest(context.Background())

	assert.NoError(t, err)
	cache.AssertNotCalled(t, "SetLatestBatch", mock.Anything, mock.Anything)
}

func TestPrecomputePeriodAverages_SkipsMissing(t *testing.T) {
	// Arrange: строк за период нет ни у одной валюты - ошибок нет,
	// кеш не трогается
	rateRepo := new(mocks.MockRateRepository)
	cache := new(mockBatchCache)
	service := NewRatesService(rateRepo, cache)

	rateRepo.On("PeriodAverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(0.0, repository.ErrRateNotFound)

	// Act
	err := service.PrecomputePeriodAverages(context.Background())

	// Assert
	assert.NoError(t, err)
	cache.AssertNotCalled(t, "SetPeriodAverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestKnownCurrencies_StableAndIncludesUSD(t *testing.T) {
	codes := KnownCurrencies()

	assert.Contains(t, codes, "USD")
	assert.Contains(t, codes, "KRW")
	assert.Equal(t, codes, KnownCurrencies())
}
