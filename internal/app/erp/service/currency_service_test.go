package service

import (
	"context"
	"testing"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/repository/mocks"
	"cedarworks/internal/app/erp/viewkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ===================== Convert Tests =====================

func TestConvert_ManualRateRoundTrip(t *testing.T) {
	// Arrange
	service := NewCurrencyService(new(mocks.MockRateRepository), nil)
	ctx := context.Background()
	collector := viewkit.NewCollector()

	// Act: прямая конвертация ручным курсом
	forward, err := service.Convert(ctx, &entity.ConvertRequest{
		Amount:       250,
		FromCurrency: "USD",
		ToCurrency:   "KRW",
		Policy:       PolicyManual,
		ManualRate:   1300,
	}, collector)
	assert.NoError(t, err)
	assert.InDelta(t, 325000.0, forward.Converted, 0.0001)
	assert.Equal(t, RateSourceManual, forward.RateSource)

	// Обратная конвертация по 1/rate восстанавливает сумму точно
	back, err := service.Convert(ctx, &entity.ConvertRequest{
		Amount:       forward.Converted,
		FromCurrency: "KRW",
		ToCurrency:   "USD",
		Policy:       PolicyManual,
		ManualRate:   1.0 / 1300,
	}, collector)
	assert.NoError(t, err)
	assert.InDelta(t, 250.0, back.Converted, 1e-9)
}

func TestConvert_ManualRateInvalid(t *testing.T) {
	service := NewCurrencyService(new(mocks.MockRateRepository), nil)

	_, err := service.Convert(context.Background(), &entity.ConvertRequest{
		Amount: 100, FromCurrency: "USD", ToCurrency: "KRW", Policy: PolicyManual, ManualRate: 0,
	}, viewkit.NewCollector())

	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestConvert_LatestCrossViaUSD(t *testing.T) {
	// Arrange
	rateRepo := new(mocks.MockRateRepository)
	service := NewCurrencyService(rateRepo, nil)
	ctx := context.Background()

	rateRepo.On("Latest", ctx, "KRW").Return(&entity.ExchangeRate{CurrencyCode: "KRW", Rate: 1300}, nil)
	rateRepo.On("Latest", ctx, "VND").Return(&entity.ExchangeRate{CurrencyCode: "VND", Rate: 26000}, nil)

	// Act: KRW -> VND через USD
	result, err := service.Convert(ctx, &entity.ConvertRequest{
		Amount:       1300,
		FromCurrency: "KRW",
		ToCurrency:   "VND",
		Policy:       PolicyLatest,
	}, viewkit.NewCollector())

	// Assert: 1300 KRW = 1 USD = 26000 VND
	assert.NoError(t, err)
	assert.InDelta(t, 26000.0, result.Converted, 0.001)
	assert.Equal(t, RateSourceLatest, result.RateSource)
}

func TestConvert_FallbackRateWithWarning(t *testing.T) {
	// Arrange: БД без курсов - применяется встроенный резерв
	rateRepo := new(mocks.MockRateRepository)
	service := NewCurrencyService(rateRepo, nil)
	ctx := context.Background()
	collector := viewkit.NewCollector()

	rateRepo.On("Latest", ctx, "VND").Return(nil, repository.ErrRateNotFound)

	// Act
	result, err := service.Convert(ctx, &entity.ConvertRequest{
		Amount:       100,
		FromCurrency: "USD",
		ToCurrency:   "VND",
		Policy:       PolicyLatest,
	}, collector)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, RateSourceFallback, result.RateSource)
	assert.InDelta(t, 100*24000.0, result.Converted, 0.001)

	notifications := collector.Drain()
	assert.Len(t, notifications, 1)
	assert.Equal(t, viewkit.LevelWarning, notifications[0].Level)
}

func TestConvert_PeriodAverage(t *testing.T) {
	// Arrange
	rateRepo := new(mocks.MockRateRepository)
	service := NewCurrencyService(rateRepo, nil)
	ctx := context.Background()

	rateRepo.On("PeriodAverage", ctx, "KRW", 2026, 1, 0).Return(1320.0, nil)

	// Act
	result, err := service.Convert(ctx, &entity.ConvertRequest{
		Amount:       1320,
		FromCurrency: "KRW",
		ToCurrency:   "USD",
		Policy:       PolicyPeriodAverage,
		Year:         2026,
		Quarter:      1,
	}, viewkit.NewCollector())

	// Assert
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, result.Converted, 0.001)
	assert.Equal(t, RateSourcePeriod, result.RateSource)
}

func TestConvert_PeriodAverageDegradesToLatest(t *testing.T) {
	// Arrange: средних за период нет - деградация к latest с info
	rateRepo := new(mocks.MockRateRepository)
	service := NewCurrencyService(rateRepo, nil)
	ctx := context.Background()
	collector := viewkit.NewCollector()

	rateRepo.On("PeriodAverage", ctx, "KRW", 2026, 2, 0).Return(0.0, repository.ErrRateNotFound)
	rateRepo.On("Latest", ctx, "KRW").Return(&entity.ExchangeRate{CurrencyCode: "KRW", Rate: 1300}, nil)

	// Act
	result, err := service.Convert(ctx, &entity.ConvertRequest{
		Amount:       1300,
		FromCurrency: "KRW",
		ToCurrency:   "USD",
		Policy:       PolicyPeriodAverage,
		Year:         2026,
		Quarter:      2,
	}, collector)

	// Assert
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, result.Converted, 0.001)
	assert.Equal(t, RateSourceLatest, result.RateSource)

	notifications := collector.Drain()
	assert.Len(t, notifications, 1)
	assert.Equal(t, viewkit.LevelInfo, notifications[0].Level)
}

func TestConvert_PeriodAverageRequiresPeriod(t *testing.T) {
	service := NewCurrencyService(new(mocks.MockRateRepository), nil)

	_, err := service.Convert(context.Background(), &entity.ConvertRequest{
		Amount: 100, FromCurrency: "USD", ToCurrency: "KRW", Policy: PolicyPeriodAverage,
	}, viewkit.NewCollector())

	assert.ErrorIs(t, err, ErrPeriodRequired)
}

func TestConvert_UnknownCurrency(t *testing.T) {
	service := NewCurrencyService(new(mocks.MockRateRepository), nil)

	_, err := service.Convert(context.Background(), &entity.ConvertRequest{
		Amount: 100, FromCurrency: "USD", ToCurrency: "ZZZ", Policy: PolicyLatest,
	}, viewkit.NewCollector())

	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestConvert_UsesCache(t *testing.T) {
	// Arrange: курс в кеше - БД не трогаем
	rateRepo := new(mocks.MockRateRepository)
	cache := new(mocks.MockRateCache)
	service := NewCurrencyService(rateRepo, cache)
	ctx := context.Background()

	cache.On("GetLatest", ctx, "KRW").Return(&entity.ExchangeRate{CurrencyCode: "KRW", Rate: 1300}, nil)

	// Act
	result, err := service.Convert(ctx, &entity.ConvertRequest{
		Amount:       1300,
		FromCurrency: "KRW",
		ToCurrency:   "USD",
		Policy:       PolicyLatest,
	}, viewkit.NewCollector())

	// Assert
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, result.Converted, 0.001)
	rateRepo.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything)
}

// ===================== Display Formatting Tests =====================

func TestFormatMoney(t *testing.T) {
	// Валюты без дробной части
	assert.Equal(t, "VND 2,400,000", FormatMoney(2400000.4, "VND"))
	assert.Equal(t, "IDR 15,500", FormatMoney(15500.0, "IDR"))
	// Остальные - два знака
	assert.Equal(t, "USD 100.00", FormatMoney(100.0, "USD"))
	assert.Equal(t, "KRW 1,300.50", FormatMoney(1300.5, "KRW"))
	assert.Equal(t, "USD -1,234.57", FormatMoney(-1234.567, "USD"))
}

// ===================== LatestRates Tests =====================

func TestLatestRates_FillsFallbacks(t *testing.T) {
	// Arrange: в БД только KRW - остальные дополняются резервом
	rateRepo := new(mocks.MockRateRepository)
	service := NewCurrencyService(rateRepo, nil)

	stored := []entity.ExchangeRate{
		{CurrencyCode: "KRW", Rate: 1310, RateDate: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)},
	}
	rateRepo.On("LatestAll", mock.Anything).Return(stored, nil)

	// Act
	rates, err := service.LatestRates(context.Background())

	// Assert
	assert.NoError(t, err)
	assert.Len(t, rates, len(KnownCurrencies()))

	byCode := make(map[string]entity.ExchangeRate)
	for _, r := range rates {
		byCode[r.CurrencyCode] = r
	}
	assert.InDelta(t, 1310.0, byCode["KRW"].Rate, 0.001)
	assert.InDelta(t, 24000.0, byCode["VND"].Rate, 0.001)
}
