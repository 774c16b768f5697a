package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/util"
	"cedarworks/internal/app/erp/viewkit"
	"cedarworks/pkg/logger"
	"cedarworks/pkg/metrics"

	"github.com/google/uuid"
)

const (
	PolicyLatest        = "latest"
	PolicyManual        = "manual"
	PolicyPeriodAverage = "period_average"

	RateSourceLatest   = "latest"
	RateSourceManual   = "manual"
	RateSourcePeriod   = "period_average"
	RateSourceFallback = "fallback"
)

// defaultRates - встроенные резервные курсы (единиц валюты за 1 USD)
// Используются когда нет ни кэша, ни строк в БД. Значения зафиксированы
// на момент сборки справочника и актуализируются планировщиком
var defaultRates = map[string]float64{
	"USD": 1.0,
	"KRW": 1350.0,   // корейская вона
	"VND": 24000.0,  // вьетнамский донг
	"IDR": 15500.0,  // индонезийская рупия
	"CNY": 7.2,      // китайский юань
	"JPY": 148.0,    // японская иена
	"EUR": 0.92,     // евро
	"THB": 35.0,     // тайский бат
	"MYR": 4.7,      // малайзийский ринггит
	"SGD": 1.35,     // сингапурский доллар
}

// zeroDecimalCurrencies - валюты без дробной части в отображении
var zeroDecimalCurrencies = map[string]bool{
	"VND": true,
	"IDR": true,
}

// IsKnownCurrency сообщает, входит ли код в поддерживаемый справочник
func IsKnownCurrency(code string) bool {
	_, ok := defaultRates[code]
	return ok
}

// CurrencyService - конвертер валют
// Курсы хранятся как единиц валюты за 1 USD; кросс-конвертация идет
// через доллар. Три политики выбора курса: latest, manual, period_average
type CurrencyService struct {
	rateRepo repository.RateRepository
	cache    RateCache // может быть nil - кэш опциональный
}

// NewCurrencyService создает новый конвертер валют
func NewCurrencyService(rateRepo repository.RateRepository, cache RateCache) *CurrencyService {
	return &CurrencyService{
		rateRepo: rateRepo,
		cache:    cache,
	}
}

// Convert конвертирует сумму между валютами по выбранной политике
// Недоступность актуального курса не валит операцию: применяется
// встроенный резервный курс с предупреждением в уведомлениях
func (s *CurrencyService) Convert(ctx context.Context, req *entity.ConvertRequest, notifier viewkit.Notifier) (*entity.ConvertResponse, error) {
	if !IsKnownCurrency(req.FromCurrency) || !IsKnownCurrency(req.ToCurrency) {
		return nil, ErrUnknownCurrency
	}

	var (
		converted float64
		rate      float64
		source    string
		err       error
	)

	switch req.Policy {
	case PolicyManual:
		if req.ManualRate <= 0 {
			return nil, ErrInvalidRate
		}
		// Ручной курс - прямой множитель from->to, обратная конвертация
		// по 1/rate восстанавливает исходную сумму точно
		rate = req.ManualRate
		converted = req.Amount * rate
		source = RateSourceManual

	case PolicyPeriodAverage:
		converted, rate, source, err = s.convertPeriodAverage(ctx, req, notifier)
		if err != nil {
			return nil, err
		}

	case PolicyLatest, "":
		converted, rate, source = s.convertLatest(ctx, req.Amount, req.FromCurrency, req.ToCurrency, notifier)

	default:
		return nil, fmt.Errorf("unknown conversion policy: %s", req.Policy)
	}

	metrics.RecordConversion(req.Policy)

	return &entity.ConvertResponse{
		Amount:       req.Amount,
		Converted:    converted,
		Display:      FormatMoney(converted, req.ToCurrency),
		ExchangeRate: rate,
		RateSource:   source,
	}, nil
}

// convertLatest конвертирует по последним известным курсам через USD
func (s *CurrencyService) convertLatest(ctx context.Context, amount float64, from, to string, notifier viewkit.Notifier) (float64, float64, string) {
	fromRate, fromSource := s.latestRate(ctx, from, notifier)
	toRate, toSource := s.latestRate(ctx, to, notifier)

	source := RateSourceLatest
	if fromSource == RateSourceFallback || toSource == RateSourceFallback {
		source = RateSourceFallback
	}

	usd := amount / fromRate
	converted := usd * toRate
	effective := toRate / fromRate
	return converted, effective, source
}

// convertPeriodAverage конвертирует по среднему курсу за период
// Если средних за период нет, деградирует к latest с информационным
// уведомлением - отчет лучше с приближенным курсом, чем никакой
func (s *CurrencyService) convertPeriodAverage(ctx context.Context, req *entity.ConvertRequest, notifier viewkit.Notifier) (float64, float64, string, error) {
	if req.Year == 0 || (req.Quarter == 0 && req.Month == 0) {
		return 0, 0, "", ErrPeriodRequired
	}

	fromRate, fromOK := s.periodRate(ctx, req.FromCurrency, req.Year, req.Quarter, req.Month)
	toRate, toOK := s.periodRate(ctx, req.ToCurrency, req.Year, req.Quarter, req.Month)

	if !fromOK || !toOK {
		if notifier != nil {
			notifier.Info(fmt.Sprintf("Средний курс за период недоступен, применен последний курс %s/%s", req.FromCurrency, req.ToCurrency))
		}
		converted, rate, source := s.convertLatest(ctx, req.Amount, req.FromCurrency, req.ToCurrency, notifier)
		return converted, rate, source, nil
	}

	usd := req.Amount / fromRate
	converted := usd * toRate
	return converted, toRate / fromRate, RateSourcePeriod, nil
}

// periodRate достает средний курс валюты за период: кэш, затем БД
// USD всегда 1
func (s *CurrencyService) periodRate(ctx context.Context, code string, year, quarter, month int) (float64, bool) {
	if code == "USD" {
		return 1.0, true
	}

	periodKey := util.PeriodKey(year, quarter, month)
	if s.cache != nil {
		if rate, ok, err := s.cache.GetPeriodAverage(ctx, code, periodKey); err == nil && ok {
			return rate, true
		}
	}

	rate, err := s.rateRepo.PeriodAverage(ctx, code, year, quarter, month)
	if err != nil {
		if !errors.Is(err, repository.ErrRateNotFound) {
			logger.Error().Err(err).Str("currency", code).Msg("failed to load period average rate")
		}
		return 0, false
	}

	if s.cache != nil {
		if err := s.cache.SetPeriodAverage(ctx, code, periodKey, rate); err != nil {
			logger.Warn().Err(err).Str("currency", code).Msg("failed to cache period average rate")
		}
	}

	return rate, true
}

// latestRate достает последний курс валюты: кэш, затем БД, затем
// встроенный резерв с предупреждением
func (s *CurrencyService) latestRate(ctx context.Context, code string, notifier viewkit.Notifier) (float64, string) {
	if code == "USD" {
		return 1.0, RateSourceLatest
	}

	if s.cache != nil {
		cached, err := s.cache.GetLatest(ctx, code)
		if err != nil {
			logger.Warn().Err(err).Str("currency", code).Msg("rate cache read failed")
		} else if cached != nil {
			return cached.Rate, RateSourceLatest
		}
	}

	rec, err := s.rateRepo.Latest(ctx, code)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.SetLatest(ctx, rec); cerr != nil {
				logger.Warn().Err(cerr).Str("currency", code).Msg("failed to cache latest rate")
			}
		}
		return rec.Rate, RateSourceLatest
	}
	if !errors.Is(err, repository.ErrRateNotFound) {
		logger.Error().Err(err).Str("currency", code).Msg("failed to load latest rate")
	}

	fallback := defaultRates[code]
	metrics.RecordFallbackRate(code)
	logger.Warn().Str("currency", code).Float64("rate", fallback).
		Msg("latest exchange rate unavailable, using built-in fallback")
	if notifier != nil {
		notifier.Warning(fmt.Sprintf("Актуальный курс %s недоступен, применен резервный курс %s", code, strconv.FormatFloat(fallback, 'f', -1, 64)))
	}
	return fallback, RateSourceFallback
}

// LatestRates возвращает последние известные курсы всех валют справочника
// Для валют без строк в БД подставляется резервный курс
func (s *CurrencyService) LatestRates(ctx context.Context) ([]entity.ExchangeRate, error) {
	stored, err := s.rateRepo.LatestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest rates: %w", err)
	}

	byCode := make(map[string]entity.ExchangeRate, len(stored))
	for _, r := range stored {
		byCode[r.CurrencyCode] = r
	}

	result := make([]entity.ExchangeRate, 0, len(defaultRates))
	for code, fallback := range defaultRates {
		if r, ok := byCode[code]; ok {
			result = append(result, r)
			continue
		}
		result = append(result, entity.ExchangeRate{
			ID:           uuid.New(),
			CurrencyCode: code,
			Rate:         fallback,
			RateDate:     time.Time{},
		})
	}

	return result, nil
}

// FormatMoney форматирует сумму по правилам отображения валюты:
// VND и IDR без дробной части, остальные с двумя знаками
func FormatMoney(amount float64, currency string) string {
	if zeroDecimalCurrencies[currency] {
		return fmt.Sprintf("%s %s", currency, groupThousands(strconv.FormatFloat(math.Round(amount), 'f', 0, 64)))
	}
	return fmt.Sprintf("%s %s", currency, groupThousands(strconv.FormatFloat(amount, 'f', 2, 64)))
}

// groupThousands вставляет разделители тысяч в числовую строку
func groupThousands(num string) string {
	neg := false
	if len(num) > 0 && num[0] == '-' {
		neg = true
		num = num[1:]
	}

	intPart := num
	fracPart := ""
	for i := 0; i < len(num); i++ {
		if num[i] == '.' {
			intPart = num[:i]
			fracPart = num[i:]
			break
		}
	}

	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}

	res := string(out) + fracPart
	if neg {
		res = "-" + res
	}
	return res
}
