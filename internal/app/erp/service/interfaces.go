package service

import (
	"context"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/viewkit"

	"github.com/google/uuid"
)

// MessagePublisher - порт отправки событий (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}

// RateCache - кеш курсов валют (Redis)
type RateCache interface {
	GetLatest(ctx context.Context, currencyCode string) (*entity.ExchangeRate, error)
	SetLatest(ctx context.Context, rate *entity.ExchangeRate) error
	GetPeriodAverage(ctx context.Context, currencyCode, periodKey string) (float64, bool, error)
	SetPeriodAverage(ctx context.Context, currencyCode, periodKey string, avg float64) error
}

type PriceServiceInterface interface {
	AddStandardPrice(ctx context.Context, req *entity.AddStandardPriceRequest, actor string) (*entity.StandardPrice, error)
	UpdatePrice(ctx context.Context, priceID uuid.UUID, req *entity.UpdatePriceRequest, actor string) (*entity.StandardPrice, error)
	UpdateChangeReason(ctx context.Context, priceID uuid.UUID, reason string) error
	ListPrices(ctx context.Context, productCode string, includeHistory bool) ([]entity.StandardPrice, error)
	DeletePrice(ctx context.Context, priceID uuid.UUID, mode string) error
	ListPriceChanges(ctx context.Context, productCode string) ([]entity.PriceChangeRecord, error)
	VarianceAnalysis(ctx context.Context, from, to time.Time) ([]entity.PriceVariance, error)

	AddAgreement(ctx context.Context, req *entity.AddAgreementRequest, actor string) (*entity.SupplierAgreement, error)
	ListAgreements(ctx context.Context, includeHistory bool) ([]entity.SupplierAgreement, error)
	DeleteAgreement(ctx context.Context, agreementID uuid.UUID, mode string) error
}

type CurrencyServiceInterface interface {
	Convert(ctx context.Context, req *entity.ConvertRequest, notifier viewkit.Notifier) (*entity.ConvertResponse, error)
	LatestRates(ctx context.Context) ([]entity.ExchangeRate, error)
}

type NoteServiceInterface interface {
	Load(ctx context.Context, userID, pageID string) (*entity.PageNote, error)
	Save(ctx context.Context, userID, pageID, text string) (*entity.PageNote, error)
	Delete(ctx context.Context, userID, pageID string) error
}
