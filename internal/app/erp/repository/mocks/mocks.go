package mocks

import (
	"context"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/viewkit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPriceRepository мок для PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.StandardPrice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.StandardPrice), args.Error(1)
}

func (m *MockPriceRepository) CurrentByProductCode(ctx context.Context, code string) (*entity.StandardPrice, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.StandardPrice), args.Error(1)
}

func (m *MockPriceRepository) ListCurrent(ctx context.Context) ([]entity.StandardPrice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StandardPrice), args.Error(1)
}

func (m *MockPriceRepository) ListAll(ctx context.Context) ([]entity.StandardPrice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StandardPrice), args.Error(1)
}

func (m *MockPriceRepository) ListByProductCode(ctx context.Context, code string) ([]entity.StandardPrice, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StandardPrice), args.Error(1)
}

func (m *MockPriceRepository) Insert(ctx context.Context, rec *entity.StandardPrice) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockPriceRepository) Supersede(ctx context.Context, rec *entity.StandardPrice, predecessorID uuid.UUID, change *entity.PriceChangeRecord) error {
	args := m.Called(ctx, rec, predecessorID, change)
	return args.Error(0)
}

func (m *MockPriceRepository) InsertHistorical(ctx context.Context, rec *entity.StandardPrice, change *entity.PriceChangeRecord) error {
	args := m.Called(ctx, rec, change)
	return args.Error(0)
}

func (m *MockPriceRepository) SetCurrent(ctx context.Context, id uuid.UUID, current bool) error {
	args := m.Called(ctx, id, current)
	return args.Error(0)
}

func (m *MockPriceRepository) UpdateChangeReason(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockPriceRepository) HardDeleteAndPromote(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPriceRepository) ListChanges(ctx context.Context, productCode string) ([]entity.PriceChangeRecord, error) {
	args := m.Called(ctx, productCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PriceChangeRecord), args.Error(1)
}

// MockAgreementRepository мок для AgreementRepository
type MockAgreementRepository struct {
	mock.Mock
}

func (m *MockAgreementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SupplierAgreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SupplierAgreement), args.Error(1)
}

func (m *MockAgreementRepository) CurrentByKey(ctx context.Context, productCode string, supplierID uuid.UUID) (*entity.SupplierAgreement, error) {
	args := m.Called(ctx, productCode, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SupplierAgreement), args.Error(1)
}

func (m *MockAgreementRepository) ListCurrent(ctx context.Context) ([]entity.SupplierAgreement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SupplierAgreement), args.Error(1)
}

func (m *MockAgreementRepository) ListAll(ctx context.Context) ([]entity.SupplierAgreement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SupplierAgreement), args.Error(1)
}

func (m *MockAgreementRepository) ListByKey(ctx context.Context, productCode string, supplierID uuid.UUID) ([]entity.SupplierAgreement, error) {
	args := m.Called(ctx, productCode, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SupplierAgreement), args.Error(1)
}

func (m *MockAgreementRepository) Insert(ctx context.Context, rec *entity.SupplierAgreement) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockAgreementRepository) Supersede(ctx context.Context, rec *entity.SupplierAgreement, predecessorID uuid.UUID, change *entity.PriceChangeRecord) error {
	args := m.Called(ctx, rec, predecessorID, change)
	return args.Error(0)
}

func (m *MockAgreementRepository) InsertHistorical(ctx context.Context, rec *entity.SupplierAgreement, change *entity.PriceChangeRecord) error {
	args := m.Called(ctx, rec, change)
	return args.Error(0)
}

func (m *MockAgreementRepository) SetCurrent(ctx context.Context, id uuid.UUID, current bool) error {
	args := m.Called(ctx, id, current)
	return args.Error(0)
}

func (m *MockAgreementRepository) UpdateChangeReason(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockAgreementRepository) HardDeleteAndPromote(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRateRepository мок для RateRepository
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) Latest(ctx context.Context, currencyCode string) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockRateRepository) LatestAll(ctx context.Context) ([]entity.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExchangeRate), args.Error(1)
}

func (m *MockRateRepository) PeriodAverage(ctx context.Context, currencyCode string, year, quarter, month int) (float64, error) {
	args := m.Called(ctx, currencyCode, year, quarter, month)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockRateRepository) Insert(ctx context.Context, rate *entity.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// MockSalesRepository мок для SalesRepository
type MockSalesRepository struct {
	mock.Mock
}

func (m *MockSalesRepository) Observations(ctx context.Context, from, to time.Time) ([]entity.SalesObservation, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SalesObservation), args.Error(1)
}

// MockNoteRepository мок для NoteRepository
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Get(ctx context.Context, userID, pageID string) (*entity.PageNote, error) {
	args := m.Called(ctx, userID, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PageNote), args.Error(1)
}

func (m *MockNoteRepository) Upsert(ctx context.Context, note *entity.PageNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepository) Delete(ctx context.Context, userID, pageID string) error {
	args := m.Called(ctx, userID, pageID)
	return args.Error(0)
}

// MockRecordPort мок для RecordPort
type MockRecordPort struct {
	mock.Mock
}

func (m *MockRecordPort) List(ctx context.Context, q viewkit.Query) ([]entity.Record, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]entity.Record), args.Int(1), args.Error(2)
}

func (m *MockRecordPort) Get(ctx context.Context, id uuid.UUID) (entity.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.Record), args.Error(1)
}

func (m *MockRecordPort) Add(ctx context.Context, rec entity.Record) (uuid.UUID, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRecordPort) Update(ctx context.Context, id uuid.UUID, patch entity.Record) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockRecordPort) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordPort) HardDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordPort) Capabilities() viewkit.Capabilities {
	args := m.Called()
	return args.Get(0).(viewkit.Capabilities)
}

// MockMessagePublisher мок для MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockRateCache мок для RateCache
type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) GetLatest(ctx context.Context, currencyCode string) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockRateCache) SetLatest(ctx context.Context, rate *entity.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRateCache) GetPeriodAverage(ctx context.Context, currencyCode, periodKey string) (float64, bool, error) {
	args := m.Called(ctx, currencyCode, periodKey)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockRateCache) SetPeriodAverage(ctx context.Context, currencyCode, periodKey string, avg float64) error {
	args := m.Called(ctx, currencyCode, periodKey, avg)
	return args.Error(0)
}
