package entity

import (
	"time"

	"github.com/google/uuid"
)

// Record - запись доменной сущности в виде набора атрибутов
// Страницы объявляют какие атрибуты они читают; обращение к необъявленному
// атрибуту - ошибка программирования, а не данных
type Record map[string]interface{}

// StandardPrice представляет запись стандартной цены продажи
// История append-only: правка цены создает новую запись, у предшественника
// снимается флаг is_current
type StandardPrice struct {
	ID            uuid.UUID `json:"price_id" gorm:"column:id;primaryKey" db:"id"`
	ProductID     uuid.UUID `json:"product_id" db:"product_id"`
	ProductCode   string    `json:"product_code" gorm:"index" db:"product_code"`
	ProductName   string    `json:"product_name" db:"product_name"`
	PriceUSD      float64   `json:"price_usd" db:"price_usd"`
	PriceLocal    float64   `json:"price_local" db:"price_local"`
	LocalCurrency string    `json:"local_currency" db:"local_currency"` // ISO-4217
	ExchangeRate  float64   `json:"exchange_rate" db:"exchange_rate"`   // единиц валюты за 1 USD
	EffectiveDate time.Time `json:"effective_date" db:"effective_date"`
	ChangeReason  string    `json:"change_reason" db:"change_reason"`
	IsCurrent     bool      `json:"is_current" db:"is_current"`
	CreatedBy     string    `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (StandardPrice) TableName() string {
	return "standard_prices"
}

// SupplierAgreement представляет ценовое соглашение с поставщиком
// Аналог StandardPrice на стороне закупок: флаг is_current действует
// в разрезе пары (product_code, supplier_id)
type SupplierAgreement struct {
	ID              uuid.UUID `json:"agreement_id" gorm:"column:id;primaryKey" db:"id"`
	ProductID       uuid.UUID `json:"product_id" db:"product_id"`
	ProductCode     string    `json:"product_code" gorm:"index" db:"product_code"`
	ProductName     string    `json:"product_name" db:"product_name"`
	SupplierID      uuid.UUID `json:"supplier_id" gorm:"index" db:"supplier_id"`
	SupplierName    string    `json:"supplier_name" db:"supplier_name"`
	PriceUSD        float64   `json:"price_usd" db:"price_usd"`
	PriceLocal      float64   `json:"price_local" db:"price_local"`
	LocalCurrency   string    `json:"local_currency" db:"local_currency"`
	ExchangeRate    float64   `json:"exchange_rate" db:"exchange_rate"`
	MinimumQuantity int       `json:"minimum_quantity" db:"minimum_quantity"`
	PaymentTerms    string    `json:"payment_terms" db:"payment_terms"`
	StartDate       time.Time `json:"start_date" db:"start_date"`
	EndDate         time.Time `json:"end_date" db:"end_date"`
	EffectiveDate   time.Time `json:"effective_date" db:"effective_date"`
	ChangeReason    string    `json:"change_reason" db:"change_reason"`
	IsCurrent       bool      `json:"is_current" db:"is_current"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedBy       string    `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func (SupplierAgreement) TableName() string {
	return "supplier_agreements"
}

// PriceChangeRecord - запись аудита о смене цены
// Создается при каждой замене текущей записи; задним числом правится
// только change_reason
type PriceChangeRecord struct {
	ID                   uuid.UUID `json:"id" gorm:"primaryKey" db:"id"`
	ProductCode          string    `json:"product_code" gorm:"index" db:"product_code"`
	SupplierID           *uuid.UUID `json:"supplier_id,omitempty" db:"supplier_id"` // nil для стандартных цен
	OldPriceUSD          float64   `json:"old_price_usd" db:"old_price_usd"`
	NewPriceUSD          float64   `json:"new_price_usd" db:"new_price_usd"`
	OldPriceLocal        float64   `json:"old_price_local" db:"old_price_local"`
	NewPriceLocal        float64   `json:"new_price_local" db:"new_price_local"`
	Currency             string    `json:"currency" db:"currency"`
	ChangeDate           time.Time `json:"change_date" db:"change_date"`
	ChangeReason         string    `json:"change_reason" db:"change_reason"`
	ExchangeRateAtChange float64   `json:"exchange_rate_at_change" db:"exchange_rate_at_change"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

func (PriceChangeRecord) TableName() string {
	return "price_change_records"
}

// ExchangeRate - курс валюты к доллару США
// rate = единиц валюты за 1 USD
type ExchangeRate struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey" db:"id"`
	CurrencyCode string    `json:"currency_code" gorm:"index" db:"currency_code"`
	Rate         float64   `json:"rate" db:"rate"`
	RateDate     time.Time `json:"rate_date" db:"rate_date"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

// SalesObservation - фактическая цена продажи для анализа отклонений
// Поступает из внешнего порта транзакций продаж
type SalesObservation struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey" db:"id"`
	ProductCode string    `json:"product_code" gorm:"index" db:"product_code"`
	ActualPrice float64   `json:"actual_price" db:"actual_price"` // в USD
	Currency    string    `json:"currency" db:"currency"`
	SoldAt      time.Time `json:"sold_at" db:"sold_at"`
}

func (SalesObservation) TableName() string {
	return "sales_observations"
}

// PriceVariance - отклонение фактических цен от стандартной по продукту
type PriceVariance struct {
	ProductCode    string  `json:"product_code"`
	StandardPrice  float64 `json:"standard_price"`
	AvgActualPrice float64 `json:"avg_actual_price"`
	VariancePct    float64 `json:"variance_pct"`
	SampleCount    int     `json:"sample_count"`
	Currency       string  `json:"currency"`
}

// PageNote - заметка пользователя к странице
// Не больше одной заметки на пару (user_id, page_id), до 200 символов
type PageNote struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	PageID    string    `json:"page_id" bson:"page_id"`
	Text      string    `json:"text" bson:"text"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// PriceEvent представляет событие изменения цены для Kafka
// Отправляется при каждой замене текущей записи новой
type PriceEvent struct {
	EventType    string    `json:"event_type"` // PRICE_SUPERSEDED
	ProductCode  string    `json:"product_code"`
	OldPriceUSD  float64   `json:"old_price_usd"`
	NewPriceUSD  float64   `json:"new_price_usd"`
	Currency     string    `json:"currency"`
	ChangeReason string    `json:"change_reason"`
	Timestamp    time.Time `json:"timestamp"`
}

const EventPriceSuperseded = "PRICE_SUPERSEDED"
