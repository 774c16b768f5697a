package entity

import (
	"time"

	"github.com/google/uuid"
)

type AddStandardPriceRequest struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	ProductCode   string    `json:"product_code" validate:"required,min=2,max=100"`
	ProductName   string    `json:"product_name" validate:"omitempty,max=200"`
	PriceLocal    float64   `json:"price_local" validate:"required,gt=0"`
	LocalCurrency string    `json:"local_currency" validate:"required,len=3"`
	ExchangeRate  float64   `json:"exchange_rate" validate:"required,gt=0"`
	EffectiveDate time.Time `json:"effective_date" validate:"required"`
	ChangeReason  string    `json:"change_reason" validate:"omitempty,max=500"`
}

type UpdatePriceRequest struct {
	PriceUSD     float64 `json:"price_usd" validate:"omitempty,gt=0"`
	PriceLocal   float64 `json:"price_local" validate:"required,gt=0"`
	Currency     string  `json:"currency" validate:"required,len=3"`
	ExchangeRate float64 `json:"exchange_rate" validate:"required,gt=0"`
	ChangeReason string  `json:"change_reason" validate:"omitempty,max=500"`
}

type AddAgreementRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	ProductCode     string    `json:"product_code" validate:"required,min=2,max=100"`
	ProductName     string    `json:"product_name" validate:"omitempty,max=200"`
	SupplierID      uuid.UUID `json:"supplier_id" validate:"required"`
	SupplierName    string    `json:"supplier_name" validate:"omitempty,max=200"`
	PriceLocal      float64   `json:"price_local" validate:"required,gt=0"`
	LocalCurrency   string    `json:"local_currency" validate:"required,len=3"`
	ExchangeRate    float64   `json:"exchange_rate" validate:"required,gt=0"`
	MinimumQuantity int       `json:"minimum_quantity" validate:"omitempty,gte=0"`
	PaymentTerms    string    `json:"payment_terms" validate:"omitempty,max=200"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	EffectiveDate   time.Time `json:"effective_date" validate:"required"`
	ChangeReason    string    `json:"change_reason" validate:"omitempty,max=500"`
}

type ConvertRequest struct {
	Amount       float64 `json:"amount" validate:"required"`
	FromCurrency string  `json:"from_currency" validate:"required,len=3"`
	ToCurrency   string  `json:"to_currency" validate:"required,len=3"`
	Policy       string  `json:"policy" validate:"required,oneof=latest manual period_average"`
	ManualRate   float64 `json:"manual_rate" validate:"omitempty,gt=0"`
	Year         int     `json:"year" validate:"omitempty,gte=2000"`
	Quarter      int     `json:"quarter" validate:"omitempty,gte=1,lte=4"`
	Month        int     `json:"month" validate:"omitempty,gte=1,lte=12"`
}

type SaveNoteRequest struct {
	Text string `json:"text" validate:"max=200"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type PriceListResponse struct {
	Prices []StandardPrice `json:"prices"`
	Total  int             `json:"total"`
}

type AgreementListResponse struct {
	Agreements []SupplierAgreement `json:"agreements"`
	Total      int                 `json:"total"`
}

type VarianceResponse struct {
	Variances []PriceVariance `json:"variances"`
	Total     int             `json:"total"`
}

type ConvertResponse struct {
	Amount        float64 `json:"amount"`
	Converted     float64 `json:"converted"`
	Display       string  `json:"display"`
	ExchangeRate  float64 `json:"exchange_rate"`
	RateSource    string  `json:"rate_source"` // latest, manual, period_average, fallback
}
