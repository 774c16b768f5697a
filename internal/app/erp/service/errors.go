package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrPriceNotFound     = errors.New("price record not found")
	ErrAgreementNotFound = errors.New("supplier agreement not found")
	ErrNoteNotFound      = errors.New("note not found")
	ErrNoteTooLong       = errors.New("note exceeds 200 characters")
	ErrUnknownCurrency   = errors.New("unknown currency code")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidRate       = errors.New("exchange rate must be positive")
	ErrInvalidPeriod     = errors.New("agreement end date is before start date")
	ErrPeriodRequired    = errors.New("period average requires year and quarter or month")
	ErrInvalidDeleteMode = errors.New("delete mode must be soft or hard")
)
