package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/viewkit"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPriceNotFound     = errors.New("price record not found")
	ErrAgreementNotFound = errors.New("supplier agreement not found")
	ErrRateNotFound      = errors.New("exchange rate not found")
	ErrNoteNotFound      = errors.New("note not found")
)

// RecordPort - универсальный контракт доменного менеджера
// Скрывает хранение: вызывающая сторона не знает про SQL, файлы или
// какую-либо внутрипроцессную структуру
type RecordPort interface {
	List(ctx context.Context, q viewkit.Query) ([]entity.Record, int, error)
	Get(ctx context.Context, id uuid.UUID) (entity.Record, error)
	Add(ctx context.Context, rec entity.Record) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.Record) error
	// Delete - мягкое удаление: статус выставляется в inactive
	Delete(ctx context.Context, id uuid.UUID) error
	// HardDelete - физическое удаление строки
	HardDelete(ctx context.Context, id uuid.UUID) error
	Capabilities() viewkit.Capabilities
}

// PriceRepository - хранилище стандартных цен и записей аудита
// Замена текущей записи выполняется в одной транзакции, инвариант
// "не больше одной текущей записи на product_code" держит репозиторий
type PriceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.StandardPrice, error)
	CurrentByProductCode(ctx context.Context, code string) (*entity.StandardPrice, error)
	ListCurrent(ctx context.Context) ([]entity.StandardPrice, error)
	ListAll(ctx context.Context) ([]entity.StandardPrice, error)
	ListByProductCode(ctx context.Context, code string) ([]entity.StandardPrice, error)

	// Insert добавляет запись без предшественника
	Insert(ctx context.Context, rec *entity.StandardPrice) error
	// Supersede в одной транзакции снимает is_current у предшественника,
	// вставляет новую запись и пишет запись аудита
	Supersede(ctx context.Context, rec *entity.StandardPrice, predecessorID uuid.UUID, change *entity.PriceChangeRecord) error
	// InsertHistorical вставляет запись задним числом (is_current=false)
	// с записью аудита, без замены текущей
	InsertHistorical(ctx context.Context, rec *entity.StandardPrice, change *entity.PriceChangeRecord) error

	SetCurrent(ctx context.Context, id uuid.UUID, current bool) error
	UpdateChangeReason(ctx context.Context, id uuid.UUID, reason string) error
	// HardDeleteAndPromote удаляет строку; если строка была текущей,
	// самая свежая из оставшихся по тому же коду становится текущей
	HardDeleteAndPromote(ctx context.Context, id uuid.UUID) error

	ListChanges(ctx context.Context, productCode string) ([]entity.PriceChangeRecord, error)
}

// AgreementRepository - аналог PriceRepository для закупочной стороны
// Инварианты действуют в разрезе пары (product_code, supplier_id)
type AgreementRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SupplierAgreement, error)
	CurrentByKey(ctx context.Context, productCode string, supplierID uuid.UUID) (*entity.SupplierAgreement, error)
	ListCurrent(ctx context.Context) ([]entity.SupplierAgreement, error)
	ListAll(ctx context.Context) ([]entity.SupplierAgreement, error)
	ListByKey(ctx context.Context, productCode string, supplierID uuid.UUID) ([]entity.SupplierAgreement, error)

	Insert(ctx context.Context, rec *entity.SupplierAgreement) error
	Supersede(ctx context.Context, rec *entity.SupplierAgreement, predecessorID uuid.UUID, change *entity.PriceChangeRecord) error
	InsertHistorical(ctx context.Context, rec *entity.SupplierAgreement, change *entity.PriceChangeRecord) error

	SetCurrent(ctx context.Context, id uuid.UUID, current bool) error
	UpdateChangeReason(ctx context.Context, id uuid.UUID, reason string) error
	HardDeleteAndPromote(ctx context.Context, id uuid.UUID) error
}

// RateRepository - порт курсов валют (только чтение для ядра,
// запись выполняет загрузчик курсов)
type RateRepository interface {
	Latest(ctx context.Context, currencyCode string) (*entity.ExchangeRate, error)
	LatestAll(ctx context.Context) ([]entity.ExchangeRate, error)
	// PeriodAverage возвращает средний курс за календарный квартал
	// (month=0) либо месяц (quarter=0)
	PeriodAverage(ctx context.Context, currencyCode string, year, quarter, month int) (float64, error)
	Insert(ctx context.Context, rate *entity.ExchangeRate) error
}

// SalesRepository - внешний порт транзакций продаж для анализа отклонений
type SalesRepository interface {
	Observations(ctx context.Context, from, to time.Time) ([]entity.SalesObservation, error)
}

// NoteRepository - заметки пользователей к страницам
type NoteRepository interface {
	Get(ctx context.Context, userID, pageID string) (*entity.PageNote, error)
	Upsert(ctx context.Context, note *entity.PageNote) error
	Delete(ctx context.Context, userID, pageID string) error
}

// normalizeBool приводит исторические строковые формы флага к bool
// Источники писали "true"/"1"/"yes" вперемешку с настоящими булевыми
func normalizeBool(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes":
			return true
		}
	case int:
		return x != 0
	case int64:
		return x != 0
	}
	return false
}
