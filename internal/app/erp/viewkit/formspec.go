package viewkit

import (
	"cedarworks/internal/app/erp/entity"
)

// FieldKind - тип поля формы
type FieldKind string

const (
	KindText       FieldKind = "text"
	KindMultiline  FieldKind = "multiline"
	KindInteger    FieldKind = "integer"
	KindDecimal    FieldKind = "decimal"
	KindEnum       FieldKind = "enum"
	KindDate       FieldKind = "date"
	KindBoolean    FieldKind = "boolean"
	KindForeignKey FieldKind = "foreign-key"
)

// Constraints - ограничения значения поля, проверяются после коэрции типа
type Constraints struct {
	Min     *float64 // нижняя граница для integer/decimal
	Max     *float64 // верхняя граница для integer/decimal
	MinLen  int      // минимальная длина строки
	MaxLen  int      // максимальная длина строки (0 - без ограничения)
	Pattern string   // регулярное выражение для строковых полей
	Enum    []string // допустимые значения для kind=enum

	// Phone включает локале-зависимую нормализацию телефона
	// PhoneRegion - двухбуквенный код страны (KR, VN, MM, ...)
	Phone       bool
	PhoneRegion string

	// Custom - произвольный предикат; возвращенная ошибка показывается
	// как сообщение у поля
	Custom func(value interface{}) error
}

// Field - одно поле декларативной формы
type Field struct {
	Key      string
	Label    string
	Kind     FieldKind
	Required bool
	Default  interface{}

	Constraints Constraints

	// VisibleIf пересчитывается по уже введенным значениям;
	// скрытое поле не дает значения в записи
	VisibleIf func(values entity.Record) bool

	// ForeignKey - имя порта справочника для kind=foreign-key
	ForeignKey string
}

// FormSpec - упорядоченный список полей формы
type FormSpec struct {
	Name   string
	Fields []Field
}

// Choice - вариант выбора для enum и foreign-key полей
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChoiceLoader загружает варианты справочника по имени порта
// Реализация кеширует выборку в пределах одного рендера
type ChoiceLoader interface {
	Choices(name string) ([]Choice, error)
}

// FieldView - поле формы, подготовленное к отображению
type FieldView struct {
	Key      string      `json:"key"`
	Label    string      `json:"label"`
	Kind     FieldKind   `json:"kind"`
	Required bool        `json:"required"`
	Value    interface{} `json:"value,omitempty"`
	Choices  []Choice    `json:"choices,omitempty"`
	Visible  bool        `json:"visible"`
	Error    string      `json:"error,omitempty"`
}

// FormView - форма, подготовленная к отображению
type FormView struct {
	Name   string      `json:"name"`
	Fields []FieldView `json:"fields"`
}

// SubmitResult - исход обработки записи принимающей стороной
type SubmitResult struct {
	OK      bool
	Message string
}

// SubmitFunc вызывается ровно один раз на успешную отправку формы
type SubmitFunc func(record entity.Record) SubmitResult
