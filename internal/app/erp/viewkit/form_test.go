package viewkit

import (
	"errors"
	"testing"
	"time"

	"cedarworks/internal/app/erp/entity"

	"github.com/stretchr/testify/assert"
)

type staticLoader struct {
	choices map[string][]Choice
	calls   int
}

func (l *staticLoader) Choices(name string) ([]Choice, error) {
	l.calls++
	if c, ok := l.choices[name]; ok {
		return c, nil
	}
	return nil, errors.New("unknown port: " + name)
}

func employeeSpec() FormSpec {
	min := 1.0
	return FormSpec{
		Name: "employees",
		Fields: []Field{
			{Key: "name", Label: "Имя", Kind: KindText, Required: true, Constraints: Constraints{MinLen: 2, MaxLen: 50}},
			{Key: "phone", Label: "Телефон", Kind: KindText, Required: true, Constraints: Constraints{Phone: true, PhoneRegion: "KR"}},
			{Key: "age", Label: "Возраст", Kind: KindInteger, Constraints: Constraints{Min: &min}},
			{Key: "department", Label: "Отдел", Kind: KindEnum, Required: true, Constraints: Constraints{Enum: []string{"sales", "accounting"}}},
			{Key: "hire_date", Label: "Дата найма", Kind: KindDate, Required: true},
			{Key: "remote", Label: "Удаленно", Kind: KindBoolean},
		},
	}
}

func validEmployee() map[string]string {
	return map[string]string{
		"name":       "Kim Minsu",
		"phone":      "01012345678",
		"age":        "34",
		"department": "sales",
		"hire_date":  "2024-03-01",
		"remote":     "true",
	}
}

// ===================== Submit Tests =====================

func TestFormSubmit_Success(t *testing.T) {
	// Arrange
	form := NewForm(employeeSpec(), &staticLoader{})
	collector := NewCollector()
	state := NewStore().Scoped("hr")
	state.Set("form", "name", "draft")

	var submitted entity.Record
	cb := func(rec entity.Record) SubmitResult {
		submitted = rec
		return SubmitResult{OK: true, Message: "saved"}
	}

	// Act
	outcome := form.Submit(validEmployee(), cb, collector, state)

	// Assert
	assert.True(t, outcome.OK)
	assert.Equal(t, "Kim Minsu", submitted["name"])
	assert.Equal(t, "010-1234-5678", submitted["phone"])
	assert.Equal(t, int64(34), submitted["age"])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), submitted["hire_date"])
	assert.Equal(t, true, submitted["remote"])

	// Успех очищает черновик формы из состояния
	assert.Nil(t, state.Get("form", "name", nil))

	notifications := collector.Drain()
	assert.Len(t, notifications, 1)
	assert.Equal(t, LevelSuccess, notifications[0].Level)
}

func TestFormSubmit_RequiredMissing(t *testing.T) {
	form := NewForm(employeeSpec(), &staticLoader{})
	collector := NewCollector()

	raw := validEmployee()
	raw["name"] = "   "

	called := false
	outcome := form.Submit(raw, func(entity.Record) SubmitResult {
		called = true
		return SubmitResult{OK: true}
	}, collector, nil)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.FieldErrors, "name")
	// Callback не вызывается при ошибках валидации
	assert.False(t, called)

	notifications := collector.Drain()
	assert.Equal(t, LevelWarning, notifications[0].Level)
}

func TestFormSubmit_CoercionError(t *testing.T) {
	form := NewForm(employeeSpec(), &staticLoader{})

	raw := validEmployee()
	raw["age"] = "thirty"
	raw["hire_date"] = "01.03.2024"

	outcome := form.Submit(raw, nil, NewCollector(), nil)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.FieldErrors, "age")
	assert.Contains(t, outcome.FieldErrors, "hire_date")
}

func TestFormSubmit_PhoneTooShort(t *testing.T) {
	form := NewForm(employeeSpec(), &staticLoader{})

	raw := validEmployee()
	raw["phone"] = "010-12-3"

	outcome := form.Submit(raw, nil, NewCollector(), nil)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.FieldErrors["phone"], "too short")
}

func TestFormSubmit_EnumRejected(t *testing.T) {
	form := NewForm(employeeSpec(), &staticLoader{})

	raw := validEmployee()
	raw["department"] = "marketing"

	outcome := form.Submit(raw, nil, NewCollector(), nil)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.FieldErrors, "department")
}

func TestFormSubmit_RepositoryErrorKeepsValues(t *testing.T) {
	form := NewForm(employeeSpec(), &staticLoader{})
	collector := NewCollector()
	state := NewStore().Scoped("hr")

	outcome := form.Submit(validEmployee(), func(entity.Record) SubmitResult {
		return SubmitResult{OK: false, Message: "duplicate employee"}
	}, collector, state)

	assert.False(t, outcome.OK)
	assert.Equal(t, "duplicate employee", outcome.Message)
	// Запись сохранена в исходе - пользователь не теряет ввод
	assert.Equal(t, "Kim Minsu", outcome.Record["name"])

	notifications := collector.Drain()
	assert.Equal(t, LevelError, notifications[0].Level)
}

func TestFormSubmit_HiddenFieldGivesNoValue(t *testing.T) {
	spec := FormSpec{
		Name: "customers",
		Fields: []Field{
			{Key: "country", Label: "Страна", Kind: KindEnum, Required: true, Constraints: Constraints{Enum: []string{"KR", "VN"}}},
			{Key: "city", Label: "Город", Kind: KindText, VisibleIf: func(values entity.Record) bool {
				c, _ := values["country"].(string)
				return c == "KR"
			}},
		},
	}
	form := NewForm(spec, &staticLoader{})

	outcome := form.Submit(map[string]string{"country": "VN", "city": "Seoul"}, func(entity.Record) SubmitResult {
		return SubmitResult{OK: true}
	}, NewCollector(), nil)

	assert.True(t, outcome.OK)
	_, hasCity := outcome.Record["city"]
	assert.False(t, hasCity)
}

// ===================== Render Tests =====================

func TestFormRender_SeedAndDefaults(t *testing.T) {
	spec := employeeSpec()
	spec.Fields[3].Default = "sales"
	form := NewForm(spec, &staticLoader{})

	fv, err := form.Render(entity.Record{"name": "Lee Jiyeon"})

	assert.NoError(t, err)
	assert.Equal(t, "employees", fv.Name)
	assert.Equal(t, "Lee Jiyeon", fv.Fields[0].Value)
	assert.Equal(t, "sales", fv.Fields[3].Value)
	// Enum отдает варианты
	assert.Len(t, fv.Fields[3].Choices, 2)
}

func TestFormRender_ForeignKeyChoicesCachedPerRender(t *testing.T) {
	loader := &staticLoader{choices: map[string][]Choice{
		"products": {{Value: "PC-100", Label: "Widget (PC-100)"}},
	}}
	spec := FormSpec{
		Name: "quotations",
		Fields: []Field{
			{Key: "product_code", Label: "Продукт", Kind: KindForeignKey, ForeignKey: "products"},
			{Key: "alt_product", Label: "Замена", Kind: KindForeignKey, ForeignKey: "products"},
		},
	}
	form := NewForm(spec, loader)

	fv, err := form.Render(nil)

	assert.NoError(t, err)
	assert.Len(t, fv.Fields[0].Choices, 1)
	assert.Len(t, fv.Fields[1].Choices, 1)
	// Один порт - одна загрузка за рендер
	assert.Equal(t, 1, loader.calls)
}
