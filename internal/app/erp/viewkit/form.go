package viewkit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cedarworks/internal/app/erp/entity"
)

const dateLayout = "2006-01-02"

// Form связывает FormSpec с загрузчиком справочников и хранилищем
// состояния представления
type Form struct {
	spec   FormSpec
	loader ChoiceLoader
}

func NewForm(spec FormSpec, loader ChoiceLoader) *Form {
	return &Form{spec: spec, loader: loader}
}

func (f *Form) Spec() FormSpec {
	return f.spec
}

// Render материализует форму: поле за полем в объявленном порядке,
// начальное значение seed[key] либо default, варианты справочников
// загружаются лениво и кешируются в пределах этого вызова
func (f *Form) Render(seed entity.Record) (*FormView, error) {
	view := &FormView{Name: f.spec.Name}
	choiceCache := make(map[string][]Choice)

	values := make(entity.Record)
	for _, field := range f.spec.Fields {
		if v, ok := seed[field.Key]; ok {
			values[field.Key] = v
		} else if field.Default != nil {
			values[field.Key] = field.Default
		}
	}

	for _, field := range f.spec.Fields {
		fv := FieldView{
			Key:      field.Key,
			Label:    field.Label,
			Kind:     field.Kind,
			Required: field.Required,
			Value:    values[field.Key],
			Visible:  f.visible(field, values),
		}

		if field.Kind == KindEnum {
			for _, v := range field.Constraints.Enum {
				fv.Choices = append(fv.Choices, Choice{Value: v, Label: v})
			}
		}

		if field.Kind == KindForeignKey && fv.Visible {
			choices, ok := choiceCache[field.ForeignKey]
			if !ok {
				var err error
				choices, err = f.loader.Choices(field.ForeignKey)
				if err != nil {
					return nil, fmt.Errorf("failed to load choices for %s: %w", field.ForeignKey, err)
				}
				choiceCache[field.ForeignKey] = choices
			}
			fv.Choices = choices
		}

		view.Fields = append(view.Fields, fv)
	}

	return view, nil
}

// SubmitOutcome - результат отправки формы
// FieldErrors непустой - валидация не прошла, callback не вызывался,
// введенные значения сохранены для повторной попытки
type SubmitOutcome struct {
	OK          bool
	Record      entity.Record
	FieldErrors map[string]string
	Message     string
}

// Submit прогоняет введенные значения через конвейер
// наличие -> коэрция -> ограничения -> нормализация, и при отсутствии
// ошибок ровно один раз вызывает callback. Исход callback уходит в notifier;
// ошибка репозитория не очищает введенные значения
func (f *Form) Submit(raw map[string]string, cb SubmitFunc, notifier Notifier, state *Scoped) *SubmitOutcome {
	record := make(entity.Record)
	fieldErrors := make(map[string]string)

	for _, field := range f.spec.Fields {
		if !f.visible(field, record) {
			// Скрытое поле не дает значения
			continue
		}

		rawValue := strings.TrimSpace(raw[field.Key])

		if rawValue == "" {
			if d, ok := field.Default.(string); ok && d != "" {
				rawValue = d
			}
		}

		if rawValue == "" {
			if field.Required {
				fieldErrors[field.Key] = fmt.Sprintf("%s is required", field.Label)
			}
			continue
		}

		value, err := coerce(field, rawValue)
		if err != nil {
			fieldErrors[field.Key] = err.Error()
			continue
		}

		if err := checkConstraints(field, value); err != nil {
			fieldErrors[field.Key] = err.Error()
			continue
		}

		value, err = normalize(field, value)
		if err != nil {
			fieldErrors[field.Key] = err.Error()
			continue
		}

		record[field.Key] = value
	}

	if len(fieldErrors) > 0 {
		notifier.Warning("Please correct the highlighted fields")
		return &SubmitOutcome{OK: false, Record: record, FieldErrors: fieldErrors}
	}

	result := cb(record)
	if !result.OK {
		// Ошибка репозитория: значения остаются, пользователь может повторить
		notifier.Error(result.Message)
		return &SubmitOutcome{OK: false, Record: record, Message: result.Message}
	}

	notifier.Success(result.Message)
	if state != nil {
		state.Clear("form")
	}
	return &SubmitOutcome{OK: true, Record: record, Message: result.Message}
}

func (f *Form) visible(field Field, values entity.Record) bool {
	if field.VisibleIf == nil {
		return true
	}
	return field.VisibleIf(values)
}

// coerce приводит сырое строковое значение к типу поля
func coerce(field Field, raw string) (interface{}, error) {
	switch field.Kind {
	case KindText, KindMultiline, KindEnum, KindForeignKey:
		return raw, nil
	case KindInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", field.Label)
		}
		return n, nil
	case KindDecimal:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", field.Label)
		}
		return x, nil
	case KindDate:
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", field.Label)
		}
		return t, nil
	case KindBoolean:
		switch strings.ToLower(raw) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be a boolean", field.Label)
	}
	return nil, fmt.Errorf("unknown field kind %q", field.Kind)
}

func checkConstraints(field Field, value interface{}) error {
	c := field.Constraints

	switch v := value.(type) {
	case int64:
		if c.Min != nil && float64(v) < *c.Min {
			return fmt.Errorf("%s must be at least %v", field.Label, *c.Min)
		}
		if c.Max != nil && float64(v) > *c.Max {
			return fmt.Errorf("%s must be at most %v", field.Label, *c.Max)
		}
	case float64:
		if c.Min != nil && v < *c.Min {
			return fmt.Errorf("%s must be at least %v", field.Label, *c.Min)
		}
		if c.Max != nil && v > *c.Max {
			return fmt.Errorf("%s must be at most %v", field.Label, *c.Max)
		}
	case string:
		if c.MinLen > 0 && len(v) < c.MinLen {
			return fmt.Errorf("%s must be at least %d characters", field.Label, c.MinLen)
		}
		if c.MaxLen > 0 && len(v) > c.MaxLen {
			return fmt.Errorf("%s must be at most %d characters", field.Label, c.MaxLen)
		}
		if c.Pattern != "" {
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern for %s", field.Label)
			}
			if !re.MatchString(v) {
				return fmt.Errorf("%s has invalid format", field.Label)
			}
		}
		if field.Kind == KindEnum && len(c.Enum) > 0 {
			ok := false
			for _, e := range c.Enum {
				if e == v {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("%s must be one of: %s", field.Label, strings.Join(c.Enum, ", "))
			}
		}
	}

	if c.Custom != nil {
		if err := c.Custom(value); err != nil {
			return err
		}
	}

	return nil
}

// normalize выполняет финальное приведение значения
// Строки уже обрезаны на входе; телефоны проходят через нормализатор
func normalize(field Field, value interface{}) (interface{}, error) {
	if field.Constraints.Phone {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a phone number", field.Label)
		}
		normalized, err := NormalizePhone(s, field.Constraints.PhoneRegion)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", field.Label, err)
		}
		return normalized, nil
	}
	return value, nil
}
