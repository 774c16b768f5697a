package viewkit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cedarworks/internal/app/erp/entity"
)

// Op - вид предиката фильтра
type Op string

const (
	OpEquals   Op = "equals"
	OpContains Op = "contains"
	OpInRange  Op = "in-range"
	OpInSet    Op = "in-set"
)

// Predicate - условие на значение одного поля
type Predicate struct {
	Op     Op
	Value  interface{}   // equals, contains
	Values []interface{} // in-set
	From   interface{}   // in-range, nil - без нижней границы
	To     interface{}   // in-range, nil - без верхней границы
}

// Direction - направление сортировки
type Direction string

const (
	DirAsc  Direction = "asc"
	DirDesc Direction = "desc"
)

// Sort - сортировка по одному полю
type Sort struct {
	Field string
	Dir   Direction
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query - запрос страницы табличной коллекции
type Query struct {
	Filters  map[string]Predicate
	Search   string
	Sort     *Sort
	Page     int
	PageSize int
}

// Normalize приводит номер страницы и размер к допустимым границам
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// Capabilities - что порт умеет делать сам
// Если фильтрация не поддерживается, кит фильтрует в памяти после полной
// выборки, ограниченной FetchLimit
type Capabilities struct {
	Filter   bool
	Paginate bool
}

// Column - колонка таблицы со стабильным порядком
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TableSpec - декларация таблицы страницы
type TableSpec struct {
	Entity     string
	Columns    []Column
	Searchable []string // строковые поля участвующие в поиске (OR)
	FetchLimit int      // потолок полной выборки для in-memory фильтрации

	// FixedFilter всегда применяется к строкам независимо от запроса
	// (например исключение MB-продуктов на страницах продаж)
	FixedFilter func(entity.Record) bool
}

// RecordPort - минимальный контракт источника записей для таблицы
type RecordPort interface {
	List(q Query) ([]entity.Record, int, error)
	Capabilities() Capabilities
}

// PageResult - страница записей плюс полное количество
type PageResult struct {
	Rows  []entity.Record `json:"rows"`
	Total int             `json:"total"`
}

// Table связывает TableSpec с портом записей
type Table struct {
	spec TableSpec
	port RecordPort
}

func NewTable(spec TableSpec, port RecordPort) *Table {
	if spec.FetchLimit <= 0 {
		spec.FetchLimit = 5000
	}
	return &Table{spec: spec, port: port}
}

func (t *Table) Spec() TableSpec {
	return t.spec
}

// Page возвращает одну страницу согласно запросу
// Порт с поддержкой фильтрации и пагинации получает запрос как есть;
// иначе выполняется полная выборка с фильтрацией в памяти
func (t *Table) Page(q Query) (*PageResult, error) {
	q = q.Normalize()
	caps := t.port.Capabilities()

	if caps.Filter && caps.Paginate && t.spec.FixedFilter == nil {
		rows, total, err := t.port.List(q)
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		return &PageResult{Rows: rows, Total: total}, nil
	}

	filtered, err := t.Filtered(q)
	if err != nil {
		return nil, err
	}

	total := len(filtered)
	start := (q.Page - 1) * q.PageSize
	if start >= total {
		return &PageResult{Rows: []entity.Record{}, Total: total}, nil
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return &PageResult{Rows: filtered[start:end], Total: total}, nil
}

// Filtered возвращает весь отфильтрованный набор (не страницу)
// Используется выгрузкой: экспорт охватывает фильтр целиком
func (t *Table) Filtered(q Query) ([]entity.Record, error) {
	q = q.Normalize()

	all, _, err := t.port.List(Query{Page: 1, PageSize: t.spec.FetchLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	filtered := make([]entity.Record, 0, len(all))
	for _, rec := range all {
		if t.spec.FixedFilter != nil && !t.spec.FixedFilter(rec) {
			continue
		}
		if !matchFilters(rec, q.Filters) {
			continue
		}
		if !t.matchSearch(rec, q.Search) {
			continue
		}
		filtered = append(filtered, rec)
	}

	if q.Sort != nil {
		sortRecords(filtered, *q.Sort)
	}

	return filtered, nil
}

func matchFilters(rec entity.Record, filters map[string]Predicate) bool {
	for field, p := range filters {
		if !matchPredicate(rec[field], p) {
			return false
		}
	}
	return true
}

func matchPredicate(value interface{}, p Predicate) bool {
	switch p.Op {
	case OpEquals:
		return compareValues(value, p.Value) == 0
	case OpContains:
		s, ok := value.(string)
		want, ok2 := p.Value.(string)
		if !ok || !ok2 {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(want))
	case OpInRange:
		if p.From != nil && compareValues(value, p.From) < 0 {
			return false
		}
		if p.To != nil && compareValues(value, p.To) > 0 {
			return false
		}
		return true
	case OpInSet:
		for _, v := range p.Values {
			if compareValues(value, v) == 0 {
				return true
			}
		}
		return false
	}
	return false
}

func (t *Table) matchSearch(rec entity.Record, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range t.spec.Searchable {
		if s, ok := rec[field].(string); ok {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return false
}

// compareValues сравнивает значения приводя числа к float64
// Возвращает -1/0/1; несравнимые значения считаются неравными (2)
func compareValues(a, b interface{}) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}

	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}

	if a == b {
		return 0
	}
	return 2
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func sortRecords(rows []entity.Record, s Sort) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][s.Field], rows[j][s.Field])
		if s.Dir == DirDesc {
			return c > 0 && c != 2
		}
		return c < 0
	})
}
