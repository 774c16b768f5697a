package viewkit

import (
	"strings"
	"testing"
	"time"

	"cedarworks/internal/app/erp/entity"

	"github.com/stretchr/testify/assert"
)

// memoryPort отдает фиксированный набор записей без собственной
// фильтрации - кит фильтрует в памяти
type memoryPort struct {
	rows []entity.Record
}

func (p *memoryPort) List(q Query) ([]entity.Record, int, error) {
	return p.rows, len(p.rows), nil
}

func (p *memoryPort) Capabilities() Capabilities {
	return Capabilities{}
}

func productRows() []entity.Record {
	return []entity.Record{
		{"product_code": "PC-100", "name": "Widget", "price": 100.0, "category": "finished", "created": time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"product_code": "PC-200", "name": "Gadget", "price": 250.0, "category": "finished", "created": time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)},
		{"product_code": "MB-300", "name": "Motherboard", "price": 80.0, "category": "raw", "created": time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"product_code": "PC-400", "name": "Widget Pro", "price": 400.0, "category": "raw", "created": time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)},
	}
}

func productSpec() TableSpec {
	return TableSpec{
		Entity: "products",
		Columns: []Column{
			{Key: "product_code", Label: "Код"},
			{Key: "name", Label: "Наименование"},
			{Key: "price", Label: "Цена"},
		},
		Searchable: []string{"product_code", "name"},
	}
}

// ===================== Filtering Tests =====================

func TestTablePage_EqualsFilter(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Filters: map[string]Predicate{
		"category": {Op: OpEquals, Value: "raw"},
	}})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestTablePage_ContainsFilterCaseInsensitive(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Filters: map[string]Predicate{
		"name": {Op: OpContains, Value: "widget"},
	}})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestTablePage_RangeFilter(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	from := 100.0
	to := 300.0
	result, err := table.Page(Query{Filters: map[string]Predicate{
		"price": {Op: OpInRange, From: from, To: to},
	}})

	assert.NoError(t, err)
	// 100 и 250 входят, границы включительно
	assert.Equal(t, 2, result.Total)
}

func TestTablePage_RangeFilterOpenBounds(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Filters: map[string]Predicate{
		"price": {Op: OpInRange, From: 250.0},
	}})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestTablePage_InSetFilter(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Filters: map[string]Predicate{
		"product_code": {Op: OpInSet, Values: []interface{}{"PC-100", "MB-300"}},
	}})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestTablePage_DateRangeFilter(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Filters: map[string]Predicate{
		"created": {Op: OpInRange, From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}})

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Total)
}

// ===================== Search Tests =====================

func TestTablePage_SearchAcrossFields(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Search: "mb-"})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "MB-300", result.Rows[0]["product_code"])
}

func TestTablePage_EmptySearchMatchesAll(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Search: "   "})

	assert.NoError(t, err)
	assert.Equal(t, 4, result.Total)
}

// ===================== FixedFilter Tests =====================

func TestTablePage_FixedFilterAlwaysApplies(t *testing.T) {
	spec := productSpec()
	spec.FixedFilter = func(rec entity.Record) bool {
		code, _ := rec["product_code"].(string)
		return !strings.HasPrefix(code, "MB-")
	}
	table := NewTable(spec, &memoryPort{rows: productRows()})

	result, err := table.Page(Query{})

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	for _, row := range result.Rows {
		assert.NotContains(t, row["product_code"], "MB-")
	}
}

// ===================== Sorting and Pagination Tests =====================

func TestTablePage_SortDesc(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Sort: &Sort{Field: "price", Dir: DirDesc}})

	assert.NoError(t, err)
	assert.InDelta(t, 400.0, result.Rows[0]["price"].(float64), 0.001)
	assert.InDelta(t, 80.0, result.Rows[3]["price"].(float64), 0.001)
}

func TestTablePage_Pagination(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Page: 2, PageSize: 3, Sort: &Sort{Field: "price", Dir: DirAsc}})

	assert.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Len(t, result.Rows, 1)
	assert.InDelta(t, 400.0, result.Rows[0]["price"].(float64), 0.001)
}

func TestTablePage_PageBeyondEnd(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	result, err := table.Page(Query{Page: 10, PageSize: 20})

	assert.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Empty(t, result.Rows)
}

func TestQueryNormalize(t *testing.T) {
	q := Query{Page: 0, PageSize: 0}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)

	q = Query{Page: 3, PageSize: 500}.Normalize()
	assert.Equal(t, MaxPageSize, q.PageSize)
}

// ===================== Filtered (export set) Tests =====================

func TestTableFiltered_ReturnsWholeSetNotPage(t *testing.T) {
	table := NewTable(productSpec(), &memoryPort{rows: productRows()})

	rows, err := table.Filtered(Query{Page: 1, PageSize: 2, Filters: map[string]Predicate{
		"category": {Op: OpEquals, Value: "finished"},
	}})

	assert.NoError(t, err)
	// Выгрузка охватывает весь отфильтрованный набор, не страницу
	assert.Len(t, rows, 2)
}
