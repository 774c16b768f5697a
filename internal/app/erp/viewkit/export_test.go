package viewkit

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"cedarworks/internal/app/erp/entity"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	assert.Equal(t, "products_20260830_140509.csv", ExportFilename("products", now, "csv"))
	assert.Equal(t, "employees_20260830_140509.xlsx", ExportFilename("employees", now, "xlsx"))
}

func TestExportCSV(t *testing.T) {
	// Arrange
	spec := TableSpec{
		Entity: "products",
		Columns: []Column{
			{Key: "product_code", Label: "Код"},
			{Key: "name", Label: "Наименование"},
			{Key: "price", Label: "Цена"},
		},
	}
	rows := []entity.Record{
		{"product_code": "PC-100", "name": "Widget, large", "price": 100.5},
		{"product_code": "PC-200", "name": "Gadget", "price": 250.0},
	}

	var buf bytes.Buffer

	// Act
	err := ExportCSV(&buf, spec, rows)

	// Assert
	assert.NoError(t, err)
	data := buf.Bytes()

	// UTF-8 BOM в начале файла
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	// Окончания строк CRLF
	assert.Contains(t, string(data), "\r\n")

	// Обратный разбор: заголовок - подписи колонок, значения сохранены
	r := csv.NewReader(bytes.NewReader(data[3:]))
	records, err := r.ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, []string{"Код", "Наименование", "Цена"}, records[0])
	assert.Equal(t, []string{"PC-100", "Widget, large", "100.5"}, records[1])
	assert.Equal(t, []string{"PC-200", "Gadget", "250"}, records[2])
}

func TestExportCSV_MissingValuesEmpty(t *testing.T) {
	spec := TableSpec{
		Entity:  "products",
		Columns: []Column{{Key: "a", Label: "A"}, {Key: "b", Label: "B"}},
	}
	rows := []entity.Record{{"a": "x"}}

	var buf bytes.Buffer
	err := ExportCSV(&buf, spec, rows)

	assert.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "x,\r\n"))
}

func TestExportXLSX(t *testing.T) {
	// Arrange
	spec := TableSpec{
		Entity: "products",
		Columns: []Column{
			{Key: "product_code", Label: "Код"},
			{Key: "price", Label: "Цена"},
		},
	}
	rows := []entity.Record{
		{"product_code": "PC-100", "price": 100.5},
	}

	var buf bytes.Buffer

	// Act
	err := ExportXLSX(&buf, spec, rows)

	// Assert: книга читается обратно и содержит заголовок с данными
	assert.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	assert.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	header, err := f.GetCellValue(sheet, "A1")
	assert.NoError(t, err)
	assert.Equal(t, "Код", header)

	code, err := f.GetCellValue(sheet, "A2")
	assert.NoError(t, err)
	assert.Equal(t, "PC-100", code)
}
