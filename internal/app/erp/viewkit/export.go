package viewkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"cedarworks/internal/app/erp/entity"
)

// utf8BOM добавляется в начало CSV чтобы Excel корректно понял кодировку
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportFilename возвращает имя файла выгрузки: <entity>_<YYYYMMDD_HHMMSS>.<ext>
func ExportFilename(entityName string, now time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", entityName, now.Format("20060102_150405"), ext)
}

// ExportCSV пишет отфильтрованный набор в CSV
// UTF-8 с BOM, заголовок - отображаемые подписи колонок, разделитель запятая,
// окончания строк CRLF
func ExportCSV(w io.Writer, spec TableSpec, rows []entity.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		header[i] = col.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range rows {
		row := make([]string, len(spec.Columns))
		for i, col := range spec.Columns {
			row[i] = formatCell(rec[col.Key])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportXLSX пишет тот же набор в книгу Excel
func ExportXLSX(w io.Writer, spec TableSpec, rows []entity.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(spec.Columns))
	for i, col := range spec.Columns {
		header[i] = col.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, rec := range rows {
		row := make([]interface{}, len(spec.Columns))
		for j, col := range spec.Columns {
			row[j] = cellValue(rec[col.Key])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// formatCell приводит значение ячейки к отображаемой строке
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// cellValue оставляет числа числами для Excel, остальное - строкой
func cellValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return x
	}
}
