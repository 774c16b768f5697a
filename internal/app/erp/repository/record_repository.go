package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/viewkit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableDef описывает таблицу доменной сущности для универсального порта
// Один gorm-репозиторий обслуживает сотрудников, клиентов, продукты,
// котировки, движение денег, объявления и отчеты о работе
type TableDef struct {
	Table      string
	Columns    []string
	Searchable []string
	// StatusColumn - колонка мягкого удаления (по умолчанию status)
	StatusColumn string
}

type recordRepository struct {
	db  *gorm.DB
	def TableDef
}

// NewRecordRepository создает универсальный репозиторий записей
func NewRecordRepository(db *gorm.DB, def TableDef) RecordPort {
	if def.StatusColumn == "" {
		def.StatusColumn = "status"
	}
	return &recordRepository{db: db, def: def}
}

func (r *recordRepository) Capabilities() viewkit.Capabilities {
	return viewkit.Capabilities{Filter: true, Paginate: true}
}

// List выбирает страницу записей применяя фильтры на стороне БД
// Размер страницы принимается как есть: выгрузка запрашивает полный
// отфильтрованный набор одним вызовом
func (r *recordRepository) List(ctx context.Context, q viewkit.Query) ([]entity.Record, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = viewkit.DefaultPageSize
	}

	tx := r.db.WithContext(ctx).Table(r.def.Table)
	tx = r.applyFilters(tx, q)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", r.def.Table, err)
	}

	// Поле сортировки проходит ту же проверку что и поля фильтров -
	// в ORDER BY попадают только известные колонки
	order := "created_at DESC"
	if q.Sort != nil && r.knownColumn(q.Sort.Field) {
		dir := "ASC"
		if q.Sort.Dir == viewkit.DirDesc {
			dir = "DESC"
		}
		order = fmt.Sprintf("%s %s", q.Sort.Field, dir)
	}

	var rows []map[string]interface{}
	offset := (q.Page - 1) * q.PageSize
	if err := tx.Order(order).Offset(offset).Limit(q.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", r.def.Table, err)
	}

	records := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, r.normalizeRow(row))
	}

	return records, int(total), nil
}

func (r *recordRepository) applyFilters(tx *gorm.DB, q viewkit.Query) *gorm.DB {
	for field, p := range q.Filters {
		if !r.knownColumn(field) {
			continue
		}
		switch p.Op {
		case viewkit.OpEquals:
			tx = tx.Where(fmt.Sprintf("%s = ?", field), p.Value)
		case viewkit.OpContains:
			tx = tx.Where(fmt.Sprintf("%s ILIKE ?", field), fmt.Sprintf("%%%v%%", p.Value))
		case viewkit.OpInRange:
			if p.From != nil {
				tx = tx.Where(fmt.Sprintf("%s >= ?", field), p.From)
			}
			if p.To != nil {
				tx = tx.Where(fmt.Sprintf("%s <= ?", field), p.To)
			}
		case viewkit.OpInSet:
			tx = tx.Where(fmt.Sprintf("%s IN ?", field), p.Values)
		}
	}

	if s := q.Search; s != "" && len(r.def.Searchable) > 0 {
		var clauses []string
		var args []interface{}
		for _, col := range r.def.Searchable {
			clauses = append(clauses, fmt.Sprintf("%s ILIKE ?", col))
			args = append(args, "%"+s+"%")
		}
		cond := clauses[0]
		for _, c := range clauses[1:] {
			cond += " OR " + c
		}
		tx = tx.Where(cond, args...)
	}

	return tx
}

func (r *recordRepository) knownColumn(name string) bool {
	for _, c := range r.def.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// normalizeRow приводит значения строки к каноническому виду
// Булевы флаги в источниках встречаются и строками
func (r *recordRepository) normalizeRow(row map[string]interface{}) entity.Record {
	rec := make(entity.Record, len(row))
	for k, v := range row {
		if k == "is_current" || k == "is_active" {
			rec[k] = normalizeBool(v)
			continue
		}
		rec[k] = v
	}
	return rec
}

func (r *recordRepository) Get(ctx context.Context, id uuid.UUID) (entity.Record, error) {
	var row map[string]interface{}
	result := r.db.WithContext(ctx).Table(r.def.Table).Where("id = ?", id).Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", result.Error)
	}
	return r.normalizeRow(row), nil
}

func (r *recordRepository) Add(ctx context.Context, rec entity.Record) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()

	row := make(map[string]interface{}, len(rec)+3)
	for k, v := range rec {
		row[k] = v
	}
	row["id"] = id
	row["created_at"] = now
	row["updated_at"] = now

	if err := r.db.WithContext(ctx).Table(r.def.Table).Create(row).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to create record: %w", err)
	}
	return id, nil
}

func (r *recordRepository) Update(ctx context.Context, id uuid.UUID, patch entity.Record) error {
	row := make(map[string]interface{}, len(patch)+1)
	for k, v := range patch {
		row[k] = v
	}
	row["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Table(r.def.Table).Where("id = ?", id).Updates(row)
	if result.Error != nil {
		return fmt.Errorf("failed to update record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete выполняет мягкое удаление: запись остается, статус inactive
func (r *recordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Table(r.def.Table).Where("id = ?", id).
		Updates(map[string]interface{}{
			r.def.StatusColumn: "inactive",
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to soft delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *recordRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Table(r.def.Table).Where("id = ?", id).Delete(nil)
	if result.Error != nil {
		return fmt.Errorf("failed to delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
