package view

import (
	"fmt"
	"strings"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/viewkit"
)

// Роли пользователей системы
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSales      = "sales"
	RoleAccounting = "accounting"
	RoleStaff      = "staff"
)

// Сущности страниц
const (
	EntityEmployees   = "employees"
	EntityCustomers   = "customers"
	EntityProducts    = "products"
	EntityQuotations  = "quotations"
	EntityPrices      = "standard_prices"
	EntityAgreements  = "supplier_agreements"
	EntitySuppliers   = "suppliers"
	EntityCashFlows   = "cash_flows"
	EntityNotices     = "notices"
	EntityWorkReports = "work_reports"
)

// mbPrefix - префикс кодов продуктов направления MB, скрытых со страниц
// продаж. Авторитетен именно префикс кода, не категория
const mbPrefix = "MB-"

func fptr(v float64) *float64 { return &v }

// NotMB пропускает только записи, чей код продукта не начинается с MB-
func NotMB(rec entity.Record) bool {
	code, _ := rec["product_code"].(string)
	return !strings.HasPrefix(code, mbPrefix)
}

// TableDefs описывает таблицы БД для универсального порта записей
func TableDefs() map[string]repository.TableDef {
	return map[string]repository.TableDef{
		EntityEmployees: {
			Table:      "employees",
			Columns:    []string{"id", "name", "phone", "email", "department", "position", "country", "city", "hire_date", "status", "created_at", "updated_at"},
			Searchable: []string{"name", "email", "department"},
		},
		EntityCustomers: {
			Table:      "customers",
			Columns:    []string{"id", "name", "contact_name", "phone", "email", "country", "city", "address", "status", "created_at", "updated_at"},
			Searchable: []string{"name", "contact_name", "email"},
		},
		EntityProducts: {
			Table:      "products",
			Columns:    []string{"id", "product_code", "name", "category", "unit", "description", "status", "created_at", "updated_at"},
			Searchable: []string{"product_code", "name", "category"},
		},
		EntityQuotations: {
			Table:      "quotations",
			Columns:    []string{"id", "quotation_no", "customer_name", "product_code", "product_name", "quantity", "unit_price", "currency", "total", "quote_date", "valid_until", "status", "created_at", "updated_at"},
			Searchable: []string{"quotation_no", "customer_name", "product_code"},
		},
		EntitySuppliers: {
			Table:      "suppliers",
			Columns:    []string{"id", "name", "contact_name", "phone", "email", "country", "city", "status", "created_at", "updated_at"},
			Searchable: []string{"name", "contact_name"},
		},
		EntityCashFlows: {
			Table:      "cash_flows",
			Columns:    []string{"id", "flow_date", "direction", "category", "amount", "currency", "counterparty", "memo", "status", "created_at", "updated_at"},
			Searchable: []string{"category", "counterparty", "memo"},
		},
		EntityNotices: {
			Table:      "notices",
			Columns:    []string{"id", "title", "body", "author", "pinned", "status", "created_at", "updated_at"},
			Searchable: []string{"title", "body", "author"},
		},
		EntityWorkReports: {
			Table:      "work_reports",
			Columns:    []string{"id", "report_date", "author", "department", "summary", "details", "status", "created_at", "updated_at"},
			Searchable: []string{"author", "summary", "details"},
		},
	}
}

// TableSpecs описывает табличные представления страниц
// Страницы продаж (котировки) несут фиксированный фильтр NotMB
func TableSpecs() map[string]viewkit.TableSpec {
	return map[string]viewkit.TableSpec{
		EntityEmployees: {
			Entity: EntityEmployees,
			Columns: []viewkit.Column{
				{Key: "name", Label: "Имя"},
				{Key: "phone", Label: "Телефон"},
				{Key: "email", Label: "Email"},
				{Key: "department", Label: "Отдел"},
				{Key: "position", Label: "Должность"},
				{Key: "hire_date", Label: "Дата найма"},
				{Key: "status", Label: "Статус"},
			},
			Searchable: []string{"name", "email", "department"},
		},
		EntityCustomers: {
			Entity: EntityCustomers,
			Columns: []viewkit.Column{
				{Key: "name", Label: "Название"},
				{Key: "contact_name", Label: "Контактное лицо"},
				{Key: "phone", Label: "Телефон"},
				{Key: "email", Label: "Email"},
				{Key: "country", Label: "Страна"},
				{Key: "city", Label: "Город"},
			},
			Searchable: []string{"name", "contact_name", "email"},
		},
		EntityProducts: {
			Entity: EntityProducts,
			Columns: []viewkit.Column{
				{Key: "product_code", Label: "Код"},
				{Key: "name", Label: "Наименование"},
				{Key: "category", Label: "Категория"},
				{Key: "unit", Label: "Ед. изм."},
				{Key: "status", Label: "Статус"},
			},
			Searchable: []string{"product_code", "name", "category"},
		},
		EntityQuotations: {
			Entity: EntityQuotations,
			Columns: []viewkit.Column{
				{Key: "quotation_no", Label: "Номер"},
				{Key: "customer_name", Label: "Клиент"},
				{Key: "product_code", Label: "Код продукта"},
				{Key: "quantity", Label: "Количество"},
				{Key: "unit_price", Label: "Цена"},
				{Key: "currency", Label: "Валюта"},
				{Key: "total", Label: "Сумма"},
				{Key: "quote_date", Label: "Дата"},
				{Key: "status", Label: "Статус"},
			},
			Searchable:  []string{"quotation_no", "customer_name", "product_code"},
			FixedFilter: NotMB,
		},
		EntityPrices: {
			Entity: EntityPrices,
			Columns: []viewkit.Column{
				{Key: "product_code", Label: "Код продукта"},
				{Key: "product_name", Label: "Наименование"},
				{Key: "price_usd", Label: "Цена USD"},
				{Key: "price_local", Label: "Цена (локальная)"},
				{Key: "local_currency", Label: "Валюта"},
				{Key: "effective_date", Label: "Действует с"},
				{Key: "is_current", Label: "Текущая"},
			},
			Searchable: []string{"product_code", "product_name"},
		},
		EntityAgreements: {
			Entity: EntityAgreements,
			Columns: []viewkit.Column{
				{Key: "product_code", Label: "Код продукта"},
				{Key: "supplier_name", Label: "Поставщик"},
				{Key: "price_usd", Label: "Цена USD"},
				{Key: "price_local", Label: "Цена (локальная)"},
				{Key: "local_currency", Label: "Валюта"},
				{Key: "minimum_quantity", Label: "Мин. партия"},
				{Key: "start_date", Label: "Начало"},
				{Key: "end_date", Label: "Окончание"},
				{Key: "is_current", Label: "Текущее"},
			},
			Searchable: []string{"product_code", "supplier_name"},
		},
		EntityCashFlows: {
			Entity: EntityCashFlows,
			Columns: []viewkit.Column{
				{Key: "flow_date", Label: "Дата"},
				{Key: "direction", Label: "Направление"},
				{Key: "category", Label: "Категория"},
				{Key: "amount", Label: "Сумма"},
				{Key: "currency", Label: "Валюта"},
				{Key: "counterparty", Label: "Контрагент"},
				{Key: "memo", Label: "Примечание"},
			},
			Searchable: []string{"category", "counterparty", "memo"},
		},
		EntityNotices: {
			Entity: EntityNotices,
			Columns: []viewkit.Column{
				{Key: "title", Label: "Заголовок"},
				{Key: "author", Label: "Автор"},
				{Key: "pinned", Label: "Закреплено"},
				{Key: "created_at", Label: "Создано"},
			},
			Searchable: []string{"title", "body", "author"},
		},
		EntityWorkReports: {
			Entity: EntityWorkReports,
			Columns: []viewkit.Column{
				{Key: "report_date", Label: "Дата"},
				{Key: "author", Label: "Автор"},
				{Key: "department", Label: "Отдел"},
				{Key: "summary", Label: "Итог"},
			},
			Searchable: []string{"author", "summary", "details"},
		},
	}
}

var countryCities = map[string][]string{
	"KR": {"Seoul", "Busan", "Incheon", "Daegu"},
	"VN": {"Hanoi", "Ho Chi Minh City", "Da Nang", "Hai Phong"},
	"ID": {"Jakarta", "Surabaya", "Bandung", "Medan"},
	"MM": {"Yangon", "Mandalay", "Naypyidaw"},
}

// cityVisible скрывает поле города пока не выбрана страна
// Каскад страна->город: список городов зависит от выбранной страны
func cityVisible(values entity.Record) bool {
	country, _ := values["country"].(string)
	_, known := countryCities[country]
	return known
}

// FormSpecs описывает формы страниц в декларативном виде
func FormSpecs() map[string]viewkit.FormSpec {
	countryEnum := []string{"KR", "VN", "ID", "MM"}

	return map[string]viewkit.FormSpec{
		EntityEmployees: {
			Name: EntityEmployees,
			Fields: []viewkit.Field{
				{Key: "name", Label: "Имя", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{MinLen: 2, MaxLen: 100}},
				{Key: "phone", Label: "Телефон", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{Phone: true, PhoneRegion: "KR"}},
				{Key: "email", Label: "Email", Kind: viewkit.KindText, Constraints: viewkit.Constraints{Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`, MaxLen: 200}},
				{Key: "department", Label: "Отдел", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: []string{"sales", "accounting", "production", "management"}}},
				{Key: "position", Label: "Должность", Kind: viewkit.KindText, Constraints: viewkit.Constraints{MaxLen: 100}},
				{Key: "country", Label: "Страна", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: countryEnum}},
				{Key: "city", Label: "Город", Kind: viewkit.KindEnum, VisibleIf: cityVisible, Constraints: viewkit.Constraints{Custom: cityMatchesCountry}},
				{Key: "hire_date", Label: "Дата найма", Kind: viewkit.KindDate, Required: true},
			},
		},
		EntityCustomers: {
			Name: EntityCustomers,
			Fields: []viewkit.Field{
				{Key: "name", Label: "Название", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{MinLen: 2, MaxLen: 200}},
				{Key: "contact_name", Label: "Контактное лицо", Kind: viewkit.KindText, Constraints: viewkit.Constraints{MaxLen: 100}},
				{Key: "phone", Label: "Телефон", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{Phone: true, PhoneRegion: "KR"}},
				{Key: "email", Label: "Email", Kind: viewkit.KindText, Constraints: viewkit.Constraints{Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`, MaxLen: 200}},
				{Key: "country", Label: "Страна", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: countryEnum}},
				{Key: "city", Label: "Город", Kind: viewkit.KindEnum, VisibleIf: cityVisible, Constraints: viewkit.Constraints{Custom: cityMatchesCountry}},
				{Key: "address", Label: "Адрес", Kind: viewkit.KindMultiline, Constraints: viewkit.Constraints{MaxLen: 500}},
			},
		},
		EntityProducts: {
			Name: EntityProducts,
			Fields: []viewkit.Field{
				{Key: "product_code", Label: "Код", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{Pattern: `^[A-Z]{2,4}-[A-Za-z0-9-]+$`, MaxLen: 100}},
				{Key: "name", Label: "Наименование", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{MinLen: 2, MaxLen: 200}},
				{Key: "category", Label: "Категория", Kind: viewkit.KindEnum, Constraints: viewkit.Constraints{Enum: []string{"raw", "finished", "service"}}},
				{Key: "unit", Label: "Ед. изм.", Kind: viewkit.KindText, Constraints: viewkit.Constraints{MaxLen: 20}},
				{Key: "description", Label: "Описание", Kind: viewkit.KindMultiline, Constraints: viewkit.Constraints{MaxLen: 1000}},
			},
		},
		EntityQuotations: {
			Name: EntityQuotations,
			Fields: []viewkit.Field{
				{Key: "quotation_no", Label: "Номер", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{MaxLen: 50}},
				{Key: "customer_name", Label: "Клиент", Kind: viewkit.KindForeignKey, Required: true, ForeignKey: "customers"},
				{Key: "product_code", Label: "Код продукта", Kind: viewkit.KindForeignKey, Required: true, ForeignKey: "products"},
				{Key: "quantity", Label: "Количество", Kind: viewkit.KindInteger, Required: true, Constraints: viewkit.Constraints{Min: fptr(1)}},
				{Key: "unit_price", Label: "Цена за единицу", Kind: viewkit.KindDecimal, Required: true, Constraints: viewkit.Constraints{Min: fptr(0.01)}},
				{Key: "currency", Label: "Валюта", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: []string{"USD", "KRW", "VND", "IDR", "CNY", "EUR"}}},
				{Key: "quote_date", Label: "Дата", Kind: viewkit.KindDate, Required: true},
				{Key: "valid_until", Label: "Действительна до", Kind: viewkit.KindDate},
			},
		},
		EntityPrices: {
			Name: EntityPrices,
			Fields: []viewkit.Field{
				{Key: "product_code", Label: "Код продукта", Kind: viewkit.KindForeignKey, Required: true, ForeignKey: "products"},
				{Key: "price_local", Label: "Цена (локальная)", Kind: viewkit.KindDecimal, Required: true, Constraints: viewkit.Constraints{Min: fptr(0.01)}},
				{Key: "local_currency", Label: "Валюта", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: []string{"USD", "KRW", "VND", "IDR", "CNY", "EUR"}}},
				{Key: "exchange_rate", Label: "Курс к USD", Kind: viewkit.KindDecimal, Required: true, Constraints: viewkit.Constraints{Min: fptr(0.000001)}},
				{Key: "effective_date", Label: "Действует с", Kind: viewkit.KindDate, Required: true},
				{Key: "change_reason", Label: "Причина изменения", Kind: viewkit.KindMultiline, Constraints: viewkit.Constraints{MaxLen: 500}},
			},
		},
		EntityAgreements: {
			Name: EntityAgreements,
			Fields: []viewkit.Field{
				{Key: "product_code", Label: "Код продукта", Kind: viewkit.KindForeignKey, Required: true, ForeignKey: "products"},
				{Key: "supplier_id", Label: "Поставщик", Kind: viewkit.KindForeignKey, Required: true, ForeignKey: "suppliers"},
				{Key: "price_local", Label: "Цена (локальная)", Kind: viewkit.KindDecimal, Required: true, Constraints: viewkit.Constraints{Min: fptr(0.01)}},
				{Key: "local_currency", Label: "Валюта", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: []string{"USD", "KRW", "VND", "IDR", "CNY", "EUR"}}},
				{Key: "exchange_rate", Label: "Курс к USD", Kind: viewkit.KindDecimal, Required: true, Constraints: viewkit.Constraints{Min: fptr(0.000001)}},
				{Key: "minimum_quantity", Label: "Мин. партия", Kind: viewkit.KindInteger, Constraints: viewkit.Constraints{Min: fptr(0)}},
				{Key: "payment_terms", Label: "Условия оплаты", Kind: viewkit.KindText, Constraints: viewkit.Constraints{MaxLen: 200}},
				{Key: "start_date", Label: "Начало", Kind: viewkit.KindDate, Required: true},
				{Key: "end_date", Label: "Окончание", Kind: viewkit.KindDate, Required: true},
				{Key: "effective_date", Label: "Действует с", Kind: viewkit.KindDate, Required: true},
				{Key: "change_reason", Label: "Причина изменения", Kind: viewkit.KindMultiline, Constraints: viewkit.Constraints{MaxLen: 500}},
			},
		},
		EntityCashFlows: {
			Name: EntityCashFlows,
			Fields: []viewkit.Field{
				{Key: "flow_date", Label: "Дата", Kind: viewkit.KindDate, Required: true},
				{Key: "direction", Label: "Направление", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: []string{"in", "out"}}},
				{Key: "category", Label: "Категория", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{MaxLen: 100}},
				{Key: "amount", Label: "Сумма", Kind: viewkit.KindDecimal, Required: true, Constraints: viewkit.Constraints{Min: fptr(0.01)}},
				{Key: "currency", Label: "Валюта", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: []string{"USD", "KRW", "VND", "IDR", "CNY", "EUR"}}},
				{Key: "counterparty", Label: "Контрагент", Kind: viewkit.KindText, Constraints: viewkit.Constraints{MaxLen: 200}},
				{Key: "memo", Label: "Примечание", Kind: viewkit.KindMultiline, Constraints: viewkit.Constraints{MaxLen: 500}},
			},
		},
		EntityNotices: {
			Name: EntityNotices,
			Fields: []viewkit.Field{
				{Key: "title", Label: "Заголовок", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{MinLen: 2, MaxLen: 200}},
				{Key: "body", Label: "Текст", Kind: viewkit.KindMultiline, Required: true, Constraints: viewkit.Constraints{MaxLen: 5000}},
				{Key: "pinned", Label: "Закрепить", Kind: viewkit.KindBoolean, Default: false},
			},
		},
		EntityWorkReports: {
			Name: EntityWorkReports,
			Fields: []viewkit.Field{
				{Key: "report_date", Label: "Дата", Kind: viewkit.KindDate, Required: true},
				{Key: "department", Label: "Отдел", Kind: viewkit.KindEnum, Required: true, Constraints: viewkit.Constraints{Enum: []string{"sales", "accounting", "production", "management"}}},
				{Key: "summary", Label: "Итог", Kind: viewkit.KindText, Required: true, Constraints: viewkit.Constraints{MaxLen: 300}},
				{Key: "details", Label: "Подробности", Kind: viewkit.KindMultiline, Constraints: viewkit.Constraints{MaxLen: 5000}},
			},
		},
	}
}

// cityMatchesCountry не проверяет принадлежность города стране напрямую -
// каскад формы гарантирует что список городов уже отфильтрован.
// Здесь проверяется только что значение входит хоть в один справочник
func cityMatchesCountry(value interface{}) error {
	city, ok := value.(string)
	if !ok || city == "" {
		return nil
	}
	for _, cities := range countryCities {
		for _, c := range cities {
			if c == city {
				return nil
			}
		}
	}
	return fmt.Errorf("неизвестный город: %s", city)
}

// CitiesFor возвращает города выбранной страны для каскадного справочника
func CitiesFor(country string) []string {
	return countryCities[country]
}

// Pages возвращает страницы приложения с вкладками
// Вкладка без ролей видна всем; удаление везде закрыто ролью admin
// на уровне маршрутов
func Pages() []viewkit.Page {
	return []viewkit.Page{
		{
			ID:    "hr",
			Title: "Кадры",
			Tabs: []viewkit.Tab{
				{Label: "Сотрудники", Icon: "users", Roles: []string{RoleAdmin, RoleManager}},
				{Label: "Отчеты о работе", Icon: "clipboard"},
			},
		},
		{
			ID:    "sales",
			Title: "Продажи",
			Tabs: []viewkit.Tab{
				{Label: "Клиенты", Icon: "briefcase", Roles: []string{RoleAdmin, RoleManager, RoleSales}},
				{Label: "Котировки", Icon: "file-text", Roles: []string{RoleAdmin, RoleManager, RoleSales}},
			},
		},
		{
			ID:    "catalog",
			Title: "Каталог",
			Tabs: []viewkit.Tab{
				{Label: "Продукты", Icon: "package"},
				{Label: "Стандартные цены", Icon: "dollar-sign", Roles: []string{RoleAdmin, RoleManager, RoleAccounting}},
				{Label: "Соглашения с поставщиками", Icon: "handshake", Roles: []string{RoleAdmin, RoleManager, RoleAccounting}},
			},
		},
		{
			ID:    "finance",
			Title: "Финансы",
			Tabs: []viewkit.Tab{
				{Label: "Движение денег", Icon: "trending-up", Roles: []string{RoleAdmin, RoleAccounting}},
				{Label: "Курсы валют", Icon: "refresh-cw"},
				{Label: "Анализ отклонений", Icon: "bar-chart", Roles: []string{RoleAdmin, RoleManager, RoleAccounting}},
			},
		},
		{
			ID:    "office",
			Title: "Офис",
			Tabs: []viewkit.Tab{
				{Label: "Объявления", Icon: "bell"},
			},
		},
	}
}

// PageByID находит страницу по идентификатору
func PageByID(id string) (viewkit.Page, bool) {
	for _, p := range Pages() {
		if p.ID == id {
			return p, true
		}
	}
	return viewkit.Page{}, false
}
