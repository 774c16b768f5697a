package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/service"
	"cedarworks/internal/app/erp/view"
	"cedarworks/internal/app/erp/viewkit"
	"cedarworks/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ERPHandler обрабатывает HTTP запросы страниц, форм и таблиц
type ERPHandler struct {
	priceService    service.PriceServiceInterface
	currencyService service.CurrencyServiceInterface
	noteService     service.NoteServiceInterface
	ports           map[string]repository.RecordPort
	sessions        *viewkit.SessionStore
	validator       *validator.Validate

	forms  map[string]viewkit.FormSpec
	tables map[string]viewkit.TableSpec
}

// NewERPHandler создает новый обработчик страниц
func NewERPHandler(
	priceService service.PriceServiceInterface,
	currencyService service.CurrencyServiceInterface,
	noteService service.NoteServiceInterface,
	ports map[string]repository.RecordPort,
	sessions *viewkit.SessionStore,
) *ERPHandler {
	return &ERPHandler{
		priceService:    priceService,
		currencyService: currencyService,
		noteService:     noteService,
		ports:           ports,
		sessions:        sessions,
		validator:       validator.New(),
		forms:           view.FormSpecs(),
		tables:          view.TableSpecs(),
	}
}

// Envelope - конверт ответа: данные плюс накопленные уведомления
type Envelope struct {
	Data          interface{}            `json:"data,omitempty"`
	Notifications []viewkit.Notification `json:"notifications,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}, collector *viewkit.Collector) {
	env := Envelope{Data: data}
	if collector != nil {
		env.Notifications = collector.Drain()
	}
	c.JSON(status, env)
}

// session возвращает Store сессии текущего пользователя
func (h *ERPHandler) session(c *gin.Context) (*viewkit.Store, string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return nil, "", false
	}
	return h.sessions.ForSession(id), id, true
}

func role(c *gin.Context) string {
	r, _ := c.Get("role_name")
	s, _ := r.(string)
	return s
}

// === PAGES ===

type tabView struct {
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

type pageView struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Tabs  []tabView `json:"tabs"`
}

func buildPageView(p viewkit.Page, roleName string) pageView {
	pv := pageView{ID: p.ID, Title: p.Title}
	for _, t := range p.VisibleTabs(roleName) {
		pv.Tabs = append(pv.Tabs, tabView{Label: t.Label, Icon: t.Icon})
	}
	return pv
}

// GetPages обрабатывает GET /pages
// Возвращает все страницы с вкладками, видимыми роли пользователя
func (h *ERPHandler) GetPages(c *gin.Context) {
	roleName := role(c)
	pages := make([]pageView, 0)
	for _, p := range view.Pages() {
		pages = append(pages, buildPageView(p, roleName))
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

// GetPage обрабатывает GET /pages/{id}
// Вход на страницу очищает состояние остальных представлений
func (h *ERPHandler) GetPage(c *gin.Context) {
	pageID := c.Param("id")
	page, ok := view.PageByID(pageID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}

	sess, userID, ok := h.session(c)
	if !ok {
		return
	}
	sess.EnterView(pageID)

	note, err := h.noteService.Load(c.Request.Context(), userID, pageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load page note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page": buildPageView(page, role(c)),
		"note": note,
	})
}

// === FORMS ===

// GetForm обрабатывает GET /pages/{id}/forms/{entity}
// Сохраненные в состоянии сессии значения становятся начальными
func (h *ERPHandler) GetForm(c *gin.Context) {
	pageID := c.Param("id")
	entityName := c.Param("entity")

	spec, ok := h.forms[entityName]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		return
	}

	sess, _, ok := h.session(c)
	if !ok {
		return
	}

	seed := make(entity.Record)
	scoped := sess.Scoped(pageID)
	for _, f := range spec.Fields {
		if v := scoped.Get("form", f.Key, nil); v != nil {
			seed[f.Key] = v
		}
	}

	loader := view.NewChoiceLoader(c.Request.Context(), h.ports)
	form := viewkit.NewForm(spec, loader)
	fv, err := form.Render(seed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render form"})
		return
	}

	c.JSON(http.StatusOK, fv)
}

// SubmitForm обрабатывает POST /pages/{id}/forms/{entity}
// Тело - сырые строковые значения полей; конвейер формы выполняет
// коэрцию и валидацию, исход уходит в конверте уведомлений
func (h *ERPHandler) SubmitForm(c *gin.Context) {
	pageID := c.Param("id")
	entityName := c.Param("entity")

	spec, ok := h.forms[entityName]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		return
	}

	var raw map[string]string
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sess, userID, ok := h.session(c)
	if !ok {
		return
	}
	scoped := sess.Scoped(pageID)

	collector := viewkit.NewCollector()
	loader := view.NewChoiceLoader(c.Request.Context(), h.ports)
	form := viewkit.NewForm(spec, loader)

	outcome := form.Submit(raw, h.submitCallback(c, entityName, userID), collector, scoped)

	if outcome.OK {
		metrics.RecordFormSubmission(pageID, "ok")
		respond(c, http.StatusCreated, gin.H{"record": outcome.Record}, collector)
		return
	}

	metrics.RecordFormSubmission(pageID, "rejected")
	// Введенные значения сохраняются в состоянии для повторной попытки
	for k, v := range outcome.Record {
		scoped.Set("form", k, v)
	}
	respond(c, http.StatusUnprocessableEntity, gin.H{
		"record":       outcome.Record,
		"field_errors": outcome.FieldErrors,
	}, collector)
}

// submitCallback выбирает принимающую сторону формы:
// ценовые сущности идут через движок истории цен, остальные -
// в универсальный порт записей
func (h *ERPHandler) submitCallback(c *gin.Context, entityName, userID string) viewkit.SubmitFunc {
	ctx := c.Request.Context()

	switch entityName {
	case view.EntityPrices:
		return func(rec entity.Record) viewkit.SubmitResult {
			req := priceRequestFromRecord(rec)
			if _, err := h.priceService.AddStandardPrice(ctx, req, userID); err != nil {
				return viewkit.SubmitResult{OK: false, Message: "Не удалось сохранить цену: " + err.Error()}
			}
			return viewkit.SubmitResult{OK: true, Message: "Цена сохранена"}
		}
	case view.EntityAgreements:
		return func(rec entity.Record) viewkit.SubmitResult {
			req, err := agreementRequestFromRecord(rec)
			if err != nil {
				return viewkit.SubmitResult{OK: false, Message: err.Error()}
			}
			if _, err := h.priceService.AddAgreement(ctx, req, userID); err != nil {
				return viewkit.SubmitResult{OK: false, Message: "Не удалось сохранить соглашение: " + err.Error()}
			}
			return viewkit.SubmitResult{OK: true, Message: "Соглашение сохранено"}
		}
	}

	port, ok := h.ports[entityName]
	if !ok {
		return func(entity.Record) viewkit.SubmitResult {
			return viewkit.SubmitResult{OK: false, Message: "Unknown entity: " + entityName}
		}
	}
	return func(rec entity.Record) viewkit.SubmitResult {
		rec["created_by"] = userID
		if _, err := port.Add(ctx, rec); err != nil {
			return viewkit.SubmitResult{OK: false, Message: "Не удалось сохранить запись: " + err.Error()}
		}
		return viewkit.SubmitResult{OK: true, Message: "Запись сохранена"}
	}
}

func recString(rec entity.Record, key string) string {
	s, _ := rec[key].(string)
	return s
}

func recFloat(rec entity.Record, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func recTime(rec entity.Record, key string) time.Time {
	t, _ := rec[key].(time.Time)
	return t
}

func priceRequestFromRecord(rec entity.Record) *entity.AddStandardPriceRequest {
	return &entity.AddStandardPriceRequest{
		ProductCode:   recString(rec, "product_code"),
		PriceLocal:    recFloat(rec, "price_local"),
		LocalCurrency: recString(rec, "local_currency"),
		ExchangeRate:  recFloat(rec, "exchange_rate"),
		EffectiveDate: recTime(rec, "effective_date"),
		ChangeReason:  recString(rec, "change_reason"),
	}
}

func agreementRequestFromRecord(rec entity.Record) (*entity.AddAgreementRequest, error) {
	supplierID, err := uuid.Parse(recString(rec, "supplier_id"))
	if err != nil {
		return nil, errors.New("Некорректный идентификатор поставщика")
	}
	return &entity.AddAgreementRequest{
		ProductCode:     recString(rec, "product_code"),
		SupplierID:      supplierID,
		PriceLocal:      recFloat(rec, "price_local"),
		LocalCurrency:   recString(rec, "local_currency"),
		ExchangeRate:    recFloat(rec, "exchange_rate"),
		MinimumQuantity: int(recFloat(rec, "minimum_quantity")),
		PaymentTerms:    recString(rec, "payment_terms"),
		StartDate:       recTime(rec, "start_date"),
		EndDate:         recTime(rec, "end_date"),
		EffectiveDate:   recTime(rec, "effective_date"),
		ChangeReason:    recString(rec, "change_reason"),
	}, nil
}

// === TABLES ===

// parseTableQuery собирает запрос таблицы из query-параметров
// Фильтры: f_<поле>=значение (равенство), f_<поле>_from / f_<поле>_to
// (диапазон); search, sort, dir, page, page_size
func parseTableQuery(c *gin.Context) viewkit.Query {
	q := viewkit.Query{
		Search:  c.Query("search"),
		Filters: make(map[string]viewkit.Predicate),
	}

	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "0"))

	if sortField := c.Query("sort"); sortField != "" {
		dir := viewkit.DirAsc
		if c.Query("dir") == "desc" {
			dir = viewkit.DirDesc
		}
		q.Sort = &viewkit.Sort{Field: sortField, Dir: dir}
	}

	ranges := make(map[string]*viewkit.Predicate)
	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, "f_") || len(values) == 0 {
			continue
		}
		name := strings.TrimPrefix(key, "f_")
		value := values[0]

		switch {
		case strings.HasSuffix(name, "_from"):
			field := strings.TrimSuffix(name, "_from")
			p := ranges[field]
			if p == nil {
				p = &viewkit.Predicate{Op: viewkit.OpInRange}
				ranges[field] = p
			}
			p.From = coerceFilterValue(value)
		case strings.HasSuffix(name, "_to"):
			field := strings.TrimSuffix(name, "_to")
			p := ranges[field]
			if p == nil {
				p = &viewkit.Predicate{Op: viewkit.OpInRange}
				ranges[field] = p
			}
			p.To = coerceFilterValue(value)
		default:
			q.Filters[name] = viewkit.Predicate{Op: viewkit.OpEquals, Value: coerceFilterValue(value)}
		}
	}
	for field, p := range ranges {
		q.Filters[field] = *p
	}

	return q.Normalize()
}

// coerceFilterValue пытается привести строку фильтра к числу или дате
func coerceFilterValue(s string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return s
}

func (h *ERPHandler) table(entityName string, c *gin.Context) (*viewkit.Table, bool) {
	spec, ok := h.tables[entityName]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return nil, false
	}
	port, ok := h.ports[entityName]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return nil, false
	}
	return viewkit.NewTable(spec, view.BindPort(c.Request.Context(), port)), true
}

// GetTable обрабатывает GET /tables/{entity}
func (h *ERPHandler) GetTable(c *gin.Context) {
	t, ok := h.table(c.Param("entity"), c)
	if !ok {
		return
	}

	result, err := t.Page(parseTableQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load table"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportTable обрабатывает GET /tables/{entity}/export?format=csv|xlsx
// Выгрузка охватывает полный отфильтрованный набор, не текущую страницу
func (h *ERPHandler) ExportTable(c *gin.Context) {
	entityName := c.Param("entity")
	t, ok := h.table(entityName, c)
	if !ok {
		return
	}

	rows, err := t.Filtered(parseTableQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export table"})
		return
	}

	format := c.DefaultQuery("format", "csv")
	filename := viewkit.ExportFilename(entityName, time.Now(), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	switch format {
	case "csv":
		c.Header("Content-Type", "text/csv; charset=utf-8")
		if err := viewkit.ExportCSV(c.Writer, t.Spec(), rows); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV"})
			return
		}
	case "xlsx":
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := viewkit.ExportXLSX(c.Writer, t.Spec(), rows); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write workbook"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
		return
	}

	metrics.RecordExport(entityName, format)
}

// DeleteRecord обрабатывает DELETE /tables/{entity}/{id}
// Двухшаговое удаление: первый запрос взводит подтверждение и ничего
// не удаляет, повторный запрос по той же строке выполняет удаление
func (h *ERPHandler) DeleteRecord(c *gin.Context) {
	entityName := c.Param("entity")
	idStr := c.Param("record_id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	port, ok := h.ports[entityName]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return
	}

	sess, _, ok := h.session(c)
	if !ok {
		return
	}
	scoped := sess.Scoped(entityName)

	collector := viewkit.NewCollector()
	if !scoped.ConfirmDelete("table", idStr) {
		collector.Warning("Повторите удаление для подтверждения")
		respond(c, http.StatusAccepted, gin.H{"pending": true}, collector)
		return
	}

	if err := port.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		collector.Error("Не удалось удалить запись")
		respond(c, http.StatusInternalServerError, nil, collector)
		return
	}

	collector.Success("Запись удалена")
	respond(c, http.StatusOK, gin.H{"deleted": true}, collector)
}

// === NOTES ===

// GetNote обрабатывает GET /pages/{id}/note
func (h *ERPHandler) GetNote(c *gin.Context) {
	_, userID, ok := h.session(c)
	if !ok {
		return
	}

	note, err := h.noteService.Load(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load note"})
		return
	}
	c.JSON(http.StatusOK, note)
}

// SaveNote обрабатывает PUT /pages/{id}/note
// Пустой текст удаляет заметку
func (h *ERPHandler) SaveNote(c *gin.Context) {
	_, userID, ok := h.session(c)
	if !ok {
		return
	}

	var req entity.SaveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	note, err := h.noteService.Save(c.Request.Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrNoteTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Note must be at most 200 characters"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save note"})
		return
	}
	c.JSON(http.StatusOK, note)
}

// DeleteNote обрабатывает DELETE /pages/{id}/note
func (h *ERPHandler) DeleteNote(c *gin.Context) {
	_, userID, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.noteService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete note"})
		return
	}
	c.Status(http.StatusNoContent)
}

// === REFERENCE ===

// GetCities обрабатывает GET /reference/cities?country=KR
// Каскадный справочник городов выбранной страны
func (h *ERPHandler) GetCities(c *gin.Context) {
	country := c.Query("country")
	cities := view.CitiesFor(country)
	if cities == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown country"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}
