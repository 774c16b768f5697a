package handler

import (
	"errors"
	"net/http"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/service"
	"cedarworks/internal/app/erp/viewkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// === STANDARD PRICES ===

// AddPrice обрабатывает POST /prices
// Добавление при существующей текущей записи выполняет замену
func (h *ERPHandler) AddPrice(c *gin.Context) {
	_, userID, ok := h.session(c)
	if !ok {
		return
	}

	var req entity.AddStandardPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	price, err := h.priceService.AddStandardPrice(c.Request.Context(), &req, userID)
	if err != nil {
		h.respondPriceError(c, err, "Failed to add price")
		return
	}

	c.JSON(http.StatusCreated, price)
}

// UpdatePrice обрабатывает PUT /prices/{id}
// Правка создает новую запись поверх текущей, история не затирается
func (h *ERPHandler) UpdatePrice(c *gin.Context) {
	_, userID, ok := h.session(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price ID"})
		return
	}

	var req entity.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	price, err := h.priceService.UpdatePrice(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.respondPriceError(c, err, "Failed to update price")
		return
	}

	c.JSON(http.StatusOK, price)
}

// UpdatePriceReason обрабатывает PATCH /prices/{id}/reason
// Единственная разрешенная правка исторической записи
func (h *ERPHandler) UpdatePriceReason(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price ID"})
		return
	}

	var req struct {
		ChangeReason string `json:"change_reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.priceService.UpdateChangeReason(c.Request.Context(), id, req.ChangeReason); err != nil {
		if errors.Is(err, service.ErrPriceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Price not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update change reason"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Change reason updated"})
}

// GetPrices обрабатывает GET /prices?product_code=&history=true
func (h *ERPHandler) GetPrices(c *gin.Context) {
	includeHistory := c.Query("history") == "true"

	prices, err := h.priceService.ListPrices(c.Request.Context(), c.Query("product_code"), includeHistory)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list prices"})
		return
	}

	c.JSON(http.StatusOK, entity.PriceListResponse{Prices: prices, Total: len(prices)})
}

// DeletePrice обрабатывает DELETE /prices/{id}?mode=soft|hard
// Двухшаговое подтверждение как у табличных строк; hard удаляет
// физически и продвигает предыдущую запись в текущие
func (h *ERPHandler) DeletePrice(c *gin.Context) {
	sess, _, ok := h.session(c)
	if !ok {
		return
	}

	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price ID"})
		return
	}

	collector := viewkit.NewCollector()
	scoped := sess.Scoped("standard_prices")
	if !scoped.ConfirmDelete("table", idStr) {
		collector.Warning("Повторите удаление для подтверждения")
		respond(c, http.StatusAccepted, gin.H{"pending": true}, collector)
		return
	}

	mode := c.DefaultQuery("mode", service.DeleteModeSoft)
	if err := h.priceService.DeletePrice(c.Request.Context(), id, mode); err != nil {
		switch {
		case errors.Is(err, service.ErrPriceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Price not found"})
		case errors.Is(err, service.ErrInvalidDeleteMode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delete mode"})
		default:
			collector.Error("Не удалось удалить цену")
			respond(c, http.StatusInternalServerError, nil, collector)
		}
		return
	}

	collector.Success("Цена удалена")
	respond(c, http.StatusOK, gin.H{"deleted": true}, collector)
}

// GetPriceChanges обрабатывает GET /prices/changes?product_code=
func (h *ERPHandler) GetPriceChanges(c *gin.Context) {
	changes, err := h.priceService.ListPriceChanges(c.Request.Context(), c.Query("product_code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list price changes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes, "total": len(changes)})
}

// GetVariance обрабатывает GET /prices/variance?from=&to=
// Анализ отклонений фактических цен от стандартных за окно дат
func (h *ERPHandler) GetVariance(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date (YYYY-MM-DD)"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date (YYYY-MM-DD)"})
		return
	}

	variances, err := h.priceService.VarianceAnalysis(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute variance"})
		return
	}

	c.JSON(http.StatusOK, entity.VarianceResponse{Variances: variances, Total: len(variances)})
}

// === SUPPLIER AGREEMENTS ===

// AddAgreement обрабатывает POST /agreements
func (h *ERPHandler) AddAgreement(c *gin.Context) {
	_, userID, ok := h.session(c)
	if !ok {
		return
	}

	var req entity.AddAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	agreement, err := h.priceService.AddAgreement(c.Request.Context(), &req, userID)
	if err != nil {
		h.respondPriceError(c, err, "Failed to add agreement")
		return
	}

	c.JSON(http.StatusCreated, agreement)
}

// GetAgreements обрабатывает GET /agreements?history=true
func (h *ERPHandler) GetAgreements(c *gin.Context) {
	agreements, err := h.priceService.ListAgreements(c.Request.Context(), c.Query("history") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list agreements"})
		return
	}
	c.JSON(http.StatusOK, entity.AgreementListResponse{Agreements: agreements, Total: len(agreements)})
}

// DeleteAgreement обрабатывает DELETE /agreements/{id}?mode=soft|hard
func (h *ERPHandler) DeleteAgreement(c *gin.Context) {
	sess, _, ok := h.session(c)
	if !ok {
		return
	}

	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agreement ID"})
		return
	}

	collector := viewkit.NewCollector()
	scoped := sess.Scoped("supplier_agreements")
	if !scoped.ConfirmDelete("table", idStr) {
		collector.Warning("Повторите удаление для подтверждения")
		respond(c, http.StatusAccepted, gin.H{"pending": true}, collector)
		return
	}

	mode := c.DefaultQuery("mode", service.DeleteModeSoft)
	if err := h.priceService.DeleteAgreement(c.Request.Context(), id, mode); err != nil {
		switch {
		case errors.Is(err, service.ErrAgreementNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Agreement not found"})
		case errors.Is(err, service.ErrInvalidDeleteMode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delete mode"})
		default:
			collector.Error("Не удалось удалить соглашение")
			respond(c, http.StatusInternalServerError, nil, collector)
		}
		return
	}

	collector.Success("Соглашение удалено")
	respond(c, http.StatusOK, gin.H{"deleted": true}, collector)
}

// === CURRENCY ===

// Convert обрабатывает POST /currency/convert
// Уведомления о резервном курсе и деградации политики уходят в конверте
func (h *ERPHandler) Convert(c *gin.Context) {
	var req entity.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	collector := viewkit.NewCollector()
	result, err := h.currencyService.Convert(c.Request.Context(), &req, collector)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownCurrency):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown currency code"})
		case errors.Is(err, service.ErrInvalidRate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Manual rate must be positive"})
		case errors.Is(err, service.ErrPeriodRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Period requires year and quarter or month"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert"})
		}
		return
	}

	respond(c, http.StatusOK, result, collector)
}

// GetRates обрабатывает GET /currency/rates
func (h *ERPHandler) GetRates(c *gin.Context) {
	rates, err := h.currencyService.LatestRates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rates": rates, "total": len(rates)})
}

// respondPriceError отображает доменные ошибки движка цен в HTTP статусы
func (h *ERPHandler) respondPriceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be positive"})
	case errors.Is(err, service.ErrInvalidRate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exchange rate must be positive"})
	case errors.Is(err, service.ErrUnknownCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown currency code"})
	case errors.Is(err, service.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not precede start date"})
	case errors.Is(err, service.ErrPriceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Price not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
