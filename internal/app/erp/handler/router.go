package handler

import (
	"net/http"

	"cedarworks/pkg/logger"
	"cedarworks/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// SetupRoutes настраивает маршруты ERP с использованием Gin
// Чтение доступно любой аутентифицированной роли согласно вкладкам,
// правки цен закрыты ролями, удаление - только admin
func SetupRoutes(erpHandler *ERPHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinMiddleware("erp"))
	router.Use(cors.Default())
	router.Use(gin.Recovery())

	// Health check endpoint - публичный, без аутентификации
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "erp",
		})
	})

	router.GET("/metrics", metrics.Handler())

	// Pages endpoints - страницы, формы, заметки
	pages := router.Group("/pages")
	pages.Use(authMiddleware.Authenticate())
	{
		pages.GET("", erpHandler.GetPages)
		pages.GET("/:id", erpHandler.GetPage)
		pages.GET("/:id/forms/:entity", erpHandler.GetForm)
		pages.POST("/:id/forms/:entity", erpHandler.SubmitForm)

		pages.GET("/:id/note", erpHandler.GetNote)
		pages.PUT("/:id/note", erpHandler.SaveNote)
		pages.DELETE("/:id/note", erpHandler.DeleteNote)
	}

	// Tables endpoints - табличные коллекции с выгрузкой
	tables := router.Group("/tables")
	tables.Use(authMiddleware.Authenticate())
	{
		tables.GET("/:entity", erpHandler.GetTable)
		tables.GET("/:entity/export", erpHandler.ExportTable)
		tables.DELETE("/:entity/:record_id", authMiddleware.RequireRole("admin"), erpHandler.DeleteRecord)
	}

	// Prices endpoints - движок истории цен
	prices := router.Group("/prices")
	prices.Use(authMiddleware.Authenticate())
	{
		prices.GET("", erpHandler.GetPrices)
		prices.GET("/changes", erpHandler.GetPriceChanges)
		prices.GET("/variance", authMiddleware.RequireRole("manager", "accounting", "admin"), erpHandler.GetVariance)

		prices.POST("", authMiddleware.RequireRole("manager", "accounting", "admin"), erpHandler.AddPrice)
		prices.PUT("/:id", authMiddleware.RequireRole("manager", "accounting", "admin"), erpHandler.UpdatePrice)
		prices.PATCH("/:id/reason", authMiddleware.RequireRole("manager", "accounting", "admin"), erpHandler.UpdatePriceReason)
		prices.DELETE("/:id", authMiddleware.RequireRole("admin"), erpHandler.DeletePrice)
	}

	// Agreements endpoints - соглашения с поставщиками
	agreements := router.Group("/agreements")
	agreements.Use(authMiddleware.Authenticate())
	{
		agreements.GET("", erpHandler.GetAgreements)
		agreements.POST("", authMiddleware.RequireRole("manager", "accounting", "admin"), erpHandler.AddAgreement)
		agreements.DELETE("/:id", authMiddleware.RequireRole("admin"), erpHandler.DeleteAgreement)
	}

	// Currency endpoints - конвертер и курсы
	currency := router.Group("/currency")
	currency.Use(authMiddleware.Authenticate())
	{
		currency.POST("/convert", erpHandler.Convert)
		currency.GET("/rates", erpHandler.GetRates)
	}

	// Reference endpoints - каскадные справочники
	reference := router.Group("/reference")
	reference.Use(authMiddleware.Authenticate())
	{
		reference.GET("/cities", erpHandler.GetCities)
	}

	return router
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
