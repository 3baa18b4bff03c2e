package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend_smartiv/models"
	"backend_smartiv/services"
)

// CatalogAPI HTTP обработчики каталога: объекты, экраны, тарифы и выгрузки
type CatalogAPI struct {
	catalog *services.CatalogService
	export  *services.ExportService
	logger  *zap.Logger
}

// NewCatalogAPI создает новый экземпляр CatalogAPI
func NewCatalogAPI(catalog *services.CatalogService, export *services.ExportService, logger *zap.Logger) *CatalogAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogAPI{catalog: catalog, export: export, logger: logger.Named("api")}
}

// RegisterRoutes регистрирует маршруты каталога. Группа должна требовать аутентификацию.
func (ca *CatalogAPI) RegisterRoutes(router *gin.RouterGroup) {
	properties := router.Group("/properties")
	{
		properties.POST("", ca.CreateProperty)
		properties.GET("", ca.GetProperties)
		properties.GET("/:id", ca.GetProperty)
		properties.PATCH("/:id", ca.UpdateProperty)
		properties.DELETE("/:id", ca.DeleteProperty)

		// Тарифы объекта
		properties.GET("/:id/rate-cards", ca.GetRateCards)
		properties.POST("/:id/rate-cards", ca.CreateRateCard)
		properties.GET("/:id/rate-cards.pdf", ca.DownloadRateCardSheet)
		properties.GET("/:id/quote", ca.GetQuote)
	}

	rateCards := router.Group("/rate-cards")
	{
		rateCards.PATCH("/:id", ca.UpdateRateCard)
		rateCards.DELETE("/:id", ca.DeleteRateCard)
	}

	screens := router.Group("/screens")
	{
		screens.POST("", ca.CreateScreen)
		screens.GET("", ca.GetScreens)
		screens.GET("/:id", ca.GetScreen)
		screens.PATCH("/:id", ca.UpdateScreen)
		screens.DELETE("/:id", ca.DeleteScreen)
	}

	router.GET("/export.xlsx", ca.DownloadInventory)
}

// ---- Объекты ----

// CreateProperty создает объект
func (ca *CatalogAPI) CreateProperty(c *gin.Context) {
	var input services.CreatePropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	property, err := ca.catalog.CreateProperty(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusCreated, property)
}

// GetProperties возвращает страницу объектов с числом экранов
func (ca *CatalogAPI) GetProperties(c *gin.Context) {
	opts, ok := parsePageOptions(c)
	if !ok {
		return
	}

	page, err := ca.catalog.ListProperties(c.Request.Context(), opts)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondPage(c, page)
}

// GetProperty возвращает объект вместе с экранами
func (ca *CatalogAPI) GetProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	property, err := ca.catalog.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusOK, models.NewPropertyDetail(property))
}

// UpdateProperty частично обновляет объект
func (ca *CatalogAPI) UpdateProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.UpdatePropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	property, err := ca.catalog.UpdateProperty(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusOK, property)
}

// DeleteProperty удаляет объект без экранов вместе с его тарифами
func (ca *CatalogAPI) DeleteProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ca.catalog.DeleteProperty(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, ca.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Property deleted"})
}

// ---- Экраны ----

// CreateScreen регистрирует экран
func (ca *CatalogAPI) CreateScreen(c *gin.Context) {
	var input services.CreateScreenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	screen, err := ca.catalog.CreateScreen(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusCreated, screen)
}

// GetScreens возвращает страницу экранов, фильтры propertyId и status
func (ca *CatalogAPI) GetScreens(c *gin.Context) {
	opts, ok := parsePageOptions(c)
	if !ok {
		return
	}

	var filter services.ScreenFilter
	if raw := c.Query("propertyId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			respondBadRequest(c, "Invalid propertyId")
			return
		}
		propertyID := uint(id)
		filter.PropertyID = &propertyID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ScreenStatus(raw)
		if !status.IsValid() {
			respondBadRequest(c, "Invalid status")
			return
		}
		filter.Status = &status
	}

	page, err := ca.catalog.ListScreens(c.Request.Context(), opts, filter)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondPage(c, page)
}

// GetScreen возвращает экран вместе с объектом
func (ca *CatalogAPI) GetScreen(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	screen, err := ca.catalog.GetScreen(c.Request.Context(), id)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusOK, screen)
}

// UpdateScreen частично обновляет экран
func (ca *CatalogAPI) UpdateScreen(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.UpdateScreenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	screen, err := ca.catalog.UpdateScreen(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusOK, screen)
}

// DeleteScreen удаляет экран
func (ca *CatalogAPI) DeleteScreen(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ca.catalog.DeleteScreen(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, ca.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Screen deleted"})
}

// ---- Тарифы ----

// GetRateCards возвращает тарифы объекта
func (ca *CatalogAPI) GetRateCards(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	cards, err := ca.catalog.ListRateCards(c.Request.Context(), propertyID)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusOK, cards)
}

// CreateRateCard добавляет тариф объекту
func (ca *CatalogAPI) CreateRateCard(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.CreateRateCardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	card, err := ca.catalog.CreateRateCard(c.Request.Context(), actorFrom(c), propertyID, input)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusCreated, card)
}

// UpdateRateCard частично обновляет тариф
func (ca *CatalogAPI) UpdateRateCard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.UpdateRateCardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	card, err := ca.catalog.UpdateRateCard(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusOK, card)
}

// DeleteRateCard удаляет тариф
func (ca *CatalogAPI) DeleteRateCard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ca.catalog.DeleteRateCard(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, ca.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Rate card deleted"})
}

// GetQuote стоимость размещения: ?slot=SCREENSAVER&days=7
func (ca *CatalogAPI) GetQuote(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "1"))
	if err != nil {
		respondBadRequest(c, "Invalid days")
		return
	}

	quote, err := ca.catalog.Quote(c.Request.Context(), propertyID, models.AdSlot(c.Query("slot")), days)
	if err != nil {
		respondError(c, ca.logger, err)
		return
	}
	respondData(c, http.StatusOK, quote)
}

// ---- Выгрузки ----

// DownloadRateCardSheet PDF с тарифами объекта
func (ca *CatalogAPI) DownloadRateCardSheet(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	// Документ собирается целиком до отправки заголовков
	var buf bytes.Buffer
	if err := ca.export.RateCardSheet(c.Request.Context(), propertyID, &buf); err != nil {
		respondError(c, ca.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="rate-cards-%d.pdf"`, propertyID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// DownloadInventory XLSX со всеми объектами и экранами
func (ca *CatalogAPI) DownloadInventory(c *gin.Context) {
	var buf bytes.Buffer
	if err := ca.export.WriteInventory(c.Request.Context(), &buf); err != nil {
		respondError(c, ca.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="inventory.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
