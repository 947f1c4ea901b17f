package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mkosyrev/product-store/internal/metrics"
	"github.com/mkosyrev/product-store/internal/models"
	"github.com/mkosyrev/product-store/internal/mykafka"
	"github.com/mkosyrev/product-store/internal/service/search"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

type createProductRequest struct {
	Title string  `json:"title" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	var products []models.Product
	if err := h.DB.WithContext(c.Request().Context()).Order("id ASC").Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list products")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.WithContext(c.Request().Context()).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("product %d not found", id))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	product := models.Product{
		Title: req.Title,
		Price: req.Price,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create product")
	}

	metrics.ProductsCreatedTotal.Inc()
	h.index(c, product)
	h.publish(c, map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"title":     product.Title,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := h.DB.WithContext(c.Request().Context()).Delete(&models.Product{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not delete product")
	}

	h.deindex(c, uint(id))
	h.publish(c, map[string]interface{}{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("kafka publish failed")
	}
}

func (h *ProductHandler) index(c echo.Context, product models.Product) {
	if h.ES == nil {
		return
	}
	if err := search.IndexProduct(c.Request().Context(), h.ES, product); err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("es index failed")
	}
}

func (h *ProductHandler) deindex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	if err := search.DeleteProduct(c.Request().Context(), h.ES, id); err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("es delete failed")
	}
}
