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
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/events"
	"github.com/campusbooks/marketplace/internal/models"
	"github.com/campusbooks/marketplace/internal/service/search"
	"github.com/campusbooks/marketplace/internal/service/token"
	"github.com/campusbooks/marketplace/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

type productRequest struct {
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	ShortDescription string  `json:"shortDescription"`
	Description      string  `json:"description"`
	Headline         string  `json:"headline"`
	Image            string  `json:"image"`
	Specs            string  `json:"specs"`
}

func (r *productRequest) validate() error {
	if r.Name == "" || r.ShortDescription == "" || r.Description == "" ||
		r.Headline == "" || r.Image == "" {
		return errors.New("all fields are required")
	}
	if r.Price <= 0 {
		return errors.New("price must be a positive number")
	}
	return nil
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing slug")
	}

	var product models.Product
	if err := h.DB.Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"product": product})
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Product{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := h.DB.Model(&models.Product{}).
		Order("name ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"products": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	slug, err := uniqueSlugForName(h.DB, req.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	prod := models.Product{
		Slug:             slug,
		Name:             req.Name,
		Price:            req.Price,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Headline:         req.Headline,
		Specs:            ParseSpecs(req.Specs),
		Image:            req.Image,
		OwnerID:          &userID,
		Status:           models.ProductAvailable,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.index(c, &prod)
	h.publish(c, userID, map[string]interface{}{
		"type":      "product_created",
		"productID": prod.Slug,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "product": prod})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	prod, err := h.ownedProduct(c, userID)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	prod.Name = req.Name
	prod.Price = req.Price
	prod.ShortDescription = req.ShortDescription
	prod.Description = req.Description
	prod.Headline = req.Headline
	prod.Image = req.Image
	prod.Specs = ParseSpecs(req.Specs)

	if err := h.DB.Save(prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.index(c, prod)
	h.publish(c, userID, map[string]interface{}{
		"type":      "product_updated",
		"productID": prod.Slug,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "product": prod})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	prod, err := h.ownedProduct(c, userID)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// A deleted listing disappears from every cart.
	if err := h.DB.Where("product_slug = ?", prod.Slug).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.DeleteProduct(ctx, h.ES, h.Index, prod.Slug); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "product_deleted",
		"productID": prod.Slug,
	})

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// ownedProduct loads the product from the slug param and enforces the
// owner-or-admin rule for mutations.
func (h *ProductHandler) ownedProduct(c echo.Context, userID uint) (*models.Product, error) {
	slug := c.Param("slug")
	if slug == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing slug")
	}

	var prod models.Product
	if err := h.DB.Where("slug = ?", slug).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	isOwner := prod.OwnerID != nil && *prod.OwnerID == userID
	if !isOwner && token.Role(c) != "admin" {
		return nil, echo.NewHTTPError(http.StatusForbidden, "you can only modify listings you created")
	}
	return &prod, nil
}

func (h *ProductHandler) index(c echo.Context, prod *models.Product) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.Index, prod); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) publish(c echo.Context, userID uint, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicProductEvents, fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
