package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/events"
	"github.com/campusbooks/marketplace/internal/models"
	"github.com/campusbooks/marketplace/internal/service/token"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *OrderHandler) loadOrder(c echo.Context) (*models.Order, []models.OrderItem, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "missing order id")
	}

	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.OrderItem
	if err := h.DB.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return &order, items, nil
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	order, items, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if order.UserID != userID && token.Role(c) != "admin" {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	}

	return c.JSON(http.StatusOK, echo.Map{"order": order, "items": items})
}

// Refund flips a paid order to refunded. There is no stock restoration:
// the purchased products stay sold.
func (h *OrderHandler) Refund(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}
	if token.Role(c) != "admin" {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Action != "refund" {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "unsupported action")
	}

	order, items, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if order.Status != models.OrderPaid {
		return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot refund order in status %q", order.Status))
	}

	now := time.Now()
	order.Status = models.OrderRefunded
	order.RefundedAt = &now
	if err := h.DB.Save(order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicOrderEvents, fmt.Sprint(userID), map[string]interface{}{
		"type":    "order_refunded",
		"orderID": order.ID,
		"adminID": userID,
	}); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "order": order, "items": items})
}
