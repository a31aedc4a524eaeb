package cart

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusbooks/marketplace/internal/events"
	"github.com/campusbooks/marketplace/internal/models"
	"github.com/campusbooks/marketplace/internal/pricing"
)

func (h *CartHandler) publish(c echo.Context, userID uint, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicCartEvents, fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) items(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (h *CartHandler) respond(c echo.Context, userID uint) error {
	items, err := h.items(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ok":     true,
		"cart":   cartBody(userID, items),
		"totals": pricing.Calculate(items),
	})
}

func cartBody(userID uint, items []models.CartItem) echo.Map {
	if items == nil {
		items = []models.CartItem{}
	}
	return echo.Map{
		"userId": userID,
		"items":  items,
	}
}

// parseQuantity tolerates numeric and string payloads; anything else
// falls back to def.
func parseQuantity(v interface{}, def int) int {
	switch q := v.(type) {
	case float64:
		return int(q)
	case int:
		return q
	case string:
		if n, err := strconv.Atoi(q); err == nil {
			return n
		}
	}
	return def
}
