package cart

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/checkout"
	"github.com/campusbooks/marketplace/internal/events"
	"github.com/campusbooks/marketplace/internal/models"
	"github.com/campusbooks/marketplace/internal/pricing"
	"github.com/campusbooks/marketplace/internal/service/token"
)

// Action is one of the commands accepted by POST /api/cart.
type Action string

const (
	ActionAdd      Action = "add"
	ActionUpdate   Action = "update"
	ActionRemove   Action = "remove"
	ActionCheckout Action = "checkout"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Checkout *checkout.Service
}

type commandRequest struct {
	Action    Action      `json:"action"`
	ProductID string      `json:"productId"`
	Quantity  interface{} `json:"quantity"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	items, err := h.items(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"cart":   cartBody(userID, items),
		"totals": pricing.Calculate(items),
	})
}

var dispatch = map[Action]func(*CartHandler, echo.Context, uint, commandRequest) error{
	ActionAdd:      (*CartHandler).add,
	ActionUpdate:   (*CartHandler).update,
	ActionRemove:   (*CartHandler).remove,
	ActionCheckout: (*CartHandler).checkout,
}

// Dispatch routes a cart command to its handler. Unknown actions are
// rejected with 405, matching the storefront contract.
func (h *CartHandler) Dispatch(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	fn, ok := dispatch[req.Action]
	if !ok {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "unsupported action")
	}
	return fn(h, c, userID, req)
}

func (h *CartHandler) add(c echo.Context, userID uint, req commandRequest) error {
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing product id")
	}

	var product models.Product
	if err := h.DB.Where("slug = ?", req.ProductID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !product.Available() {
		return echo.NewHTTPError(http.StatusConflict, "product is sold")
	}

	qty := parseQuantity(req.Quantity, 1)
	if qty < 1 {
		qty = 1
	}

	var item models.CartItem
	tx := h.DB.Where("user_id = ? AND product_slug = ?", userID, req.ProductID).First(&item)
	switch {
	case tx.Error == nil:
		item.Quantity += uint(qty)
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	case errors.Is(tx.Error, gorm.ErrRecordNotFound):
		item = models.CartItem{
			UserID:      userID,
			ProductSlug: product.Slug,
			Name:        product.Name,
			Price:       product.Price,
			Quantity:    uint(qty),
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": product.Slug,
		"quantity":  item.Quantity,
	})
	return h.respond(c, userID)
}

func (h *CartHandler) update(c echo.Context, userID uint, req commandRequest) error {
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing product id")
	}

	var item models.CartItem
	if err := h.DB.Where("user_id = ? AND product_slug = ?", userID, req.ProductID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not found in cart")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	qty := parseQuantity(req.Quantity, 0)
	if qty <= 0 {
		if err := h.DB.Delete(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	} else {
		item.Quantity = uint(qty)
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "cart_item_updated",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  qty,
	})
	return h.respond(c, userID)
}

func (h *CartHandler) remove(c echo.Context, userID uint, req commandRequest) error {
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing product id")
	}

	// Removing an absent line is not an error.
	if err := h.DB.
		Where("user_id = ? AND product_slug = ?", userID, req.ProductID).
		Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": req.ProductID,
	})
	return h.respond(c, userID)
}

func (h *CartHandler) checkout(c echo.Context, userID uint, _ commandRequest) error {
	result, err := h.Checkout.Checkout(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			return echo.NewHTTPError(http.StatusBadRequest, "empty cart")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Short-lived flag consumed by the thank-you page.
	c.SetCookie(&http.Cookie{
		Name:     "justCheckedOut",
		Value:    "1",
		Path:     "/",
		Expires:  time.Now().Add(5 * time.Minute),
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"ok":      true,
		"orderId": result.OrderID,
	})
}
