package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusbooks/marketplace/internal/models"
)

func seedOrder(t *testing.T, h *OrderHandler, userID uint, status models.OrderStatus) *models.Order {
	t.Helper()

	order := models.Order{
		UserID:   userID,
		Subtotal: 25.50,
		Tax:      1.79,
		Total:    27.29,
		Status:   status,
	}
	require.NoError(t, h.DB.Create(&order).Error)
	require.NoError(t, h.DB.Create(&models.OrderItem{
		OrderID: order.ID, ProductSlug: "calc-made-easy", Name: "Calculus", Price: 25.50, Quantity: 1,
	}).Error)
	return &order
}

func TestGetOrderOwnerAndAdmin(t *testing.T) {
	db := newTestDB(t)
	h := OrderHandler{DB: db}
	seedOrder(t, &h, 1, models.OrderPaid)

	c, rec := newJSONContext(t, http.MethodGet, "/api/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 1, "user")
	require.NoError(t, h.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// another user
	c, _ = newJSONContext(t, http.MethodGet, "/api/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 2, "user")
	he := httpError(t, h.GetOrder(c))
	require.Equal(t, http.StatusForbidden, he.Code)

	// admin
	c, rec = newJSONContext(t, http.MethodGet, "/api/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 3, "admin")
	require.NoError(t, h.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

}

func TestRefundAdminOnly(t *testing.T) {
	db := newTestDB(t)
	h := OrderHandler{DB: db}
	seedOrder(t, &h, 1, models.OrderPaid)

	body := map[string]string{"action": "refund"}

	// the buyer themselves cannot refund
	c, _ := newJSONContext(t, http.MethodPost, "/api/orders/1", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 1, "user")
	he := httpError(t, h.Refund(c))
	require.Equal(t, http.StatusForbidden, he.Code)

	c, rec := newJSONContext(t, http.MethodPost, "/api/orders/1", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 9, "admin")
	require.NoError(t, h.Refund(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, db.First(&order, 1).Error)
	require.Equal(t, models.OrderRefunded, order.Status)
	require.NotNil(t, order.RefundedAt)
	require.WithinDuration(t, time.Now(), *order.RefundedAt, time.Minute)
}

func TestRefundOnlyFromPaid(t *testing.T) {
	db := newTestDB(t)
	h := OrderHandler{DB: db}
	seedOrder(t, &h, 1, models.OrderRefunded)

	c, _ := newJSONContext(t, http.MethodPost, "/api/orders/1", map[string]string{"action": "refund"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 9, "admin")
	he := httpError(t, h.Refund(c))
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestRefundUnknownOrderAndAction(t *testing.T) {
	db := newTestDB(t)
	h := OrderHandler{DB: db}

	c, _ := newJSONContext(t, http.MethodPost, "/api/orders/99", map[string]string{"action": "refund"})
	c.SetParamNames("id")
	c.SetParamValues("99")
	asUser(c, 9, "admin")
	he := httpError(t, h.Refund(c))
	require.Equal(t, http.StatusNotFound, he.Code)

	seedOrder(t, &h, 1, models.OrderPaid)
	c, _ = newJSONContext(t, http.MethodPost, "/api/orders/1", map[string]string{"action": "void"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 9, "admin")
	he = httpError(t, h.Refund(c))
	require.Equal(t, http.StatusMethodNotAllowed, he.Code)
}
