package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/events"
	"github.com/campusbooks/marketplace/internal/logging"
	"github.com/campusbooks/marketplace/internal/models"
	"github.com/campusbooks/marketplace/internal/pricing"
)

var ErrEmptyCart = errors.New("cart is empty")

// Service converts a cart into an immutable paid order. The order and
// its items are written in one transaction; the follow-up writes (mark
// products sold, purge carts) are sequential best-effort. There is no
// inventory lock, so two racing checkouts of the same product can both
// produce a paid order.
type Service struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type Result struct {
	OrderID uint
	Totals  pricing.Totals
}

func (s *Service) Checkout(ctx context.Context, userID uint) (*Result, error) {
	log := logging.FromContext(ctx)

	var items []models.CartItem
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	totals := pricing.Calculate(items)

	var order models.Order
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			UserID:   userID,
			Subtotal: totals.Subtotal,
			Tax:      totals.Tax,
			Total:    totals.GrandTotal,
			Status:   models.OrderPaid,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, it := range items {
			oi := models.OrderItem{
				OrderID:     order.ID,
				ProductSlug: it.ProductSlug,
				Name:        it.Name,
				Price:       it.Price,
				Quantity:    it.Quantity,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("persist order: %w", txErr)
	}

	// Past this point the paid order exists. Inventory and cart writes
	// are not rolled back on failure, only logged.
	slugs := lo.Uniq(lo.Map(items, func(it models.CartItem, _ int) string {
		return it.ProductSlug
	}))

	now := time.Now()
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("slug IN ?", slugs).
		Updates(map[string]interface{}{"status": models.ProductSold, "sold_at": now}).Error; err != nil {
		log.Error("checkout: mark sold failed", "orderID", order.ID, "error", err)
	}

	// Sold listings vanish from every cart, not just the purchaser's.
	if err := s.DB.WithContext(ctx).
		Where("product_slug IN ?", slugs).
		Delete(&models.CartItem{}).Error; err != nil {
		log.Error("checkout: cart purge failed", "orderID", order.ID, "error", err)
	}

	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error; err != nil {
		log.Error("checkout: cart clear failed", "orderID", order.ID, "error", err)
	}

	if err := s.Producer.PublishEvent(ctx, events.TopicOrderEvents, fmt.Sprint(userID), map[string]interface{}{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.Total,
	}); err != nil {
		log.Error("checkout: publish failed", "orderID", order.ID, "error", err)
	}

	return &Result{OrderID: order.ID, Totals: totals}, nil
}
