package checkout

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/config"
	"github.com/campusbooks/marketplace/internal/models"
	"github.com/campusbooks/marketplace/internal/pricing"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &Service{DB: db}, db
}

func addLine(t *testing.T, db *gorm.DB, userID uint, slug string, price float64, qty uint) {
	t.Helper()

	require.NoError(t, db.Create(&models.Product{
		Slug:             slug,
		Name:             "Book " + slug,
		Price:            price,
		ShortDescription: "short",
		Description:      "long",
		Headline:         "headline",
		Image:            "https://example.com/" + slug + ".jpg",
		Status:           models.ProductAvailable,
	}).Error)
	require.NoError(t, db.Create(&models.CartItem{
		UserID:      userID,
		ProductSlug: slug,
		Name:        "Book " + slug,
		Price:       price,
		Quantity:    qty,
	}).Error)
}

func TestCheckoutEmptyCart(t *testing.T) {
	s, db := newTestService(t)

	_, err := s.Checkout(context.Background(), 1)
	require.ErrorIs(t, err, ErrEmptyCart)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.Zero(t, orders)
}

func TestCheckoutTotalsMatchCart(t *testing.T) {
	s, db := newTestService(t)
	addLine(t, db, 1, "calc-made-easy", 10.00, 2)
	addLine(t, db, 1, "psych-exploration", 5.50, 1)

	var items []models.CartItem
	require.NoError(t, db.Where("user_id = ?", 1).Find(&items).Error)
	want := pricing.Calculate(items)

	res, err := s.Checkout(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, want, res.Totals)

	var order models.Order
	require.NoError(t, db.First(&order, res.OrderID).Error)
	require.Equal(t, want.Subtotal, order.Subtotal)
	require.Equal(t, want.Tax, order.Tax)
	require.Equal(t, want.GrandTotal, order.Total)
	require.Equal(t, models.OrderPaid, order.Status)
}

func TestCheckoutMarksProductsSold(t *testing.T) {
	s, db := newTestService(t)
	addLine(t, db, 1, "calc-made-easy", 29.50, 1)

	_, err := s.Checkout(context.Background(), 1)
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, db.Where("slug = ?", "calc-made-easy").First(&product).Error)
	require.Equal(t, models.ProductSold, product.Status)
	require.NotNil(t, product.SoldAt)
}

func TestCheckoutPurgesSoldItemsFromOtherCarts(t *testing.T) {
	s, db := newTestService(t)
	addLine(t, db, 1, "calc-made-easy", 29.50, 1)

	// another user holds the same listing plus an unrelated one
	require.NoError(t, db.Create(&models.CartItem{
		UserID: 2, ProductSlug: "calc-made-easy", Name: "Book", Price: 29.50, Quantity: 1,
	}).Error)
	addLine(t, db, 2, "python-workshop", 25.75, 1)

	_, err := s.Checkout(context.Background(), 1)
	require.NoError(t, err)

	var mine, theirs []models.CartItem
	require.NoError(t, db.Where("user_id = ?", 1).Find(&mine).Error)
	require.NoError(t, db.Where("user_id = ?", 2).Find(&theirs).Error)
	require.Empty(t, mine)
	require.Len(t, theirs, 1)
	require.Equal(t, "python-workshop", theirs[0].ProductSlug)
}

func TestCheckoutSnapshotsOrderItems(t *testing.T) {
	s, db := newTestService(t)
	addLine(t, db, 1, "calc-made-easy", 29.50, 3)

	res, err := s.Checkout(context.Background(), 1)
	require.NoError(t, err)

	var lines []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", res.OrderID).Find(&lines).Error)
	require.Len(t, lines, 1)
	require.Equal(t, "calc-made-easy", lines[0].ProductSlug)
	require.Equal(t, 29.50, lines[0].Price)
	require.Equal(t, uint(3), lines[0].Quantity)
}
