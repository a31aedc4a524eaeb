package models

import (
	"time"
)

type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductSold      ProductStatus = "sold"
)

type OrderStatus string

const (
	OrderCreated  OrderStatus = "created"
	OrderPaid     OrderStatus = "paid"
	OrderRefunded OrderStatus = "refunded"
	OrderFailed   OrderStatus = "failed"
)

type Product struct {
	ID               uint          `gorm:"primaryKey;autoIncrement"   json:"-"`
	Slug             string        `gorm:"uniqueIndex;not null"       json:"id"`
	Name             string        `gorm:"not null"                   json:"name"`
	Price            float64       `gorm:"not null"                   json:"price"`
	ShortDescription string        `gorm:"not null"                   json:"shortDescription"`
	Description      string        `gorm:"not null"                   json:"description"`
	Headline         string        `gorm:"not null"                   json:"headline"`
	Specs            []string      `gorm:"serializer:json"            json:"specs"`
	Image            string        `gorm:"not null"                   json:"image"`
	Images           []string      `gorm:"serializer:json"            json:"images,omitempty"`
	OwnerID          *uint         `gorm:"index"                      json:"ownerId"`
	Status           ProductStatus `gorm:"not null;default:available" json:"status"`
	SoldAt           *time.Time    `json:"soldAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func (p *Product) Available() bool { return p.Status == ProductAvailable }

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `gorm:"not null"            json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// CartItem is one line of a user's cart. Name and Price are snapshots
// taken when the product was added, not live catalog values.
type CartItem struct {
	ID          uint    `gorm:"primaryKey"                          json:"-"`
	UserID      uint    `gorm:"index:idx_cart_user_product,unique"  json:"-"`
	ProductSlug string  `gorm:"index:idx_cart_user_product,unique"  json:"productId"`
	Name        string  `gorm:"not null"                            json:"name"`
	Price       float64 `gorm:"not null"                            json:"price"`
	Quantity    uint    `gorm:"default:1;check:quantity>0"          json:"quantity"`
}

type Order struct {
	ID         uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint        `gorm:"index;not null"           json:"userId"`
	Subtotal   float64     `gorm:"not null"                 json:"subtotal"`
	Tax        float64     `gorm:"not null"                 json:"tax"`
	Total      float64     `gorm:"not null"                 json:"total"`
	Status     OrderStatus `gorm:"not null;default:paid"    json:"status"`
	RefundedAt *time.Time  `json:"refundedAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ID          uint    `gorm:"primaryKey"     json:"-"`
	OrderID     uint    `gorm:"index;not null" json:"-"`
	ProductSlug string  `gorm:"not null"       json:"productId"`
	Name        string  `gorm:"not null"       json:"name"`
	Price       float64 `gorm:"not null"       json:"price"`
	Quantity    uint    `gorm:"not null"       json:"quantity"`
}
