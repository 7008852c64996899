package model

import (
	"math"
	"time"
)

// Order is a placed purchase. Items capture name and unit price at placement time.
type Order struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	ClientID  string      `json:"client_id" gorm:"type:varchar(36);index;not null" bson:"client_id"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID" bson:"items"`
	Total     float64     `json:"total" gorm:"not null" bson:"total"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(32);index;not null" bson:"status"`
	CreatedAt time.Time   `json:"created_at" gorm:"index" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"id"`
	OrderID     string  `json:"order_id" gorm:"type:varchar(36);index;not null" bson:"-"`
	ProductID   string  `json:"product_id" gorm:"type:varchar(36);index;not null" bson:"product_id"`
	ProductName string  `json:"product_name" gorm:"type:varchar(255)" bson:"product_name"`
	Quantity    int     `json:"quantity" gorm:"not null" bson:"quantity"`
	UnitPrice   float64 `json:"unit_price" gorm:"not null" bson:"unit_price"`
}

// Subtotal is quantity times unit price, rounded to cents
func (i OrderItem) Subtotal() float64 {
	return RoundMoney(float64(i.Quantity) * i.UnitPrice)
}

// ComputeTotal sums the item subtotals
func (o *Order) ComputeTotal() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return RoundMoney(total)
}

// OrderView is an order joined with the name and email of its client
type OrderView struct {
	Order
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
}

// RoundMoney rounds an amount to two decimals
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
