package model

import (
	"regexp"
	"time"
)

// Product is a menu item with its available stock
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;index" bson:"name"`
	Description string    `json:"description" gorm:"type:text" bson:"description"`
	Price       float64   `json:"price" gorm:"not null" bson:"price"`
	Stock       int       `json:"stock" gorm:"not null" bson:"stock"`
	MinStock    int       `json:"min_stock" gorm:"not null" bson:"min_stock"`
	ImageURL    string    `json:"image_url" gorm:"type:varchar(1024)" bson:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// LowStock reports whether the product is at or below its restock threshold
func (p *Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

var httpURL = regexp.MustCompile(`^https?://.+`)

// ValidImageURL reports whether s is an absolute http(s) URL
func ValidImageURL(s string) bool {
	return httpURL.MatchString(s)
}
