package model

import "time"

// Client is a customer record; registered customers link it to their User
type Client struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null" bson:"name"`
	Email     string    `json:"email" gorm:"type:varchar(255);index" bson:"email"`
	Phone     string    `json:"phone" gorm:"type:varchar(32)" bson:"phone"`
	UserID    *string   `json:"user_id,omitempty" gorm:"type:varchar(36);uniqueIndex" bson:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
