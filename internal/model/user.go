package model

import "time"

// User is an account that can sign in to the shop
type User struct {
	ID                   string      `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name                 string      `json:"name" gorm:"type:varchar(255);not null" bson:"name"`
	Email                string      `json:"email" gorm:"type:varchar(255);uniqueIndex;not null" bson:"email"`
	PasswordHash         string      `json:"-" gorm:"column:password_hash;type:varchar(255)" bson:"password_hash"`
	Phone                string      `json:"phone" gorm:"type:varchar(32)" bson:"phone"`
	Role                 Role        `json:"role" gorm:"type:varchar(32);index;not null" bson:"role"`
	FaceDescriptors      [][]float64 `json:"-" gorm:"serializer:json;type:text" bson:"face_descriptors,omitempty"`
	PasswordResetToken   string      `json:"-" gorm:"type:varchar(64);index" bson:"password_reset_token,omitempty"`
	PasswordResetExpires *time.Time  `json:"-" bson:"password_reset_expires,omitempty"`
	CreatedAt            time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" bson:"updated_at"`
}

// HasFace reports whether the user enrolled at least one face descriptor
func (u *User) HasFace() bool {
	return len(u.FaceDescriptors) > 0
}

// ClearPasswordReset forgets any pending reset token
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}
