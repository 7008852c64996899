package couchstore

import (
	"time"

	"github.com/locodavid123/parcial1/internal/model"
)

const (
	typeUser    = "user"
	typeClient  = "client"
	typeProduct = "product"
	typeOrder   = "order"
	typeLock    = "lock"
)

// lockDoc reserves a unique value (an email, a user link) inside a database.
// CouchDB has no unique indexes, but document ids are unique.
type lockDoc struct {
	ID    string `json:"_id"`
	Rev   string `json:"_rev,omitempty"`
	Type  string `json:"type"`
	Owner string `json:"owner"`
}

type userDoc struct {
	ID                   string      `json:"_id"`
	Rev                  string      `json:"_rev,omitempty"`
	Type                 string      `json:"type"`
	Name                 string      `json:"name"`
	Email                string      `json:"email"`
	PasswordHash         string      `json:"password_hash"`
	Phone                string      `json:"phone,omitempty"`
	Role                 model.Role  `json:"role"`
	FaceDescriptors      [][]float64 `json:"face_descriptors,omitempty"`
	PasswordResetToken   string      `json:"password_reset_token,omitempty"`
	PasswordResetExpires *time.Time  `json:"password_reset_expires,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

func newUserDoc(u *model.User) *userDoc {
	return &userDoc{
		ID:                   u.ID,
		Type:                 typeUser,
		Name:                 u.Name,
		Email:                u.Email,
		PasswordHash:         u.PasswordHash,
		Phone:                u.Phone,
		Role:                 u.Role,
		FaceDescriptors:      u.FaceDescriptors,
		PasswordResetToken:   u.PasswordResetToken,
		PasswordResetExpires: u.PasswordResetExpires,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (d *userDoc) model() model.User {
	return model.User{
		ID:                   d.ID,
		Name:                 d.Name,
		Email:                d.Email,
		PasswordHash:         d.PasswordHash,
		Phone:                d.Phone,
		Role:                 d.Role,
		FaceDescriptors:      d.FaceDescriptors,
		PasswordResetToken:   d.PasswordResetToken,
		PasswordResetExpires: d.PasswordResetExpires,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

type clientDoc struct {
	ID        string    `json:"_id"`
	Rev       string    `json:"_rev,omitempty"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newClientDoc(c *model.Client) *clientDoc {
	return &clientDoc{
		ID:        c.ID,
		Type:      typeClient,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d *clientDoc) model() model.Client {
	return model.Client{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type productDoc struct {
	ID          string    `json:"_id"`
	Rev         string    `json:"_rev,omitempty"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	MinStock    int       `json:"min_stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProductDoc(p *model.Product) *productDoc {
	return &productDoc{
		ID:          p.ID,
		Type:        typeProduct,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d *productDoc) model() model.Product {
	return model.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
		MinStock:    d.MinStock,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type orderDoc struct {
	ID        string            `json:"_id"`
	Rev       string            `json:"_rev,omitempty"`
	Type      string            `json:"type"`
	ClientID  string            `json:"client_id"`
	Items     []model.OrderItem `json:"items"`
	Total     float64           `json:"total"`
	Status    model.OrderStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newOrderDoc(o *model.Order) *orderDoc {
	return &orderDoc{
		ID:        o.ID,
		Type:      typeOrder,
		ClientID:  o.ClientID,
		Items:     o.Items,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func (d *orderDoc) model() model.Order {
	return model.Order{
		ID:        d.ID,
		ClientID:  d.ClientID,
		Items:     d.Items,
		Total:     d.Total,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
