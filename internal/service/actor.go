package service

import "github.com/locodavid123/parcial1/internal/model"

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID string
	Email  string
	Role   model.Role
}

func (a Actor) IsStaff() bool { return a.Role.IsStaff() }

func (a Actor) IsSet() bool { return a.UserID != "" }
