package model

import "github.com/google/uuid"

// NewID returns a new random identifier shared by every datastore backend
func NewID() string {
	return uuid.NewString()
}
