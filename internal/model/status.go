package model

import (
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var statusAliases = map[string]OrderStatus{
	"pending":    StatusPending,
	"pendiente":  StatusPending,
	"completed":  StatusCompleted,
	"completado": StatusCompleted,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"cancelado":  StatusCancelled,
}

// ParseOrderStatus normalizes a status name, accepting legacy spellings case-insensitively
func ParseOrderStatus(s string) (OrderStatus, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransition reports whether an order may move from one status to another.
// Cancelled is terminal: its stock has already been returned.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusCompleted || to == StatusCancelled
	case StatusCompleted:
		return to == StatusPending || to == StatusCancelled
	default:
		return false
	}
}

func (s OrderStatus) String() string { return string(s) }
