package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrInsufficientStock is returned by conditional decrements that would take
	// stock below zero. Nothing is written.
	ErrInsufficientStock = errors.New("estoque insuficiente")
	// ErrInsufficientPoints is returned when a points debit exceeds the balance.
	ErrInsufficientPoints = errors.New("pontos insuficientes")
	// ErrStaleStatus is returned when an order's status changed since it was read.
	ErrStaleStatus = errors.New("status do pedido foi alterado por outra operação")
)

// IsNotFound reports whether err is GORM's record-not-found.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// conn returns tx when the caller is inside a transaction, db otherwise.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
