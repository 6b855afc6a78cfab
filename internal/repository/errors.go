package repository

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrNoSeats            = errors.New("not enough seats")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrStaleState         = errors.New("record changed state")
)
