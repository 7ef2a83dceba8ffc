package engine

import "errors"

var (
	ErrPositionExists  = errors.New("position already open for symbol")
	ErrNoPosition      = errors.New("no open position for symbol")
	ErrInvalidPosition = errors.New("entry price and quantity must be positive")
	ErrInvalidAmount   = errors.New("trade amount must be a positive number")
)
