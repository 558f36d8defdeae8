package repository

import "errors"

// ErrNotFound is returned by the counter primitives when the target row does not exist.
// Finders keep returning nil, nil for a missing row.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientSeats is returned when a seat adjustment would drive the counter below zero.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrInsufficientCredit is returned when a credit adjustment would drive the balance below zero.
var ErrInsufficientCredit = errors.New("insufficient credit")
