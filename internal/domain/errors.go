package domain

import "errors"

var (
	// ErrInsufficientHistory means there are too few sales rows to extract a
	// series or fit a model. Callers fall back to the heuristic forecast.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrProductNotFound means the product id does not resolve.
	ErrProductNotFound = errors.New("product not found")

	// ErrModelNotFound means no trained artifact exists for the product.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidInput rejects bad arguments before any computation.
	ErrInvalidInput = errors.New("invalid input")
)
