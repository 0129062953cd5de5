package domain

import "errors"

var (
	// ErrSourceUnavailable wraps any failure to fetch raw rows from the data source.
	ErrSourceUnavailable = errors.New("data source unavailable")
	// ErrColumnMissing is returned when an operation needs a column the table lacks.
	ErrColumnMissing = errors.New("required column missing")
	// ErrInvalidSelection is returned for filter or forecast parameters outside their allowed range.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrInsufficientData is returned when a series is too short to forecast.
	ErrInsufficientData = errors.New("insufficient data")
)
