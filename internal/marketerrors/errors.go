package marketerrors

import (
	"errors"
	"strconv"
	"strings"
)

// Repository-level errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrNoBids          = errors.New("no bids found for product")
)

// business logic errors
var (
	ErrValidation    = errors.New("validation failed")
	ErrProductSold   = errors.New("cannot bid on a sold product")
	ErrProductBanned = errors.New("product has been removed by a moderator")
	ErrBidTooLow     = errors.New("bid amount too low")
)

// admin session errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError lists the request fields that are missing or malformed.
type ValidationError struct {
	Fields []string
	Reason string
}

// Missing builds a ValidationError for absent required fields.
func Missing(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: "missing required fields"}
}

// Invalid builds a ValidationError for a field with a bad value.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: []string{field}, Reason: reason}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	if e.Reason == "missing required fields" {
		return e.Reason + ": " + strings.Join(e.Fields, ", ")
	}
	return strings.Join(e.Fields, ", ") + " " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// BidTooLowError carries the price a new bid has to beat.
type BidTooLowError struct {
	Highest float64
}

func (e *BidTooLowError) Error() string {
	return "bid must be higher than current highest bid (₹" + strconv.FormatFloat(e.Highest, 'f', -1, 64) + ")"
}

func (e *BidTooLowError) Unwrap() error { return ErrBidTooLow }
