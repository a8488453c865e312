// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the presented lookup token does
// not match the stored receipt, while ErrReceiptNotFound signals that no
// receipt was recorded for an order.
package repository

import "errors"

// ErrForbidden is returned when the caller presents a lookup token that
// does not belong to the requested order. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrReceiptNotFound is returned when no receipt exists for an order.
// Handlers should translate this into an HTTP 404 response.
var ErrReceiptNotFound = errors.New("receipt not found")
