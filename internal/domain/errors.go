// Package domain contains the core account entities and rules.
// These types have no knowledge of databases, gRPC, or any infrastructure concerns.
package domain

import "errors"

// Errors for common domain-level failures. The transport layer maps these onto
// wire status codes; nothing below the transport ever sees a status code.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInternal        = errors.New("internal error")
)
