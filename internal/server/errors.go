// Package server provides the HTTP REST API for the autofill agent.
package server

import (
	"fmt"
	"net/http"
)

// ErrInvalidCredentials indicates an invalid service password
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid credentials"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrProfileInvalid indicates a profile document failed schema validation
type ErrProfileInvalid struct {
	Detail string
}

func (e *ErrProfileInvalid) Error() string {
	return fmt.Sprintf("profile rejected: %s", e.Detail)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *ErrValidation, *ErrProfileInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
