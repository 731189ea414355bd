package model

import (
	"fmt"
)

// NotFoundError is an error signaling that a record was not found in the
// database
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// NotFoundErrorFmt returns a NotFoundError from the passed format string and parameters
func NotFoundErrorFmt(format string, params ...any) NotFoundError {
	return NotFoundError(fmt.Sprintf(format, params...))
}

// AlreadyExistsError is an error signaling that a record with the same
// unique key already exists
type AlreadyExistsError string

// Error implements the error interface
func (e AlreadyExistsError) Error() string {
	return string(e)
}

// ValidationError signals invalid input for a store operation
type ValidationError string

// Error implements the error interface
func (e ValidationError) Error() string {
	return string(e)
}
