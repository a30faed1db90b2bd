package model

import "errors"

// The five failure kinds every engine and policy decision resolves to.
// The boundary maps each kind to a fixed response shape; anything outside
// this taxonomy surfaces as a generic internal failure.

// BadRequestError marks malformed or missing caller input, including
// attempts to write a no-op update.
type BadRequestError struct {
	Message string
}

func (e BadRequestError) Error() string { return e.Message }

// NewBadRequestError creates a new BadRequestError.
func NewBadRequestError(message string) BadRequestError {
	return BadRequestError{Message: message}
}

// IsBadRequest checks if an error is a BadRequestError (including wrapped errors).
func IsBadRequest(err error) bool {
	var e BadRequestError
	return errors.As(err, &e)
}

// UnauthorizedError marks a request that carries no valid actor.
type UnauthorizedError struct {
	Message string
}

func (e UnauthorizedError) Error() string { return e.Message }

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) UnauthorizedError {
	return UnauthorizedError{Message: message}
}

// IsUnauthorized checks if an error is an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var e UnauthorizedError
	return errors.As(err, &e)
}

// ForbiddenError marks an authenticated but disallowed request: not the
// owner, not privileged, banned, or unverified.
type ForbiddenError struct {
	Message string
}

func (e ForbiddenError) Error() string { return e.Message }

// NewForbiddenError creates a new ForbiddenError.
func NewForbiddenError(message string) ForbiddenError {
	return ForbiddenError{Message: message}
}

// IsForbidden checks if an error is a ForbiddenError.
func IsForbidden(err error) bool {
	var e ForbiddenError
	return errors.As(err, &e)
}

// NotFoundError marks an entity that is missing, or one the actor is not
// allowed to see. The two cases are deliberately indistinguishable.
type NotFoundError struct {
	Message string
}

func (e NotFoundError) Error() string { return e.Message }

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(message string) NotFoundError {
	return NotFoundError{Message: message}
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	var e NotFoundError
	return errors.As(err, &e)
}

// ConflictError marks a transition that is invalid for the entity's
// current stage or archived flag. The entity exists and is visible.
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string { return e.Message }

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) ConflictError {
	return ConflictError{Message: message}
}

// IsConflict checks if an error is a ConflictError.
func IsConflict(err error) bool {
	var e ConflictError
	return errors.As(err, &e)
}
