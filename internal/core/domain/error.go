package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrConflictingData = errors.New("data conflicts with existing data")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrInvalidCredentials         = errors.New("invalid student id or password")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrForbidden                  = errors.New("student is forbidden to access the resource")

	// * Business errors.
	ErrValidation              = errors.New("validation error")
	ErrItemUnavailable         = fmt.Errorf("%w: item is not available", ErrValidation)
	ErrOrderNotModifiable      = errors.New("order is not modifiable")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrCapacityExceeded        = errors.New("order capacity exceeded")
	ErrInsufficientBalance     = errors.New("balance is not enough")
	ErrRedemptionNotApplicable = errors.New("redemption is not applicable")
)

// TransitionError reports a status change outside the transition table.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
