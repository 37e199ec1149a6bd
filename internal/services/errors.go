package services

import (
	"errors"
	"fmt"

	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/internal/statemachine"
	"gorm.io/gorm"
)

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("role not permitted for this action")
	ErrInvalidState = errors.New("invalid state transition")
	ErrPrecondition = errors.New("precondition failed")
	ErrConflict     = errors.New("record was modified concurrently")
	ErrUpstream     = errors.New("e-procurement portal unavailable")
)

// translate maps repository and state machine errors onto the service sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrPrecondition), errors.Is(err, ErrConflict), errors.Is(err, ErrUpstream):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStaleVersion), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, statemachine.ErrRoleNotAllowed):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	case errors.Is(err, statemachine.ErrTransitionNotAllowed):
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return err
}
