package carpark

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat indicates a spot ID or registration number does not
	// match its required pattern.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidSpotID is the ErrInvalidFormat raised for a malformed spot ID.
	ErrInvalidSpotID = fmt.Errorf("invalid spot ID: %w", ErrInvalidFormat)
	// ErrDuplicateID indicates a spot with the same ID already exists.
	ErrDuplicateID = errors.New("spot already exists")
	// ErrNotFound indicates no spot or parked car matches the request.
	ErrNotFound = errors.New("not found")
	// ErrSpotOccupied indicates the spot holds a car and cannot be parked in or deleted.
	ErrSpotOccupied = errors.New("spot is occupied")
	// ErrDuplicateRegistration indicates a car with the same registration
	// number is already parked.
	ErrDuplicateRegistration = errors.New("registration already parked")
)
