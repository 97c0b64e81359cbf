package store

import "errors"

var (
	// ErrNotFound is returned when a record doesn't exist in its kind's table.
	ErrNotFound = errors.New("slipway: record not found")

	// ErrAlreadyExists is returned when a create collides with an existing record ID.
	ErrAlreadyExists = errors.New("slipway: record already exists")

	// ErrHasLoads is returned when deleting a protected boat that still carries loads.
	ErrHasLoads = errors.New("slipway: boat has assigned loads")

	// ErrAlreadyAssigned is returned when assigning a load that already has a carrier.
	ErrAlreadyAssigned = errors.New("slipway: load is already assigned")

	// ErrNotAssigned is returned when releasing a load the boat does not carry.
	ErrNotAssigned = errors.New("slipway: load is not assigned to this boat")
)
