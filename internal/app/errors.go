package app

import "errors"

var (
	// ErrInvalidCredentials covers bad email or password on login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSetupComplete indicates the first admin account already exists.
	ErrSetupComplete = errors.New("admin setup already completed")
	// ErrInvalidStatus indicates an unknown booking status value.
	ErrInvalidStatus = errors.New("unknown booking status")
)
