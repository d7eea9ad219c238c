package util

import "github.com/google/uuid"

// NewID returns a random UUID string used for record and token IDs.
func NewID() string {
	return uuid.NewString()
}
