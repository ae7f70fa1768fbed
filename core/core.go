package core

import "github.com/google/uuid"

// NewID generates a unique identifier string (UUID v4). Used for minting
// conversation ids when the caller does not supply one.
func NewID() string { return uuid.NewString() }
