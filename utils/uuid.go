package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new time-ordered UUID (v7). Falls back to a random v4 if the clock source fails.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
