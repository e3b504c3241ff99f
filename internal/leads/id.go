package leads

import (
	"fmt"

	"github.com/google/uuid"
)

// IDFunc produces a new lead id.
type IDFunc func() (string, error)

// NewID returns a UUIDv7: a millisecond timestamp followed by random bits.
// Ids sort by creation time and are unique within the process.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("leads: generate id: %w", err)
	}
	return id.String(), nil
}
