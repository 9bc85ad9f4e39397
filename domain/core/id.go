package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// CacheID identifies a cached result entry.
type CacheID ID

func (id CacheID) String() string { return ID(id).String() }

// IsEmpty checks if the cache ID is empty
func (id CacheID) IsEmpty() bool { return id == "" }

// ParseCacheID parses a string into CacheID
func ParseCacheID(s string) (CacheID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("cache ID cannot be empty")
	}
	return CacheID(s), nil
}
