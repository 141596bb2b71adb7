package cache

import (
	"time"

	"github.com/google/uuid"
)

// Cache defines the interface for expiring key/value stores
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Len() int
}

// NewSessionID returns a random session identifier
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id looks like one we issued
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
