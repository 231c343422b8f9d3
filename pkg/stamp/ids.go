package stamp

import "github.com/google/uuid"

// IDGenerator produces unique identifiers for assets and placements.
type IDGenerator func() string

// UUIDv7 returns RFC 9562 time-sortable identifiers.
func UUIDv7() IDGenerator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix to every generated id ("stp_", "plc_").
func Prefixed(prefix string, gen IDGenerator) IDGenerator {
	return func() string {
		return prefix + gen()
	}
}
