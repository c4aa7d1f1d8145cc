package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// IDGenerator returns a new session identifier. Generated ids must be unique
// with overwhelming probability.
type IDGenerator func() string

// UUIDGenerator returns random (v4) UUID strings. It is the default.
func UUIDGenerator() string {
	return uuid.NewString()
}

// KSUIDGenerator returns K-sortable ids, handy when stores are scanned in creation order.
func KSUIDGenerator() string {
	return ksuid.New().String()
}

// TokenGenerator returns 256 bits of randomness, base64url encoded.
func TokenGenerator() string {
	b := make([]byte, 32)
	// crypto/rand.Read never returns an error, it aborts the program instead.
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// GeneratorByName maps "uuid", "ksuid" and "token" to their generators.
func GeneratorByName(name string) (IDGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "uuid":
		return UUIDGenerator, nil
	case "ksuid":
		return KSUIDGenerator, nil
	case "token":
		return TokenGenerator, nil
	}
	return nil, fmt.Errorf("%w: unknown id generator %q", ErrConfiguration, name)
}
