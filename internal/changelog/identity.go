package changelog

import (
	"encoding/hex"

	"github.com/google/uuid"
)

const (
	// IDLength is the number of hex characters in a generated entry id.
	IDLength = 7
	// DefaultMaxAttempts bounds the number of collision retries.
	DefaultMaxAttempts = 16
)

// Generator produces short entry identifiers that are not in use yet.
// Source and MaxAttempts can be replaced to force collisions in tests.
type Generator struct {
	Source      func() string
	MaxAttempts int
}

// NewGenerator returns a generator backed by random UUIDs.
func NewGenerator() *Generator {
	return &Generator{Source: randomID, MaxAttempts: DefaultMaxAttempts}
}

// Generate returns an id that is not contained in existing.
// It gives up with an IdentityExhaustedError after MaxAttempts collisions.
func (g *Generator) Generate(existing map[string]struct{}) (string, error) {
	source := g.Source
	if source == nil {
		source = randomID
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	for i := 0; i < attempts; i++ {
		id := source()
		if id == "" {
			continue
		}
		if _, taken := existing[id]; !taken {
			return id, nil
		}
	}
	return "", &IdentityExhaustedError{Attempts: attempts}
}

// randomID takes the leading hex digits of a v4 UUID. The first four bytes
// of a v4 UUID carry no version or variant bits.
func randomID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])[:IDLength]
}
