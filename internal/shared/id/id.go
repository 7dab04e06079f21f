// Package id provides centralized ID generation for the relay.
//
// IDs are ULIDs, so they sort by creation time and stay readable in logs
// when prefixed:
//   - Session keys: term_<target>_<ulid>
//   - Request IDs:  req_<ulid>
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionKey identifies one terminal session. It is derived from the
// requested target name so logs and metrics can be grouped by target.
type SessionKey string

// RequestID identifies an outbound collaborator request
type RequestID string

const (
	SessionPrefix = "term"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewSessionKey derives a unique session key from a target name.
// Two sessions against the same target always get distinct keys.
func NewSessionKey(target string) SessionKey {
	return SessionKey(Default().GenerateWithPrefix(SessionPrefix + "_" + target))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (k SessionKey) String() string { return string(k) }
func (id RequestID) String() string { return string(id) }

// Target returns the target name the key was derived from.
func (k SessionKey) Target() string {
	s := strings.TrimPrefix(string(k), SessionPrefix+"_")
	if i := strings.LastIndex(s, "_"); i >= 0 {
		return s[:i]
	}
	return ""
}

// Timestamp returns the creation time encoded in the key.
func (k SessionKey) Timestamp() (time.Time, error) {
	s := string(k)
	i := strings.LastIndex(s, "_")
	if i < 0 {
		return time.Time{}, fmt.Errorf("malformed session key: %q", s)
	}
	return Timestamp(s[i+1:])
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
