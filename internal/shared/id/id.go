// Package id generates the session identifiers the client attaches to envelopes.
//
// Session ids are prefixed ULIDs (sess_01J...): k-sortable, so a transcript
// ordered by id is ordered by creation time, and readable in logs.
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

// SessionID correlates a sequence of request/response envelopes.
type SessionID string

// Prefixes of the ids minted here.
const (
	SessionPrefix = "sess"
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

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// e.g. a deterministic reader in tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
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

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

func (id SessionID) String() string { return string(id) }

// NewRequestID generates an id for tracing one HTTP request on the bridge.
func NewRequestID() string {
	return Default().GenerateWithPrefix(RequestPrefix)
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from a bare or prefixed ULID.
func Timestamp(id string) (time.Time, error) {
	if _, raw, ok := Split(id); ok {
		id = raw
	}
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// Split separates a prefixed id into prefix and ULID. ok is false when id has
// no prefix or the ULID part does not parse; ids assigned by a server may be
// any opaque string.
func Split(id string) (prefix, raw string, ok bool) {
	prefix, raw, found := strings.Cut(id, "_")
	if !found || !IsValid(raw) {
		return "", "", false
	}
	return prefix, raw, true
}
