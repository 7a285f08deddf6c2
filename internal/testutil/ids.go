package testutil

// FixedIDGenerator returns the same translation ID every time.
//
// This enables deterministic test output: the same query translated with the
// same FixedIDGenerator produces byte-identical plans, logs and CLI output.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed ID generator.
//
// If id is empty, Generate() returns "test-translation-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-translation-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements translate.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
