package fieldrules

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Generator produces synthetic provider account identifiers for methods
// whose deposit payload requires one the player has not supplied. Values
// are placeholders the player replaces on the provider's own page, so the
// entropy source is deliberately non-cryptographic and no uniqueness is
// guaranteed. Only the shape is stable: first digit 1-9, total length
// matching the target field's MaxLength.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the current time
func NewGenerator() *Generator {
	return &Generator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Generate produces a synthetic numeric identifier for the given field
func (g *Generator) Generate(field Field) string {
	length := SpecFor(field).MaxLength
	if length < 1 {
		length = 10
	}
	// PayCo accepts e-mail or a 10-digit id; the synthetic form is numeric.
	if field == FieldPayCoID {
		length = 10
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(length)
	b.WriteByte(byte('1' + g.rng.Intn(9)))
	for i := 1; i < length; i++ {
		b.WriteByte(byte('0' + g.rng.Intn(10)))
	}
	return b.String()
}
