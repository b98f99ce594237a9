package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FixedUUIDs hands out identifiers in a fixed order.
//
// With no seed values it produces 00000000-0000-0000-0000-000000000001,
// ...0002 and so on. Seeded generators return the seeds in order and then
// continue counting from the number of seeds.
type FixedUUIDs struct {
	mu    sync.Mutex
	seeds []uuid.UUID
	next  int
}

// NewFixedUUIDs parses seeds and panics on an invalid one.
func NewFixedUUIDs(seeds ...string) *FixedUUIDs {
	g := &FixedUUIDs{}
	for _, s := range seeds {
		g.seeds = append(g.seeds, uuid.MustParse(s))
	}
	return g
}

// New returns the next identifier. Its signature matches uuid.New.
func (g *FixedUUIDs) New() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.next
	g.next++
	if i < len(g.seeds) {
		return g.seeds[i]
	}
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012x", i+1))
}

// Reset restarts the sequence.
func (g *FixedUUIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
}
