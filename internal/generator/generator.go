// Package generator produces random player accents.
package generator

import (
	"fmt"
	"time"

	"github.com/valyala/fastrand"
)

// Generator produces random #rrggbb colors.
type Generator struct {
	rng fastrand.RNG
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(uint32(time.Now().UnixNano()))
}

// NewSeeded returns a Generator with a fixed seed, so its sequence is reproducible.
func NewSeeded(seed uint32) *Generator {
	g := &Generator{}
	g.rng.Seed(seed)
	return g
}

// Color returns a random color in #rrggbb form.
func (g *Generator) Color() string {
	return fmt.Sprintf("#%06x", g.rng.Uint32n(0x1000000))
}

// Colors returns n random colors.
func (g *Generator) Colors(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Color())
	}
	return out
}
