package generator

import (
	"regexp"
	"testing"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestColorFormat(t *testing.T) {
	g := New()
	for i := 0; i < 100; i++ {
		c := g.Color()
		if !colorPattern.MatchString(c) {
			t.Fatalf("unexpected color %q", c)
		}
	}
}

func TestSeededColorsRepeat(t *testing.T) {
	a := NewSeeded(42).Colors(5)
	b := NewSeeded(42).Colors(5)
	if len(a) != 5 {
		t.Fatalf("expected 5 colors, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected same sequence for same seed: %v vs %v", a, b)
		}
	}
}
