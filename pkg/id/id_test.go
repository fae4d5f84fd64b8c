package id

import (
	"bytes"
	"testing"
)

func TestNextMonotonic(t *testing.T) {
	g := NewGenerator()
	prev := g.Next()
	for i := 0; i < 1000; i++ {
		cur := g.Next()
		if bytes.Compare(cur[:], prev[:]) <= 0 {
			t.Fatalf("id %d not increasing: %s <= %s", i, cur, prev)
		}
		prev = cur
	}
}

func TestClockBackwards(t *testing.T) {
	orig := NowMs
	defer func() { NowMs = orig }()

	now := int64(1_700_000_000_000)
	NowMs = func() int64 { return now }

	g := NewGenerator()
	a := g.Next()
	now -= 50 // clock steps backwards
	b := g.Next()
	if bytes.Compare(b[:], a[:]) <= 0 {
		t.Fatalf("backwards clock broke monotonicity: %s <= %s", b, a)
	}
}

func TestStringHex(t *testing.T) {
	var i ID
	i[0] = 0xab
	i[15] = 0x01
	s := i.String()
	if len(s) != 32 {
		t.Fatalf("hex length %d", len(s))
	}
	if s[:2] != "ab" || s[30:] != "01" {
		t.Fatalf("unexpected encoding %q", s)
	}
}
