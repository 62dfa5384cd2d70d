package entropy

import "testing"

func TestBetweenInclusive(t *testing.T) {
	s := New(3)
	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		v := s.Between(2, 5)
		if v < 2 || v > 5 {
			t.Fatalf("Between(2,5) = %d out of range", v)
		}
		seen[v] = true
	}
	for v := 2; v <= 5; v++ {
		if !seen[v] {
			t.Errorf("Between(2,5) never produced %d", v)
		}
	}

	if got := s.Between(4, 4); got != 4 {
		t.Errorf("degenerate range = %d", got)
	}
}

func TestFloatAndUniform(t *testing.T) {
	s := New(9)
	for i := 0; i < 100; i++ {
		if f := s.Float(); f < 0 || f >= 1 {
			t.Fatalf("Float = %v out of [0,1)", f)
		}
		if u := s.Uniform(-5, 5); u < -5 || u >= 5 {
			t.Fatalf("Uniform(-5,5) = %v out of range", u)
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 50; i++ {
		if a.IntN(1000) != b.IntN(1000) {
			t.Fatal("same seed should yield the same sequence")
		}
	}
}

func TestPick(t *testing.T) {
	s := New(5)
	items := []string{"甲", "乙", "丙"}
	counts := make(map[string]int)
	for i := 0; i < 300; i++ {
		counts[Pick(s, items)]++
	}
	for _, it := range items {
		if counts[it] == 0 {
			t.Errorf("Pick never chose %q", it)
		}
	}
}
