package ws

import "testing"

func TestPairwiseRoomCommutative(t *testing.T) {
	pairs := [][2]string{
		{"1", "2"},
		{"42", "7"},
		{"abc", "abd"},
		{"10", "9"},
	}
	for _, pair := range pairs {
		ab := PairwiseRoom(pair[0], pair[1])
		ba := PairwiseRoom(pair[1], pair[0])
		if ab != ba {
			t.Fatalf("PairwiseRoom(%q,%q)=%q but PairwiseRoom(%q,%q)=%q", pair[0], pair[1], ab, pair[1], pair[0], ba)
		}
	}
}

func TestPairwiseRoomDeterministic(t *testing.T) {
	if got := PairwiseRoom("2", "1"); got != "1-2" {
		t.Fatalf("expected 1-2, got %q", got)
	}
	if got := PairwiseRoom("alice", "bob"); got != "alice-bob" {
		t.Fatalf("expected alice-bob, got %q", got)
	}
}
