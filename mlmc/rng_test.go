package mlmc

import (
	"math"
	"testing"
)

func TestRunKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewRunKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewRunKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	rng1 := NewPartitionedRNG(NewRunKey(42))
	rng2 := NewPartitionedRNG(NewRunKey(42))

	for i := 0; i < 5; i++ {
		v1 := rng1.ForStream(StreamLevel(0)).Float64()
		v2 := rng2.ForStream(StreamLevel(0)).Float64()
		if v1 != v2 {
			t.Errorf("draw %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_StreamIsolation(t *testing.T) {
	// Draws on one level's stream must not shift another level's sequence.
	perturbed := NewPartitionedRNG(NewRunKey(42))
	for i := 0; i < 100; i++ {
		perturbed.ForStream(StreamLevel(1)).Float64()
	}

	fresh := NewPartitionedRNG(NewRunKey(42))
	for i := 0; i < 10; i++ {
		got := perturbed.ForStream(StreamLevel(0)).Float64()
		want := fresh.ForStream(StreamLevel(0)).Float64()
		if got != want {
			t.Fatalf("draw %d on level 0 shifted by level-1 draws: got %v, want %v", i, got, want)
		}
	}
}

func TestPartitionedRNG_DifferentSeedsDiverge(t *testing.T) {
	a := NewPartitionedRNG(NewRunKey(1)).ForStream(StreamLevel(0))
	b := NewPartitionedRNG(NewRunKey(2)).ForStream(StreamLevel(0))

	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical level-0 sequences")
	}
}

func TestPartitionedRNG_CachesStreams(t *testing.T) {
	p := NewPartitionedRNG(NewRunKey(7))
	if p.ForStream("level_3") != p.ForStream("level_3") {
		t.Error("repeated lookups should return the same instance")
	}
	if p.Key() != NewRunKey(7) {
		t.Errorf("Key: got %d, want 7", p.Key())
	}
}

func TestStreamLevel_Naming(t *testing.T) {
	if got := StreamLevel(0); got != "level_0" {
		t.Errorf("StreamLevel(0) = %q, want %q", got, "level_0")
	}
	if StreamLevel(3) == StreamLevel(4) {
		t.Error("distinct levels must map to distinct stream names")
	}
}
