package evaluation

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"every related keyword mentioned", []string{"lamp value", "brass lamp"}, []string{"lamp value", "brass lamp", "x"}, 10, 1.0},
		{"half mentioned", []string{"a", "b", "c", "d"}, []string{"a", "b", "x"}, 10, 0.5},
		{"nothing retrieved", []string{"a", "b"}, nil, 10, 0.0},
		{"no relevant items", nil, []string{"a"}, 10, 0.0},
		{"cut at k", []string{"a", "b", "c"}, []string{"a", "b", "x", "y", "c"}, 3, 2.0 / 3.0},
		{"duplicates count once", []string{"a", "b"}, []string{"a", "a", "a"}, 10, 0.5},
		{"duplicate relevant items", []string{"a", "a"}, []string{"a"}, 10, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecallAtK(tt.relevant, tt.retrieved, tt.k); !almostEqual(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"first heading carries the term", []string{"a"}, []string{"a", "x"}, 10, 1.0},
		{"third heading", []string{"a"}, []string{"x", "y", "a"}, 10, 1.0 / 3.0},
		{"beyond k", []string{"a"}, []string{"x", "y", "a"}, 2, 0.0},
		{"first of several relevant", []string{"a", "b"}, []string{"x", "b", "a"}, 10, 0.5},
		{"empty relevant", nil, []string{"a"}, 10, 0.0},
		{"empty retrieved", []string{"a"}, nil, 10, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MRRAtK(tt.relevant, tt.retrieved, tt.k); !almostEqual(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestMetricsStayInUnitInterval(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		alphabet := rapid.SampledFrom([]string{"a", "b", "c", "d", "e"})
		relevant := rapid.SliceOf(alphabet).Draw(rt, "relevant")
		retrieved := rapid.SliceOf(alphabet).Draw(rt, "retrieved")
		k := rapid.IntRange(0, 8).Draw(rt, "k")

		recall := RecallAtK(relevant, retrieved, k)
		mrr := MRRAtK(relevant, retrieved, k)
		if recall < 0 || recall > 1 {
			rt.Fatalf("recall %f outside [0, 1]", recall)
		}
		if mrr < 0 || mrr > 1 {
			rt.Fatalf("mrr %f outside [0, 1]", mrr)
		}
	})
}
