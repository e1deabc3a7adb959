package tide

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

func selectorObservations(n int) []Observation {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]Observation, n)
	for i := range obs {
		obs[i] = Observation{
			Time:     start.Add(time.Duration(i) * time.Hour),
			Location: "harlingen",
			Level:    float64(i % 5),
		}
	}
	return obs
}

func TestSelectConstituents(t *testing.T) {
	coef := &CoefficientSet{
		Names:     []string{"c1", "c2", "c3", "c4"},
		Amplitude: []float64{1.2, 0.6, 0.4, 0.1},
		Phase:     []float64{0, 0, 0, 0},
		PE:        []float64{70, 20, 9, 1},
		Mean:      0,
	}

	tests := []struct {
		name     string
		thr      float64
		expected []string
	}{
		// Cumulative PE: 70, 90, 99, 100. Reaching the threshold counts
		// as exceeding it, and the constituent that first reaches it is
		// excluded.
		{"threshold 99", 99, []string{"c1", "c2"}},
		{"threshold 90", 90, []string{"c1"}},
		{"threshold 95", 95, []string{"c1", "c2"}},
		{"threshold 100", 100, []string{"c1", "c2", "c3"}},
		{"default threshold", 0, []string{"c1", "c2"}},
		{"threshold 50", 50, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewSolveAdapter(&fakeSolver{coef: coef}, "", zap.NewNop().Sugar())

			got, err := adapter.SelectConstituents(selectorObservations(48), 53.2, tt.thr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("selected %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSelectConstituentsOnLatestBucket(t *testing.T) {
	// The batch entry point selects on the most recent bucket only, then
	// restricts the fit to the selected names. Earlier years must not
	// reach the selection solve.
	var obs []Observation
	for _, year := range []int{2021, 2022, 2023} {
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 48; i++ {
			obs = append(obs, Observation{
				Time:     start.Add(time.Duration(i) * time.Hour),
				Location: "harlingen",
				Level:    float64(i % 5),
			})
		}
	}

	coef := &CoefficientSet{
		Names:     []string{"c1", "c2", "c3", "c4"},
		Amplitude: []float64{1.2, 0.6, 0.4, 0.1},
		Phase:     []float64{0, 0, 0, 0},
		PE:        []float64{70, 20, 9, 1},
	}
	solver := &fakeSolver{coef: coef}
	adapter := NewSolveAdapter(solver, "", zap.NewNop().Sugar())

	got, err := adapter.SelectConstituents(LatestBucket(obs, BucketYear), 53.2, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("selected %v, expected [c1 c2]", got)
	}
	if solver.lastLen != 48 {
		t.Errorf("selection solve saw %d rows, expected the 48 rows of 2023", solver.lastLen)
	}
}

func TestSelectConstituentsThresholdNeverReached(t *testing.T) {
	// A solver whose PE sums below the threshold yields the whole set.
	coef := &CoefficientSet{
		Names:     []string{"c1", "c2"},
		Amplitude: []float64{1, 1},
		Phase:     []float64{0, 0},
		PE:        []float64{60, 30},
	}
	adapter := NewSolveAdapter(&fakeSolver{coef: coef}, "", zap.NewNop().Sugar())

	got, err := adapter.SelectConstituents(selectorObservations(48), 53.2, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("selected %v, expected the full set", got)
	}
}

func TestSelectConstituentsSolverFailure(t *testing.T) {
	adapter := NewSolveAdapter(&fakeSolver{solveErr: fmt.Errorf("degenerate design matrix")}, "", zap.NewNop().Sugar())

	got, err := adapter.SelectConstituents(selectorObservations(48), 53.2, 99)
	if err == nil {
		t.Fatal("expected an error so batch callers can skip this record")
	}
	if got != nil {
		t.Errorf("expected no selection alongside the error, got %v", got)
	}
}

func TestSelectConstituentsEmptyInput(t *testing.T) {
	adapter := NewSolveAdapter(&fakeSolver{coef: testCoef()}, "", zap.NewNop().Sugar())
	if _, err := adapter.SelectConstituents(nil, 53.2, 99); err == nil {
		t.Fatal("expected an error for empty input")
	}
}
