package tide

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

// batchObservations builds two years of monthly readings for two
// locations. Location "bad" carries negative levels, which the batch
// fake solver rejects.
func batchObservations() []Observation {
	var obs []Observation
	for year := 2021; year <= 2022; year++ {
		for month := 1; month <= 12; month++ {
			ts := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			obs = append(obs,
				Observation{Time: ts, Location: "good", Level: float64(month)},
				Observation{Time: ts, Location: "bad", Level: -float64(month)},
			)
		}
	}
	return obs
}

func batchSolver() *fakeSolver {
	return &fakeSolver{
		coef: testCoef(),
		failWhen: func(h []float64) error {
			for _, v := range h {
				if v < 0 {
					return fmt.Errorf("negative levels")
				}
			}
			return nil
		},
	}
}

func newTestAnalyzer(opts AnalyzerOptions) *Analyzer {
	return NewAnalyzer(batchSolver(), zap.NewNop().Sugar(), opts)
}

func TestAnalyzerSkipsFailedSegments(t *testing.T) {
	analyzer := newTestAnalyzer(AnalyzerOptions{
		Width: BucketYear,
		Solve: SolveOptions{Latitude: 53.2},
	})

	res := analyzer.Run(batchObservations())

	if res.SegmentCount != 4 {
		t.Fatalf("expected 4 segments (2 years x 2 locations), got %d", res.SegmentCount)
	}
	if res.FailedCount != 2 {
		t.Errorf("expected both 'bad' segments to fail, got %d failures", res.FailedCount)
	}
	// One row per successful segment, nothing for failures.
	if len(res.Constituents) != 2 {
		t.Fatalf("constituent table has %d rows, expected 2", len(res.Constituents))
	}
	for _, rec := range res.Constituents {
		if rec.Key.Location != "good" {
			t.Errorf("unexpected row for location %q", rec.Key.Location)
		}
	}
	// No time series requested.
	if res.Series != nil {
		t.Error("series produced although CreateTimeSeries was off")
	}
}

func TestAnalyzerTimeSeriesOrder(t *testing.T) {
	analyzer := newTestAnalyzer(AnalyzerOptions{
		Width:            BucketYear,
		Solve:            SolveOptions{Latitude: 53.2},
		CreateTimeSeries: true,
	})

	res := analyzer.Run(batchObservations())
	if res.Series == nil {
		t.Fatal("expected a reconstructed series")
	}

	// Only the 24 "good" rows survive, in segment order then input order.
	if res.Series.Len() != 24 {
		t.Fatalf("series has %d rows, expected 24", res.Series.Len())
	}
	for i := 1; i < res.Series.Len(); i++ {
		if res.Series.Time[i].Before(res.Series.Time[i-1]) {
			t.Fatalf("series rows out of order at %d: %v before %v",
				i, res.Series.Time[i], res.Series.Time[i-1])
		}
	}
	for i := 0; i < res.Series.Len(); i++ {
		if res.Series.Location[i] != "good" {
			t.Errorf("row %d belongs to %q, failed segments must contribute no rows",
				i, res.Series.Location[i])
		}
		want := res.Series.Observed[i] - res.Series.Astronomic[i]
		if res.Series.Setup[i] != want {
			t.Errorf("row %d setup %v != observed-astronomic %v", i, res.Series.Setup[i], want)
		}
	}
}

func TestAnalyzerDeterministic(t *testing.T) {
	opts := AnalyzerOptions{
		Width:            BucketYear,
		Solve:            SolveOptions{Latitude: 53.2},
		Flatten:          FlattenOptions{IncludePhase: true, IncludeCharLevels: true},
		CreateTimeSeries: true,
	}

	first := newTestAnalyzer(opts).Run(batchObservations())
	second := newTestAnalyzer(opts).Run(batchObservations())
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical input differ")
	}
}

func TestAnalyzerParallelMatchesSequential(t *testing.T) {
	base := AnalyzerOptions{
		Width:            BucketMonth,
		Solve:            SolveOptions{Latitude: 53.2},
		CreateTimeSeries: true,
	}

	sequential := newTestAnalyzer(base).Run(batchObservations())

	parallel := base
	parallel.Workers = 4
	got := newTestAnalyzer(parallel).Run(batchObservations())

	if !reflect.DeepEqual(sequential, got) {
		t.Error("parallel run differs from sequential run")
	}
}

func TestAnalyzerEmptyInput(t *testing.T) {
	res := newTestAnalyzer(AnalyzerOptions{Solve: SolveOptions{Latitude: 53.2}}).Run(nil)
	if res.SegmentCount != 0 || len(res.Constituents) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
