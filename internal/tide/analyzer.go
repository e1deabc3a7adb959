package tide

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// AnalyzerOptions configure a long-series analysis run.
type AnalyzerOptions struct {
	Width            BucketWidth
	Solve            SolveOptions
	Flatten          FlattenOptions
	CorrectionMethod string // adjusted-R² correction, empty for the default
	CreateTimeSeries bool   // also emit the reconstructed/augmented series
	Workers          int    // parallel segment workers, <=1 for sequential
}

// Result is the output of one analysis run: the constituent table with
// one row per successfully solved segment and, when requested, the
// reconstructed time series in original row order.
type Result struct {
	Constituents []FlatRecord
	Series       *Series // nil unless CreateTimeSeries was set

	SegmentCount int // segments found in the input
	FailedCount  int // segments skipped because their solve failed
}

// Analyzer runs segmented harmonic analysis over a long observation
// record. Segments are independent, so they may be processed in
// parallel; results are reassembled in segment order so repeated runs
// over the same input with a deterministic solver are identical.
type Analyzer struct {
	adapter *SolveAdapter
	logger  *zap.SugaredLogger
	opts    AnalyzerOptions
}

// NewAnalyzer creates an analyzer around solver with the given options.
func NewAnalyzer(solver Solver, logger *zap.SugaredLogger, opts AnalyzerOptions) *Analyzer {
	if opts.Width == "" {
		opts.Width = BucketYear
	}
	return &Analyzer{
		adapter: NewSolveAdapter(solver, opts.CorrectionMethod, logger),
		logger:  logger,
		opts:    opts,
	}
}

// Adapter exposes the analyzer's solve adapter, for callers that want
// one-off solves or constituent selection with the same configuration.
func (a *Analyzer) Adapter() *SolveAdapter { return a.adapter }

// segmentResult holds one segment's output in its ordered slot. Failed
// segments leave both fields nil and contribute no rows.
type segmentResult struct {
	record *FlatRecord
	series *Series
}

// Run analyses every (bucket, location) segment of obs. A failing
// segment is logged and skipped; it never aborts the batch.
func (a *Analyzer) Run(obs []Observation) *Result {
	a.logger.Info("running tide analysis of long series")

	segments := SegmentObservations(obs, a.opts.Width)
	slots := make([]segmentResult, len(segments))

	var done atomic.Int64
	process := func(i int) {
		slots[i] = a.processSegment(segments[i])
		n := done.Add(1)
		a.logger.Debugf("analysed segment %s (%d/%d)", segments[i].Key, n, len(segments))
	}

	if a.opts.Workers > 1 {
		var wg sync.WaitGroup
		indices := make(chan int)
		for w := 0; w < a.opts.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indices {
					process(i)
				}
			}()
		}
		for i := range segments {
			indices <- i
		}
		close(indices)
		wg.Wait()
	} else {
		for i := range segments {
			process(i)
		}
	}

	res := &Result{SegmentCount: len(segments)}
	if a.opts.CreateTimeSeries {
		res.Series = &Series{}
	}
	for _, slot := range slots {
		if slot.record == nil {
			res.FailedCount++
			continue
		}
		res.Constituents = append(res.Constituents, *slot.record)
		if res.Series != nil && slot.series != nil {
			res.Series.append(slot.series)
		}
	}

	a.logger.Infof("analysed %d segments, %d failed", res.SegmentCount, res.FailedCount)
	return res
}

// processSegment solves, flattens and optionally reconstructs a single
// segment. Any failure yields an empty result for the slot.
func (a *Analyzer) processSegment(seg Segment) segmentResult {
	t := make([]time.Time, len(seg.Rows))
	h := make([]float64, len(seg.Rows))
	for i, row := range seg.Rows {
		t[i] = row.Time
		h[i] = row.Level
	}

	sol, fail := a.adapter.SolveSegment(seg.Key, t, h, a.opts.Solve)
	if fail != nil {
		return segmentResult{}
	}

	rec := Flatten(sol, a.opts.Flatten)
	rec.Key = seg.Key

	out := segmentResult{record: &rec}
	if a.opts.CreateTimeSeries {
		series, fail := a.adapter.TideAndSetup(t, h, sol, a.opts.Solve)
		if fail != nil {
			// The solve succeeded but reconstruction did not; the
			// constituent row stands, the series contributes nothing.
			return out
		}
		series.Location = make([]string, len(seg.Rows))
		for i, row := range seg.Rows {
			series.Location[i] = row.Location
		}
		out.series = series
	}
	return out
}
