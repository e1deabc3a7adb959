package tide

import (
	"sort"
	"time"
)

// Segment is one non-empty (bucket, location) group of observations.
// Rows keep the order they had in the input table.
type Segment struct {
	Key  SegmentKey
	Rows []Observation
}

// FloorBucket floors t to the start of its calendar-aligned bucket in
// t's own timezone.
func FloorBucket(t time.Time, width BucketWidth) time.Time {
	switch width {
	case BucketYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	case BucketQuarter:
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, t.Location())
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case BucketDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	default:
		// Unknown widths fall back to yearly, the analysis default.
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	}
}

// SegmentObservations partitions obs into non-empty (bucket, location)
// groups. Every input row lands in exactly one group and keeps its
// relative order; groups are returned sorted by bucket, then location.
func SegmentObservations(obs []Observation, width BucketWidth) []Segment {
	groups := make(map[SegmentKey]*Segment)
	order := make([]SegmentKey, 0)

	for _, o := range obs {
		key := SegmentKey{Bucket: FloorBucket(o.Time, width), Location: o.Location}
		g, ok := groups[key]
		if !ok {
			g = &Segment{Key: key}
			groups[key] = g
			order = append(order, key)
		}
		g.Rows = append(g.Rows, o)
	}

	sort.Slice(order, func(i, j int) bool {
		if !order[i].Bucket.Equal(order[j].Bucket) {
			return order[i].Bucket.Before(order[j].Bucket)
		}
		return order[i].Location < order[j].Location
	})

	segments := make([]Segment, 0, len(order))
	for _, key := range order {
		segments = append(segments, *groups[key])
	}
	return segments
}

// LatestBucket returns the rows of the most recent bucket in obs, the
// subset the constituent selector typically works from.
func LatestBucket(obs []Observation, width BucketWidth) []Observation {
	segments := SegmentObservations(obs, width)
	if len(segments) == 0 {
		return nil
	}
	last := segments[len(segments)-1].Key.Bucket
	var out []Observation
	for _, s := range segments {
		if s.Key.Bucket.Equal(last) {
			out = append(out, s.Rows...)
		}
	}
	return out
}
