package rawcore

import (
	"fmt"

	"github.com/samber/lo"
)

// QInfo is the result of a basic file-level QA pass over a decoded scan
// range (spec.md §8's supplementary checks): scan-number monotonicity,
// duplicate retention-time detection, and peak-count extremes. Grounded on
// the teacher's QInfo() (qa.go), which leans on samber/lo's generic slice
// helpers (Map/FindDuplicates/Max/Min) instead of hand-written loops for
// exactly this kind of summary pass.
type QInfo struct {
	NumScans                int
	MonotonicScanNums       bool
	DuplicateRetentionTimes []float64
	MaxPeakCount            int
	MinPeakCount            int
	MeanPeakCount           float64
}

// RunQInfo computes a QInfo summary over scans, a caller-supplied slice of
// already-decoded scans in the order they were read.
func RunQInfo(scans []*Scan) (QInfo, error) {
	if len(scans) == 0 {
		return QInfo{}, fmt.Errorf("RunQInfo: no scans supplied")
	}

	nums := lo.Map(scans, func(s *Scan, _ int) uint32 { return s.Num })
	monotonic := true
	for i := 1; i < len(nums); i++ {
		if nums[i] <= nums[i-1] {
			monotonic = false
			break
		}
	}

	times := lo.Map(scans, func(s *Scan, _ int) float64 { return s.Index.StartTime })

	peakCounts := lo.Map(scans, func(s *Scan, _ int) int {
		peaks, err := s.Peaks(PeakModeAuto)
		if err != nil {
			return 0
		}
		return len(peaks)
	})

	return QInfo{
		NumScans:                len(scans),
		MonotonicScanNums:       monotonic,
		DuplicateRetentionTimes: lo.FindDuplicates(times),
		MaxPeakCount:            lo.Max(peakCounts),
		MinPeakCount:            lo.Min(peakCounts),
		MeanPeakCount:           lo.Mean(lo.Map(peakCounts, func(c int, _ int) float64 { return float64(c) })),
	}, nil
}
