package editor

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"region-obliterator/internal/opencv/safe"
)

// EditStats summarises how much an edit changed the selected pixels.
type EditStats struct {
	SelectedPixels int
	// MeanChange and StdDevChange describe the per-pixel mean absolute
	// channel difference over the selection, in 8-bit units.
	MeanChange   float64
	StdDevChange float64
}

// ComputeStats compares before and after over the pixels selected in mask.
func ComputeStats(before, after, mask *safe.Mat) (*EditStats, error) {
	if err := safe.ValidateSameSize(before, after, "edit stats"); err != nil {
		return nil, err
	}
	if err := safe.ValidateSameSize(before, mask, "edit stats"); err != nil {
		return nil, err
	}
	if before.Channels() != after.Channels() {
		return nil, fmt.Errorf("channel mismatch: %d vs %d", before.Channels(), after.Channels())
	}

	b, a, m := before.Bytes(), after.Bytes(), mask.Bytes()
	channels := before.Channels()

	diffs := make([]float64, 0, len(m)/4)
	for p, sel := range m {
		if sel == 0 {
			continue
		}
		sum := 0
		for c := 0; c < channels; c++ {
			d := int(a[p*channels+c]) - int(b[p*channels+c])
			if d < 0 {
				d = -d
			}
			sum += d
		}
		diffs = append(diffs, float64(sum)/float64(channels))
	}

	stats := &EditStats{SelectedPixels: len(diffs)}
	if len(diffs) == 0 {
		return stats, nil
	}

	stats.MeanChange, stats.StdDevChange = stat.MeanStdDev(diffs, nil)
	if len(diffs) == 1 {
		stats.StdDevChange = 0
	}
	return stats, nil
}
