package evolution

import (
	"math"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

// Drift is the trend of the convergence score over the sliding window.
// Sufficient is false until the window is full: a slope fitted to fewer
// points would read as misleadingly near-zero, so callers must treat an
// insufficient drift as unknown rather than stable.
type Drift struct {
	Slope      float64 `json:"slope"`
	Sufficient bool    `json:"sufficient"`
}

// computeDrift fits a least-squares line to the window and returns its
// slope in score units per sample. The window must hold exactly `size`
// samples to count as sufficient.
func computeDrift(window []core.ConvergenceSample, size int) Drift {
	if len(window) < size || len(window) < 2 {
		return Drift{}
	}

	n := float64(len(window))
	var sumX, sumY, sumXY, sumXX float64
	for i, s := range window {
		x := float64(i)
		sumX += x
		sumY += s.Score
		sumXY += x * s.Score
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Drift{Sufficient: true}
	}
	return Drift{
		Slope:      (n*sumXY - sumX*sumY) / denom,
		Sufficient: true,
	}
}

// recomputeStableRun replays a restored history and counts how many trailing
// consecutive samples carried a stable drift, rebuilding the convergence
// stability counter that is not part of the persisted record.
func recomputeStableRun(samples []core.ConvergenceSample, window int, epsilon float64) int {
	run := 0
	for end := window; end <= len(samples); end++ {
		d := computeDrift(samples[end-window:end], window)
		if d.Sufficient && math.Abs(d.Slope) < epsilon {
			run++
		} else {
			run = 0
		}
	}
	return run
}
