package kinematics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ResidualPoint is one sample of the residual-vs-cutoff curve.
type ResidualPoint struct {
	CutoffHz float64 `json:"cutoff_hz"`
	RMS      float64 `json:"rms"`
}

// kneeResult is the outcome of the residual knee search on one curve.
type kneeResult struct {
	cutoff float64
	rms    float64
	slope  float64
	found  bool
	reason string // why the search failed, when found is false
}

// findKnee locates the point of diminishing returns on a residual-vs-cutoff
// curve: the first candidate where the marginal residual decrease falls
// below kneeRatio of the initial decrease and the remaining curve stays
// near-flat (below plateauRatio). A monotonic or flat curve has no knee.
//
// The curve is assumed sampled on an increasing cutoff grid.
func findKnee(curve []ResidualPoint, kneeRatio, plateauRatio float64) kneeResult {
	if len(curve) < 4 {
		return kneeResult{reason: "residual grid too short for knee detection"}
	}

	slopes := make([]float64, len(curve)-1)
	for i := range slopes {
		dx := curve[i+1].CutoffHz - curve[i].CutoffHz
		slopes[i] = (curve[i+1].RMS - curve[i].RMS) / dx
	}

	// Residual curves decline with cutoff; the initial slope anchors what
	// "steep" means for this signal. Averaging two points keeps a noisy
	// first sample from skewing the reference (jolt-style knee search).
	initial := (math.Abs(slopes[0]) + math.Abs(slopes[1])) / 2
	if initial < 1e-12 {
		return kneeResult{reason: "residual curve is flat from the first candidate"}
	}

	for i := 1; i < len(slopes); i++ {
		if math.Abs(slopes[i]) >= kneeRatio*initial {
			continue
		}
		// Candidate knee: confirm the remaining curve actually plateaus
		// instead of dipping again (which would mean structure, not a knee).
		var rest []float64
		for k := i; k < len(slopes); k++ {
			rest = append(rest, math.Abs(slopes[k]))
		}
		if stat.Mean(rest, nil) <= plateauRatio*initial {
			return kneeResult{
				cutoff: curve[i].CutoffHz,
				rms:    curve[i].RMS,
				slope:  slopes[i],
				found:  true,
			}
		}
	}

	return kneeResult{reason: "no transition from steep decline to plateau on the candidate grid"}
}

// residualRMS computes the RMS of (raw - filtered).
func residualRMS(raw, filtered []float64) float64 {
	var ss float64
	for i := range raw {
		d := raw[i] - filtered[i]
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(raw)))
}

// residualCurve filters every channel at each candidate cutoff and returns
// the mean residual RMS per candidate.
func residualCurve(channels [][]float64, candidates []float64, rate float64) ([]ResidualPoint, error) {
	curve := make([]ResidualPoint, len(candidates))
	for ci, fc := range candidates {
		var total float64
		for _, ch := range channels {
			filtered, err := zeroPhaseLowPass(ch, fc, rate)
			if err != nil {
				return nil, err
			}
			total += residualRMS(ch, filtered)
		}
		curve[ci] = ResidualPoint{CutoffHz: fc, RMS: total / float64(len(channels))}
	}
	return curve, nil
}

// candidateGrid builds the cutoff grid for one region: the configured
// bounded range, intersected with what the sample rate can support.
func candidateGrid(minHz, maxHz, stepHz, rate float64) []float64 {
	nyquistCap := rate/2 - stepHz
	if maxHz > nyquistCap {
		maxHz = nyquistCap
	}
	var grid []float64
	for fc := minHz; fc <= maxHz+1e-9; fc += stepHz {
		grid = append(grid, fc)
	}
	return grid
}
