package kinematics

import (
	"fmt"
	"math"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/monitoring"
	"gonum.org/v1/gonum/stat"
)

// Tier classifies a contiguous above-threshold run by its duration alone.
// Magnitude opens a candidate run; only duration decides what it was.
type Tier string

const (
	// TierArtifact is a run too short to be physiological: sensor noise.
	// Artifact frames are masked out of all downstream statistics.
	TierArtifact Tier = "artifact"
	// TierBurst is an ambiguous short burst: retained, flagged for review.
	TierBurst Tier = "burst"
	// TierFlow is sustained high-intensity motion: retained and accepted.
	TierFlow Tier = "flow"
)

// ClassifierParams configures the duration-tiered anomaly classifier.
// Durations are configured in seconds and converted to frame counts at the
// recording's sample rate; none of these values are final tuning.
type ClassifierParams struct {
	// TriggerDegPerSec opens a candidate run when the filtered angular
	// velocity magnitude exceeds it.
	TriggerDegPerSec float64 `koanf:"trigger_deg_per_sec"`

	// ArtifactMaxSec is the artifact ceiling D1: runs at most this long
	// are physiologically impossible.
	ArtifactMaxSec float64 `koanf:"artifact_max_sec"`

	// BurstMaxSec is the burst ceiling D2: runs above D1 up to this long
	// are ambiguous bursts; anything longer is flow.
	BurstMaxSec float64 `koanf:"burst_max_sec"`

	// ArtifactRateCapPct is the hard data-quality cap on the artifact
	// rate, in percent of frames.
	ArtifactRateCapPct float64 `koanf:"artifact_rate_cap_pct"`

	// HighIntensitySharePct marks a recording high-intensity when Burst
	// and Flow frames together exceed this share of all frames.
	HighIntensitySharePct float64 `koanf:"high_intensity_share_pct"`
}

// DefaultClassifierParams returns the documented classifier defaults:
// 500 deg/s trigger, 12.5 ms artifact ceiling, 50 ms burst ceiling, 1%
// artifact-rate cap.
func DefaultClassifierParams() ClassifierParams {
	return ClassifierParams{
		TriggerDegPerSec:      500,
		ArtifactMaxSec:        0.0125,
		BurstMaxSec:           0.050,
		ArtifactRateCapPct:    1.0,
		HighIntensitySharePct: 5.0,
	}
}

// Validate checks the classifier parameters.
func (p ClassifierParams) Validate() error {
	if p.TriggerDegPerSec <= 0 {
		return fmt.Errorf("trigger_deg_per_sec must be positive, got %g", p.TriggerDegPerSec)
	}
	if p.ArtifactMaxSec <= 0 || p.BurstMaxSec <= p.ArtifactMaxSec {
		return fmt.Errorf("duration ceilings invalid: artifact %gs, burst %gs", p.ArtifactMaxSec, p.BurstMaxSec)
	}
	if p.ArtifactRateCapPct <= 0 || p.ArtifactRateCapPct > 100 {
		return fmt.Errorf("artifact_rate_cap_pct must be in (0,100], got %g", p.ArtifactRateCapPct)
	}
	return nil
}

// frameCeilings converts the duration ceilings to frame counts at the
// given rate. D1 is at least one frame.
func (p ClassifierParams) frameCeilings(rate float64) (d1, d2 int) {
	d1 = int(math.Round(p.ArtifactMaxSec * rate))
	if d1 < 1 {
		d1 = 1
	}
	d2 = int(math.Round(p.BurstMaxSec * rate))
	if d2 <= d1 {
		d2 = d1 + 1
	}
	return d1, d2
}

// AnomalyEvent is one classified above-threshold run. Frames are inclusive.
type AnomalyEvent struct {
	Joint         string  `json:"joint"`
	JointIndex    int     `json:"joint_index"`
	Tier          Tier    `json:"tier"`
	StartFrame    int     `json:"start_frame"`
	EndFrame      int     `json:"end_frame"`
	PeakMagnitude float64 `json:"peak_magnitude_deg_s"`
}

// Duration returns the run length in frames.
func (e AnomalyEvent) Duration() int { return e.EndFrame - e.StartFrame + 1 }

// JointAnomalyStats holds per-joint classification results, including the
// "clean" statistics recomputed after masking artifact frames.
type JointAnomalyStats struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Classified bool   `json:"classified"`
	SkipReason string `json:"skip_reason,omitempty"`

	ArtifactCount int `json:"artifact_count"`
	BurstCount    int `json:"burst_count"`
	FlowCount     int `json:"flow_count"`

	ArtifactRatePct  float64 `json:"artifact_rate_pct"`
	LongestRunFrames int     `json:"longest_run_frames"`
	MeanEventFrames  float64 `json:"mean_event_frames"`

	// Clean statistics exclude masked artifact frames entirely; they are
	// recomputed, never interpolated over.
	CleanMaxDegPerSec  float64 `json:"clean_max_deg_s"`
	CleanMeanDegPerSec float64 `json:"clean_mean_deg_s"`
	RetainedPct        float64 `json:"retained_pct"`

	// Mask marks frames excluded from downstream statistics (true =
	// masked). Nil when the joint was not classified.
	Mask []bool `json:"-"`
}

// ClassifyResult aggregates anomaly classification for a recording.
type ClassifyResult struct {
	Joints []JointAnomalyStats `json:"joints"`
	Events []AnomalyEvent      `json:"events"`

	D1Frames int `json:"d1_frames"`
	D2Frames int `json:"d2_frames"`

	// ArtifactRatePct is the recording-wide masked-frame share across all
	// classified joints.
	ArtifactRatePct float64 `json:"artifact_rate_pct"`

	// HighIntensity marks recordings whose Burst/Flow share crosses the
	// configured dominance threshold.
	HighIntensity bool `json:"high_intensity"`
}

// Classify splits above-threshold runs of the filtered angular-velocity
// magnitude into Artifact, Burst and Flow tiers by duration, masks artifact
// frames, and recomputes clean statistics over what remains.
func Classify(skel *Skeleton, rec *Recording, filt *FilterResult, params ClassifierParams) (*ClassifyResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rate := rec.SampleRate()
	d1, d2 := params.frameCeilings(rate)

	res := &ClassifyResult{
		Joints:   make([]JointAnomalyStats, len(skel.Joints)),
		D1Frames: d1,
		D2Frames: d2,
	}

	var totalFrames, maskedFrames, intenseFrames int

	for j := range skel.Joints {
		js := JointAnomalyStats{Index: j, Name: skel.Joints[j].Name}
		signal := filt.FilteredOmegaMag[j]
		if signal == nil {
			js.SkipReason = "no filtered angular-velocity channel"
			res.Joints[j] = js
			continue
		}

		runs := findRuns(signal, params.TriggerDegPerSec)
		mask := make([]bool, len(signal))
		var durs []float64

		for _, run := range runs {
			ev := AnomalyEvent{
				Joint:         js.Name,
				JointIndex:    j,
				StartFrame:    run.start,
				EndFrame:      run.end,
				PeakMagnitude: run.peak,
			}
			dur := ev.Duration()
			switch {
			case dur <= d1:
				ev.Tier = TierArtifact
				js.ArtifactCount++
				for f := run.start; f <= run.end; f++ {
					mask[f] = true
				}
				monitoring.Eventf("classifier", js.Name,
					"artifact masked frames %d-%d (peak %.0f deg/s, %d frames <= D1=%d)",
					run.start, run.end, run.peak, dur, d1)
			case dur <= d2:
				ev.Tier = TierBurst
				js.BurstCount++
				intenseFrames += dur
			default:
				ev.Tier = TierFlow
				js.FlowCount++
				intenseFrames += dur
			}
			if dur > js.LongestRunFrames {
				js.LongestRunFrames = dur
			}
			durs = append(durs, float64(dur))
			res.Events = append(res.Events, ev)
		}

		masked := 0
		for _, m := range mask {
			if m {
				masked++
			}
		}
		n := len(signal)
		js.Classified = true
		js.Mask = mask
		js.ArtifactRatePct = 100 * float64(masked) / float64(n)
		js.RetainedPct = 100 - js.ArtifactRatePct
		if len(durs) > 0 {
			js.MeanEventFrames = stat.Mean(durs, nil)
		}
		js.CleanMaxDegPerSec, js.CleanMeanDegPerSec = cleanStats(signal, mask)

		totalFrames += n
		maskedFrames += masked
		res.Joints[j] = js
	}

	if totalFrames > 0 {
		res.ArtifactRatePct = 100 * float64(maskedFrames) / float64(totalFrames)
		res.HighIntensity = 100*float64(intenseFrames)/float64(totalFrames) > params.HighIntensitySharePct
	}
	return res, nil
}

type run struct {
	start, end int
	peak       float64
}

// findRuns returns the contiguous runs of samples strictly above the
// trigger threshold.
func findRuns(signal []float64, trigger float64) []run {
	var runs []run
	open := false
	var cur run
	for i, v := range signal {
		if v > trigger {
			if !open {
				open = true
				cur = run{start: i, peak: v}
			} else if v > cur.peak {
				cur.peak = v
			}
			cur.end = i
			continue
		}
		if open {
			runs = append(runs, cur)
			open = false
		}
	}
	if open {
		runs = append(runs, cur)
	}
	return runs
}

// cleanStats computes max and mean over unmasked frames only.
func cleanStats(signal []float64, mask []bool) (max, mean float64) {
	var sum float64
	var count int
	for i, v := range signal {
		if mask[i] {
			continue
		}
		if v > max {
			max = v
		}
		sum += v
		count++
	}
	if count > 0 {
		mean = sum / float64(count)
	}
	return max, mean
}
