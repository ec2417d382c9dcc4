package kinematics

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Decision is the categorised verdict for a recording.
type Decision string

const (
	DecisionAccept              Decision = "ACCEPT"
	DecisionAcceptHighIntensity Decision = "ACCEPT_HIGH_INTENSITY"
	DecisionReview              Decision = "REVIEW"
	DecisionReject              Decision = "REJECT"
)

// Diagnostics carries the out-of-band quality inputs produced by external
// collaborators: calibration, rigid-body stability and signal quality.
// They are inputs to the combinator, not products of this engine.
type Diagnostics struct {
	// CalibrationRMSEmm is the marker calibration residual.
	CalibrationRMSEmm float64 `json:"calibration_rmse_mm"`

	// RigidBodyRangeMM is the observed spread of nominally fixed
	// inter-marker distances over the recording.
	RigidBodyRangeMM float64 `json:"rigid_body_range_mm"`

	// MinSNRdB is the worst per-channel signal-to-noise ratio.
	MinSNRdB float64 `json:"min_snr_db"`

	// OcclusionRatioPct is the share of frames lost to occlusion.
	OcclusionRatioPct float64 `json:"occlusion_ratio_pct"`

	// RegionalOcclusion flags a spatially clustered occlusion pattern.
	RegionalOcclusion bool `json:"regional_occlusion"`

	// IdentityMismatch flags a recording whose subject does not match the
	// calibration it was processed against.
	IdentityMismatch bool `json:"identity_mismatch"`
}

// Band maps a raw diagnostic value onto a 0-100 component score by linear
// interpolation between its Best and Worst anchors, clamped at both ends.
// Best may sit above or below Worst; the mapping is monotonic either way.
type Band struct {
	Best  float64 `koanf:"best" json:"best"`
	Worst float64 `koanf:"worst" json:"worst"`
}

// Score maps v through the band.
func (b Band) Score(v float64) float64 {
	if b.Best == b.Worst {
		return 0
	}
	s := 100 * (v - b.Worst) / (b.Best - b.Worst)
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// ComponentWeights are the fixed weights of the quality components; they
// must sum to 1.
type ComponentWeights struct {
	Calibration  float64 `koanf:"calibration"`
	RigidBody    float64 `koanf:"rigid_body"`
	SNR          float64 `koanf:"snr"`
	ArtifactRate float64 `koanf:"artifact_rate"`
	Residual     float64 `koanf:"residual"`
	Coverage     float64 `koanf:"coverage"`
}

// ScoringParams configures the scoring and decision combinator. The band
// anchors and thresholds are empirically tuned, not derived; they are
// configuration precisely so they can keep moving.
type ScoringParams struct {
	Weights ComponentWeights `koanf:"weights"`

	CalibrationBand Band `koanf:"calibration_band"` // mm, lower better
	RigidBodyBand   Band `koanf:"rigid_body_band"`  // mm, lower better
	SNRBand         Band `koanf:"snr_band"`         // dB, higher better
	ResidualBand    Band `koanf:"residual_band"`    // deg/s, lower better
	CoverageBand    Band `koanf:"coverage_band"`    // % occluded, lower better

	// Hard-fail absolutes.
	SNRFloorDB         float64 `koanf:"snr_floor_db"`
	RigidBodyCeilingMM float64 `koanf:"rigid_body_ceiling_mm"`

	// Soft-warning margins.
	CalibrationMarginalMM float64 `koanf:"calibration_marginal_mm"`
	SNRMarginalDB         float64 `koanf:"snr_marginal_db"`

	// AcceptThreshold is the aggregate score at or above which an
	// unflagged recording is accepted.
	AcceptThreshold float64 `koanf:"accept_threshold"`
}

// DefaultScoringParams returns the documented scoring defaults.
func DefaultScoringParams() ScoringParams {
	return ScoringParams{
		Weights: ComponentWeights{
			Calibration:  0.20,
			RigidBody:    0.15,
			SNR:          0.15,
			ArtifactRate: 0.20,
			Residual:     0.15,
			Coverage:     0.15,
		},
		CalibrationBand:       Band{Best: 0.5, Worst: 3.0},
		RigidBodyBand:         Band{Best: 1.0, Worst: 10.0},
		SNRBand:               Band{Best: 40, Worst: 10},
		ResidualBand:          Band{Best: 5, Worst: 50},
		CoverageBand:          Band{Best: 0, Worst: 20},
		SNRFloorDB:            8,
		RigidBodyCeilingMM:    15,
		CalibrationMarginalMM: 2.0,
		SNRMarginalDB:         15,
		AcceptThreshold:       75,
	}
}

// Validate checks the scoring parameters.
func (p ScoringParams) Validate() error {
	sum := p.Weights.Calibration + p.Weights.RigidBody + p.Weights.SNR +
		p.Weights.ArtifactRate + p.Weights.Residual + p.Weights.Coverage
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("component weights must sum to 1, got %g", sum)
	}
	for _, b := range []Band{p.CalibrationBand, p.RigidBodyBand, p.SNRBand, p.ResidualBand, p.CoverageBand} {
		if b.Best == b.Worst {
			return fmt.Errorf("band anchors must differ, got best=worst=%g", b.Best)
		}
	}
	if p.AcceptThreshold <= 0 || p.AcceptThreshold > 100 {
		return fmt.Errorf("accept_threshold must be in (0,100], got %g", p.AcceptThreshold)
	}
	return nil
}

// ComponentScore is one weighted quality dimension.
type ComponentScore struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// QualityScore is the terminal artifact of the pipeline: component
// breakdown, aggregate, decision and a reason string naming every
// triggering condition.
type QualityScore struct {
	Components []ComponentScore `json:"components"`
	Aggregate  float64          `json:"aggregate"`
	Decision   Decision         `json:"decision"`
	Reason     string           `json:"reason"`
}

// Score combines classifier output, filter profiles, and external
// diagnostics into a weighted score and a three-tier decision. Hard-fail
// conditions force REJECT regardless of score; absent those, soft warnings
// force REVIEW; only then does the number decide. Identical inputs produce
// an identical decision and an identically ordered reason string.
func Score(classify *ClassifyResult, filt *FilterResult, diags Diagnostics, cparams ClassifierParams, params ScoringParams) (*QualityScore, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	residual := meanResidual(filt.Profiles)
	artifactBand := Band{Best: 0, Worst: cparams.ArtifactRateCapPct}

	qs := &QualityScore{
		Components: []ComponentScore{
			{Name: "calibration", Value: diags.CalibrationRMSEmm, Score: params.CalibrationBand.Score(diags.CalibrationRMSEmm), Weight: params.Weights.Calibration},
			{Name: "rigid_body", Value: diags.RigidBodyRangeMM, Score: params.RigidBodyBand.Score(diags.RigidBodyRangeMM), Weight: params.Weights.RigidBody},
			{Name: "snr", Value: diags.MinSNRdB, Score: params.SNRBand.Score(diags.MinSNRdB), Weight: params.Weights.SNR},
			{Name: "artifact_rate", Value: classify.ArtifactRatePct, Score: artifactBand.Score(classify.ArtifactRatePct), Weight: params.Weights.ArtifactRate},
			{Name: "residual", Value: residual, Score: params.ResidualBand.Score(residual), Weight: params.Weights.Residual},
			{Name: "coverage", Value: diags.OcclusionRatioPct, Score: params.CoverageBand.Score(diags.OcclusionRatioPct), Weight: params.Weights.Coverage},
		},
	}
	for _, c := range qs.Components {
		qs.Aggregate += c.Score * c.Weight
	}

	// Tier 1: hard-fail conditions, checked in fixed order.
	var hard []string
	if classify.ArtifactRatePct > cparams.ArtifactRateCapPct {
		hard = append(hard, fmt.Sprintf("artifact rate %.2f%% above cap %.2f%%", classify.ArtifactRatePct, cparams.ArtifactRateCapPct))
	}
	if diags.MinSNRdB < params.SNRFloorDB {
		hard = append(hard, fmt.Sprintf("SNR %.1f dB below floor %.1f dB", diags.MinSNRdB, params.SNRFloorDB))
	}
	if diags.RigidBodyRangeMM > params.RigidBodyCeilingMM {
		hard = append(hard, fmt.Sprintf("rigid-body variability %.1f mm above ceiling %.1f mm", diags.RigidBodyRangeMM, params.RigidBodyCeilingMM))
	}
	if diags.IdentityMismatch {
		hard = append(hard, "subject identity does not match calibration")
	}
	if len(hard) > 0 {
		qs.Decision = DecisionReject
		qs.Reason = "hard-fail: " + strings.Join(hard, "; ")
		return qs, nil
	}

	// Tier 2: soft warnings, fixed order.
	var soft []string
	if diags.CalibrationRMSEmm > params.CalibrationMarginalMM {
		soft = append(soft, fmt.Sprintf("marginal calibration %.2f mm", diags.CalibrationRMSEmm))
	}
	if diags.MinSNRdB < params.SNRMarginalDB {
		soft = append(soft, fmt.Sprintf("marginal SNR %.1f dB", diags.MinSNRdB))
	}
	if diags.RegionalOcclusion {
		soft = append(soft, "regional occlusion pattern detected")
	}
	for _, p := range filt.Profiles {
		if p.CutoffNotFound {
			soft = append(soft, fmt.Sprintf("cutoff not found for region %s", p.Region))
		}
	}
	if len(soft) > 0 {
		qs.Decision = DecisionReview
		qs.Reason = "soft-warning: " + strings.Join(soft, "; ")
		return qs, nil
	}

	// Tier 3: the number decides.
	if qs.Aggregate >= params.AcceptThreshold {
		if classify.HighIntensity {
			qs.Decision = DecisionAcceptHighIntensity
			qs.Reason = fmt.Sprintf("score %.1f at or above accept threshold %.1f; sustained high-intensity motion retained", qs.Aggregate, params.AcceptThreshold)
		} else {
			qs.Decision = DecisionAccept
			qs.Reason = fmt.Sprintf("score %.1f at or above accept threshold %.1f; no hard-fail or soft-warning conditions", qs.Aggregate, params.AcceptThreshold)
		}
		return qs, nil
	}
	qs.Decision = DecisionReview
	qs.Reason = fmt.Sprintf("score %.1f below accept threshold %.1f", qs.Aggregate, params.AcceptThreshold)
	return qs, nil
}

// meanResidual averages the residual RMS over regions that produced one.
func meanResidual(profiles []FilterProfile) float64 {
	var vals []float64
	for _, p := range profiles {
		if !p.Skipped {
			vals = append(vals, p.ResidualRMS)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}
