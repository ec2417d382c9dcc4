package kinematics

import (
	"fmt"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/monitoring"
	"gonum.org/v1/gonum/stat"
)

// FilterParams configures the adaptive per-region filter and its embedded
// residual-based cutoff selector.
type FilterParams struct {
	// GridMinHz..GridMaxHz bound the candidate cutoff grid; GridStepHz is
	// its spacing.
	GridMinHz  float64 `koanf:"grid_min_hz"`
	GridMaxHz  float64 `koanf:"grid_max_hz"`
	GridStepHz float64 `koanf:"grid_step_hz"`

	// KneeSlopeRatio is the fraction of the initial residual slope below
	// which a candidate counts as past the knee.
	KneeSlopeRatio float64 `koanf:"knee_slope_ratio"`

	// PlateauSlopeRatio is the fraction of the initial slope the remaining
	// curve must stay under to confirm a plateau rather than a dip.
	PlateauSlopeRatio float64 `koanf:"plateau_slope_ratio"`
}

// DefaultFilterParams returns the documented selector defaults: a 1-16 Hz
// grid at 0.5 Hz spacing, knee at 15% of the initial decline with a 30%
// plateau confirmation.
func DefaultFilterParams() FilterParams {
	return FilterParams{
		GridMinHz:         1,
		GridMaxHz:         16,
		GridStepHz:        0.5,
		KneeSlopeRatio:    0.15,
		PlateauSlopeRatio: 0.30,
	}
}

// Validate checks the filter parameters.
func (p FilterParams) Validate() error {
	if p.GridMinHz <= 0 || p.GridMaxHz <= p.GridMinHz {
		return fmt.Errorf("cutoff grid [%g, %g] Hz is invalid", p.GridMinHz, p.GridMaxHz)
	}
	if p.GridStepHz <= 0 {
		return fmt.Errorf("grid_step_hz must be positive, got %g", p.GridStepHz)
	}
	if p.KneeSlopeRatio <= 0 || p.KneeSlopeRatio >= 1 {
		return fmt.Errorf("knee_slope_ratio must be in (0,1), got %g", p.KneeSlopeRatio)
	}
	if p.PlateauSlopeRatio <= 0 || p.PlateauSlopeRatio >= 1 {
		return fmt.Errorf("plateau_slope_ratio must be in (0,1), got %g", p.PlateauSlopeRatio)
	}
	return nil
}

// FilterProfile is the per-region outcome of cutoff selection and
// filtering. The residual at the selected cutoff is the price paid for
// smoothing: a high residual at a high cutoff means genuinely fast motion
// or poor tracking, and the profile deliberately does not decide which.
type FilterProfile struct {
	Region           string          `json:"region"`
	SelectedCutoffHz float64         `json:"selected_cutoff_hz"`
	ResidualRMS      float64         `json:"residual_rms"`
	ResidualSlope    float64         `json:"residual_slope"`
	ChannelCount     int             `json:"channel_count"`
	CutoffNotFound   bool            `json:"cutoff_not_found"`
	Clamped          bool            `json:"clamped"`
	Skipped          bool            `json:"skipped"`
	Reason           string          `json:"reason,omitempty"`
	ResidualCurve    []ResidualPoint `json:"residual_curve,omitempty"`
}

// FilterResult holds the filtered magnitude channels and per-region
// profiles. Channels for joints in a skipped region stay nil.
type FilterResult struct {
	Profiles []FilterProfile

	// FilteredOmegaMag[j] is joint j's angular-velocity magnitude after
	// zero-phase low-pass at its region's selected cutoff.
	FilteredOmegaMag [][]float64

	// FilteredVelMag[j] is the filtered linear-velocity magnitude for
	// joints with a position stream.
	FilteredVelMag [][]float64
}

// ApplyRegionFilters selects a cutoff per region from the residual curve of
// the region's representative channels, clamps it into the region's
// admissible band, and filters every channel assigned to the region. A
// failed knee search is a flagged degraded mode with a documented fallback,
// never a silent success.
func ApplyRegionFilters(skel *Skeleton, rec *Recording, deriv *DerivResult, params FilterParams) (*FilterResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rate := rec.SampleRate()

	res := &FilterResult{
		Profiles:         make([]FilterProfile, len(skel.Regions)),
		FilteredOmegaMag: make([][]float64, len(skel.Joints)),
		FilteredVelMag:   make([][]float64, len(skel.Joints)),
	}

	for bi, band := range skel.Regions {
		profile := FilterProfile{Region: band.Name}
		joints := skel.JointsInRegion(bi)

		// Representative channels: every resolvable angular-velocity
		// magnitude in the region.
		var channels [][]float64
		var members []int
		for _, j := range joints {
			jd := &deriv.Joints[j]
			if jd.OK && jd.OmegaMagDeg != nil && !isConstant(jd.OmegaMagDeg) {
				channels = append(channels, jd.OmegaMagDeg)
				members = append(members, j)
			}
		}
		profile.ChannelCount = len(channels)

		if len(channels) == 0 {
			err := &DegenerateSignalError{Subject: "region " + band.Name, Reason: "no channel with usable variance"}
			profile.Skipped = true
			profile.Reason = err.Error()
			monitoring.Eventf("filter", band.Name, "region skipped: %s", err.Reason)
			res.Profiles[bi] = profile
			continue
		}

		grid := candidateGrid(params.GridMinHz, params.GridMaxHz, params.GridStepHz, rate)
		if len(grid) < 4 {
			profile.Skipped = true
			profile.Reason = fmt.Sprintf("sample rate %.1f Hz leaves no usable cutoff grid", rate)
			monitoring.Eventf("filter", band.Name, "region skipped: %s", profile.Reason)
			res.Profiles[bi] = profile
			continue
		}

		curve, err := residualCurve(channels, grid, rate)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", band.Name, err)
		}
		profile.ResidualCurve = curve

		knee := findKnee(curve, params.KneeSlopeRatio, params.PlateauSlopeRatio)
		if knee.found {
			profile.SelectedCutoffHz = knee.cutoff
			profile.ResidualRMS = knee.rms
			profile.ResidualSlope = knee.slope
		} else {
			// Documented fallback: the band midpoint. Degraded mode,
			// recorded as such.
			kerr := &CutoffNotFoundError{Region: band.Name, Reason: knee.reason}
			profile.CutoffNotFound = true
			profile.SelectedCutoffHz = band.DefaultCutoff()
			profile.Reason = kerr.Error()
			profile.ResidualRMS, profile.ResidualSlope = curveAt(curve, profile.SelectedCutoffHz)
			monitoring.Eventf("filter", band.Name, "fallback cutoff %.1f Hz: %s", profile.SelectedCutoffHz, knee.reason)
		}

		// Region totality guarantee: the applied cutoff always lies inside
		// the admissible band, clamped when the knee proposes outside it.
		if profile.SelectedCutoffHz < band.FMin {
			profile.SelectedCutoffHz = band.FMin
			profile.Clamped = true
		} else if profile.SelectedCutoffHz > band.FMax {
			profile.SelectedCutoffHz = band.FMax
			profile.Clamped = true
		}
		if profile.Clamped {
			profile.ResidualRMS, profile.ResidualSlope = curveAt(curve, profile.SelectedCutoffHz)
			monitoring.Eventf("filter", band.Name, "knee clamped into band [%g, %g] Hz", band.FMin, band.FMax)
		}

		for _, j := range members {
			jd := &deriv.Joints[j]
			filtered, err := zeroPhaseLowPass(jd.OmegaMagDeg, profile.SelectedCutoffHz, rate)
			if err != nil {
				return nil, fmt.Errorf("region %s joint %s: %w", band.Name, jd.Name, err)
			}
			res.FilteredOmegaMag[j] = filtered

			if jd.VelMagMM != nil {
				fv, err := zeroPhaseLowPass(jd.VelMagMM, profile.SelectedCutoffHz, rate)
				if err != nil {
					return nil, fmt.Errorf("region %s joint %s: %w", band.Name, jd.Name, err)
				}
				res.FilteredVelMag[j] = fv
			}
		}

		res.Profiles[bi] = profile
	}

	return res, nil
}

// curveAt returns the RMS and local slope of the residual curve at the grid
// point nearest the given cutoff.
func curveAt(curve []ResidualPoint, cutoff float64) (rms, slope float64) {
	best := 0
	for i := range curve {
		if abs(curve[i].CutoffHz-cutoff) < abs(curve[best].CutoffHz-cutoff) {
			best = i
		}
	}
	rms = curve[best].RMS
	if best+1 < len(curve) {
		slope = (curve[best+1].RMS - curve[best].RMS) / (curve[best+1].CutoffHz - curve[best].CutoffHz)
	} else if best > 0 {
		slope = (curve[best].RMS - curve[best-1].RMS) / (curve[best].CutoffHz - curve[best-1].CutoffHz)
	}
	return rms, slope
}

// isConstant reports whether a channel has effectively zero variance.
func isConstant(x []float64) bool {
	return stat.Variance(x, nil) < 1e-12
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
