package kinematics

import (
	"math"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/units"
)

// Synthetic fixtures for the batch runner and scenario tests. Real captures
// arrive from ingestion collaborators; these generate recordings with known
// ground truth so classification and selection behaviour can be verified.

// SynthSkeleton returns a small humanoid arena with the standard six-region
// partition and its admissible cutoff bands.
func SynthSkeleton() (*Skeleton, error) {
	joints := []Joint{
		{Name: "Hips", Parent: RootParent, HasRotation: true, HasPosition: true},
		{Name: "Spine", Parent: 0, HasRotation: true},
		{Name: "Head", Parent: 1, HasRotation: true},
		{Name: "LeftShoulder", Parent: 1, HasRotation: true},
		{Name: "LeftHand", Parent: 3, HasRotation: true, HasPosition: true},
		{Name: "RightShoulder", Parent: 1, HasRotation: true},
		{Name: "RightHand", Parent: 5, HasRotation: true, HasPosition: true},
		{Name: "LeftThigh", Parent: 0, HasRotation: true},
		{Name: "LeftFoot", Parent: 7, HasRotation: true, HasPosition: true},
		{Name: "RightThigh", Parent: 0, HasRotation: true},
		{Name: "RightFoot", Parent: 9, HasRotation: true, HasPosition: true},
	}
	rules := []RegionRule{
		{Pattern: "Hips", Region: "trunk"},
		{Pattern: "Spine", Region: "trunk"},
		{Pattern: "Head", Region: "head"},
		{Pattern: "*Shoulder", Region: "proximal-upper"},
		{Pattern: "*Hand", Region: "distal-upper"},
		{Pattern: "*Thigh", Region: "proximal-lower"},
		{Pattern: "*Foot", Region: "distal-lower"},
	}
	bands := []RegionBand{
		{Name: "trunk", FMin: 2, FMax: 6},
		{Name: "head", FMin: 2, FMax: 8},
		{Name: "proximal-upper", FMin: 4, FMax: 10},
		{Name: "distal-upper", FMin: 6, FMax: 14},
		{Name: "proximal-lower", FMin: 4, FMax: 10},
		{Name: "distal-lower", FMin: 6, FMax: 14},
	}
	return Build(joints, rules, bands)
}

// SynthRecording generates frames of smooth oscillating motion at the given
// rate. Each joint sways about a fixed axis at ampDeg degrees peak and
// freqHz cycles per second, giving a quiet, fully resolvable baseline.
func SynthRecording(skel *Skeleton, id string, frames int, rate, ampDeg, freqHz float64) *Recording {
	rec := &Recording{
		ID:        id,
		SubjectID: "subject-" + id,
		Time:      make([]float64, frames),
		Rot:       make([][]Quat, len(skel.Joints)),
		Pos:       make([][][3]float64, len(skel.Joints)),
	}
	for i := 0; i < frames; i++ {
		rec.Time[i] = float64(i) / rate
	}

	amp := units.DegToRad(ampDeg)
	for j := range skel.Joints {
		if skel.Joints[j].HasRotation {
			series := make([]Quat, frames)
			// Stagger phase per joint so channels are not identical.
			phase := float64(j) * 0.7
			for i := 0; i < frames; i++ {
				angle := amp * math.Sin(2*math.Pi*freqHz*rec.Time[i]+phase)
				series[i] = FromAxisAngle(0, 0, 1, angle)
			}
			rec.Rot[j] = series
		}
		if skel.Joints[j].HasPosition {
			series := make([][3]float64, frames)
			for i := 0; i < frames; i++ {
				series[i] = [3]float64{
					100 * math.Sin(2*math.Pi*freqHz*rec.Time[i]),
					50 * math.Cos(2*math.Pi*freqHz*rec.Time[i]),
					900,
				}
			}
			rec.Pos[j] = series
		}
	}
	return rec
}

// InjectSpike overwrites durFrames frames of joint j starting at frame
// start with rotation steps of magDegPerSec, producing a contiguous
// above-threshold run of exactly durFrames in the angular-velocity
// magnitude. Used to plant events with known tier boundaries.
func InjectSpike(rec *Recording, j, start, durFrames int, magDegPerSec float64) {
	series := rec.Rot[j]
	if series == nil {
		return
	}
	stepRad := units.DegToRad(magDegPerSec) * (rec.Time[1] - rec.Time[0])
	// Velocity at frame i comes from the i -> i+1 interval, so the run
	// covers intervals [start, start+durFrames).
	for i := start; i < start+durFrames && i+1 < len(series); i++ {
		series[i+1] = series[i].Mul(FromAxisAngle(1, 0, 0, stepRad))
	}
	// Hold the pose afterwards so the spike does not smear into later
	// intervals.
	for i := start + durFrames + 1; i < len(series); i++ {
		series[i] = series[start+durFrames]
	}
}
