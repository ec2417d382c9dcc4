package kinematics

import (
	"fmt"
	"time"
)

// EngineVersion tags results with the algorithm revision that produced
// them. Provenance only; it never feeds a numeric field.
const EngineVersion = "kinematics-qa-v1"

// ProcessingEvent records one fallback, exclusion or degraded-mode decision
// taken anywhere in the chain. Every such decision appears here; there are
// no silent fixes. Frame range is [-1,-1] for events without one.
type ProcessingEvent struct {
	Stage      string `json:"stage"`
	Subject    string `json:"subject"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
	Reason     string `json:"reason"`
}

// JointSummary condenses per-joint diagnostics for persistence and
// reporting collaborators.
type JointSummary struct {
	Name       string          `json:"name"`
	Region     string          `json:"region"`
	Resolved   bool            `json:"resolved"`
	SkipReason string          `json:"skip_reason,omitempty"`
	Flips      ContinuityFlips `json:"continuity_flips"`

	ArtifactCount int     `json:"artifact_count"`
	BurstCount    int     `json:"burst_count"`
	FlowCount     int     `json:"flow_count"`
	CleanMax      float64 `json:"clean_max_deg_s"`
	CleanMean     float64 `json:"clean_mean_deg_s"`
	RetainedPct   float64 `json:"retained_pct"`
}

// RecordingResult is the structured result for one recording: the terminal,
// format-agnostic artifact handed to report and visualization
// collaborators. Numeric fields depend only on inputs and parameters;
// provenance fields carry everything time- or run-dependent.
type RecordingResult struct {
	// Provenance.
	RunID       string    `json:"run_id"`
	RecordingID string    `json:"recording_id"`
	SubjectID   string    `json:"subject_id"`
	ProcessedAt time.Time `json:"processed_at"`
	Engine      string    `json:"engine"`

	Frames       int     `json:"frames"`
	SampleRateHz float64 `json:"sample_rate_hz"`

	Joints  []JointSummary    `json:"joints"`
	Events  []ProcessingEvent `json:"events"`
	Quality *QualityScore     `json:"quality"`

	// Full per-stage outputs, kept in memory for downstream consumers
	// that need channel-level data.
	Pose           *PoseResult     `json:"-"`
	Derivatives    *DerivResult    `json:"-"`
	Filter         *FilterResult   `json:"-"`
	Classification *ClassifyResult `json:"-"`
}

// buildResult assembles the terminal artifact from the stage outputs. The
// event list is synthesised from the flagged fields of each stage, so it is
// deterministic for identical inputs.
func buildResult(runID string, skel *Skeleton, rec *Recording, pose *PoseResult, deriv *DerivResult, filt *FilterResult, classify *ClassifyResult, quality *QualityScore, at time.Time) *RecordingResult {
	res := &RecordingResult{
		RunID:          runID,
		RecordingID:    rec.ID,
		SubjectID:      rec.SubjectID,
		ProcessedAt:    at,
		Engine:         EngineVersion,
		Frames:         rec.Frames(),
		SampleRateHz:   rec.SampleRate(),
		Quality:        quality,
		Pose:           pose,
		Derivatives:    deriv,
		Filter:         filt,
		Classification: classify,
	}

	for j := range skel.Joints {
		js := JointSummary{
			Name:   skel.Joints[j].Name,
			Region: skel.Region(j).Name,
		}
		rj := &pose.Joints[j]
		js.Resolved = rj.OK
		js.SkipReason = rj.SkipReason
		js.Flips = rj.Flips
		if rj.SkipReason != "" {
			res.Events = append(res.Events, ProcessingEvent{
				Stage: "resolver", Subject: js.Name, StartFrame: -1, EndFrame: -1,
				Reason: "joint skipped: " + rj.SkipReason,
			})
		}

		cs := &classify.Joints[j]
		if cs.Classified {
			js.ArtifactCount = cs.ArtifactCount
			js.BurstCount = cs.BurstCount
			js.FlowCount = cs.FlowCount
			js.CleanMax = cs.CleanMaxDegPerSec
			js.CleanMean = cs.CleanMeanDegPerSec
			js.RetainedPct = cs.RetainedPct
		}
		res.Joints = append(res.Joints, js)
	}

	for _, ev := range classify.Events {
		if ev.Tier == TierArtifact {
			res.Events = append(res.Events, ProcessingEvent{
				Stage: "classifier", Subject: ev.Joint,
				StartFrame: ev.StartFrame, EndFrame: ev.EndFrame,
				Reason: fmt.Sprintf("artifact frames masked (peak %.0f deg/s)", ev.PeakMagnitude),
			})
		}
	}

	for _, p := range filt.Profiles {
		switch {
		case p.Skipped:
			res.Events = append(res.Events, ProcessingEvent{
				Stage: "filter", Subject: "region/" + p.Region, StartFrame: -1, EndFrame: -1,
				Reason: p.Reason,
			})
		case p.CutoffNotFound:
			res.Events = append(res.Events, ProcessingEvent{
				Stage: "filter", Subject: "region/" + p.Region, StartFrame: -1, EndFrame: -1,
				Reason: fmt.Sprintf("fallback cutoff %.1f Hz: %s", p.SelectedCutoffHz, p.Reason),
			})
		case p.Clamped:
			res.Events = append(res.Events, ProcessingEvent{
				Stage: "filter", Subject: "region/" + p.Region, StartFrame: -1, EndFrame: -1,
				Reason: fmt.Sprintf("selected cutoff clamped to %.1f Hz", p.SelectedCutoffHz),
			})
		}
	}

	return res
}
