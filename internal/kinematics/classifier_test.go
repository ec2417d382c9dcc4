package kinematics

import (
	"math"
	"testing"
)

// classifierFixture wraps a raw magnitude channel as a FilterResult so tier
// decisions can be tested against exact run durations.
func classifierFixture(t *testing.T, signal []float64) (*Skeleton, *Recording, *FilterResult) {
	t.Helper()
	skel, err := Build(
		[]Joint{{Name: "Hips", Parent: RootParent, HasRotation: true}},
		[]RegionRule{{Pattern: "*", Region: "trunk"}},
		[]RegionBand{{Name: "trunk", FMin: 2, FMax: 6}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rec := &Recording{
		ID: "cx", SubjectID: "s1",
		Time: make([]float64, len(signal)),
		Rot:  [][]Quat{nil},
		Pos:  [][][3]float64{nil},
	}
	for i := range rec.Time {
		rec.Time[i] = float64(i) / 240
	}
	filt := &FilterResult{
		Profiles:         []FilterProfile{{Region: "trunk", SelectedCutoffHz: 4}},
		FilteredOmegaMag: [][]float64{signal},
		FilteredVelMag:   [][]float64{nil},
	}
	return skel, rec, filt
}

// spikeSignal returns a quiet baseline with one run of runLen frames at the
// given magnitude starting at frame start.
func spikeSignal(frames, start, runLen int, baseline, mag float64) []float64 {
	s := make([]float64, frames)
	for i := range s {
		s[i] = baseline
	}
	for i := start; i < start+runLen && i < frames; i++ {
		s[i] = mag
	}
	return s
}

func TestClassifyTierBoundaries(t *testing.T) {
	// At 240 Hz the defaults give D1=3 and D2=12 frames.
	cases := []struct {
		name   string
		runLen int
		tier   Tier
	}{
		{"at artifact ceiling", 3, TierArtifact},
		{"just above artifact ceiling", 4, TierBurst},
		{"at burst ceiling", 12, TierBurst},
		{"just above burst ceiling", 13, TierFlow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signal := spikeSignal(1000, 400, tc.runLen, 50, 800)
			skel, rec, filt := classifierFixture(t, signal)
			res, err := Classify(skel, rec, filt, DefaultClassifierParams())
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if res.D1Frames != 3 || res.D2Frames != 12 {
				t.Fatalf("ceilings D1=%d D2=%d, want 3 and 12", res.D1Frames, res.D2Frames)
			}
			if len(res.Events) != 1 {
				t.Fatalf("got %d events, want 1", len(res.Events))
			}
			ev := res.Events[0]
			if ev.Tier != tc.tier {
				t.Fatalf("run of %d frames classified %s, want %s", tc.runLen, ev.Tier, tc.tier)
			}
			if ev.Duration() != tc.runLen {
				t.Fatalf("event duration %d, want %d", ev.Duration(), tc.runLen)
			}
			if ev.StartFrame != 400 || ev.EndFrame != 400+tc.runLen-1 {
				t.Fatalf("event frames [%d, %d], want [400, %d]", ev.StartFrame, ev.EndFrame, 400+tc.runLen-1)
			}
			if ev.PeakMagnitude != 800 {
				t.Fatalf("peak %v, want 800", ev.PeakMagnitude)
			}
		})
	}
}

func TestClassifyShortSpikeMaskedFromCleanStats(t *testing.T) {
	// A 2-frame 3000 deg/s spike in an otherwise quiet channel: one
	// Artifact event, masked out, clean statistics unchanged by the spike.
	signal := spikeSignal(1000, 500, 2, 50, 3000)
	skel, rec, filt := classifierFixture(t, signal)

	res, err := Classify(skel, rec, filt, DefaultClassifierParams())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Tier != TierArtifact {
		t.Fatalf("expected exactly one artifact event, got %+v", res.Events)
	}
	if res.Events[0].Duration() != 2 {
		t.Fatalf("event duration %d, want 2", res.Events[0].Duration())
	}

	js := res.Joints[0]
	if js.ArtifactCount != 1 || js.BurstCount != 0 || js.FlowCount != 0 {
		t.Fatalf("counts artifact=%d burst=%d flow=%d, want 1/0/0", js.ArtifactCount, js.BurstCount, js.FlowCount)
	}
	if !js.Mask[500] || !js.Mask[501] || js.Mask[499] || js.Mask[502] {
		t.Fatal("mask does not cover exactly the spike frames")
	}
	if math.Abs(js.CleanMaxDegPerSec-50) > 1e-9 {
		t.Fatalf("clean max %v leaked the spike, want 50", js.CleanMaxDegPerSec)
	}
	if math.Abs(js.CleanMeanDegPerSec-50) > 1e-9 {
		t.Fatalf("clean mean %v, want 50", js.CleanMeanDegPerSec)
	}
	if math.Abs(js.ArtifactRatePct-0.2) > 1e-9 {
		t.Fatalf("artifact rate %v%%, want 0.2%%", js.ArtifactRatePct)
	}
	if js.ArtifactRatePct > DefaultClassifierParams().ArtifactRateCapPct {
		t.Fatal("0.2% rate must sit below the 1% cap")
	}
	if math.Abs(res.ArtifactRatePct-0.2) > 1e-9 {
		t.Fatalf("recording artifact rate %v%%, want 0.2%%", res.ArtifactRatePct)
	}
}

func TestClassifyMultipleRuns(t *testing.T) {
	signal := make([]float64, 2000)
	for i := range signal {
		signal[i] = 40
	}
	// Two artifacts, one burst, one flow.
	for i := 100; i < 102; i++ {
		signal[i] = 900
	}
	for i := 300; i < 301; i++ {
		signal[i] = 700
	}
	for i := 600; i < 608; i++ {
		signal[i] = 1200
	}
	for i := 1000; i < 1100; i++ {
		signal[i] = 600
	}
	skel, rec, filt := classifierFixture(t, signal)

	res, err := Classify(skel, rec, filt, DefaultClassifierParams())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	js := res.Joints[0]
	if js.ArtifactCount != 2 || js.BurstCount != 1 || js.FlowCount != 1 {
		t.Fatalf("counts artifact=%d burst=%d flow=%d, want 2/1/1", js.ArtifactCount, js.BurstCount, js.FlowCount)
	}
	if js.LongestRunFrames != 100 {
		t.Fatalf("longest run %d, want 100", js.LongestRunFrames)
	}
	// 108 intense frames of 2000 is 5.4%, above the 5% dominance share.
	if !res.HighIntensity {
		t.Fatal("burst+flow share above 5% should mark high intensity")
	}
}

func TestClassifyQuietChannel(t *testing.T) {
	signal := make([]float64, 500)
	for i := range signal {
		signal[i] = 30
	}
	skel, rec, filt := classifierFixture(t, signal)
	res, err := Classify(skel, rec, filt, DefaultClassifierParams())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(res.Events) != 0 {
		t.Fatalf("quiet channel produced %d events", len(res.Events))
	}
	js := res.Joints[0]
	if !js.Classified || js.ArtifactRatePct != 0 || js.RetainedPct != 100 {
		t.Fatalf("quiet channel stats wrong: %+v", js)
	}
}

func TestClassifySkipsNilChannel(t *testing.T) {
	skel, rec, filt := classifierFixture(t, make([]float64, 100))
	filt.FilteredOmegaMag[0] = nil
	res, err := Classify(skel, rec, filt, DefaultClassifierParams())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Joints[0].Classified {
		t.Fatal("joint without a channel should not be classified")
	}
	if res.Joints[0].SkipReason == "" {
		t.Fatal("skip must carry a reason")
	}
}

func TestClassifierParamsValidate(t *testing.T) {
	if err := DefaultClassifierParams().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	bad := DefaultClassifierParams()
	bad.BurstMaxSec = bad.ArtifactMaxSec
	if err := bad.Validate(); err == nil {
		t.Fatal("burst ceiling at artifact ceiling accepted")
	}
	bad = DefaultClassifierParams()
	bad.TriggerDegPerSec = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero trigger accepted")
	}
}

func TestFindRunsStrictThreshold(t *testing.T) {
	signal := []float64{500, 501, 500, 502, 503, 500}
	runs := findRuns(signal, 500)
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].start != 1 || runs[0].end != 1 {
		t.Fatalf("first run [%d, %d], want [1, 1]", runs[0].start, runs[0].end)
	}
	if runs[1].start != 3 || runs[1].end != 4 || runs[1].peak != 503 {
		t.Fatalf("second run %+v", runs[1])
	}
}
