package kinematics

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func cleanDiagnostics() Diagnostics {
	return Diagnostics{
		CalibrationRMSEmm: 0.8,
		RigidBodyRangeMM:  2.0,
		MinSNRdB:          35,
		OcclusionRatioPct: 1.0,
	}
}

func cleanClassify() *ClassifyResult {
	return &ClassifyResult{ArtifactRatePct: 0.1}
}

func cleanFilter() *FilterResult {
	return &FilterResult{Profiles: []FilterProfile{
		{Region: "trunk", SelectedCutoffHz: 4, ResidualRMS: 6},
		{Region: "distal-upper", SelectedCutoffHz: 10, ResidualRMS: 9},
	}}
}

func TestScoreAcceptsCleanRecording(t *testing.T) {
	qs, err := Score(cleanClassify(), cleanFilter(), cleanDiagnostics(), DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if qs.Decision != DecisionAccept {
		t.Fatalf("decision %s (%s), want ACCEPT", qs.Decision, qs.Reason)
	}
	if qs.Aggregate < 75 {
		t.Fatalf("aggregate %v below threshold for clean inputs", qs.Aggregate)
	}
	if len(qs.Components) != 6 {
		t.Fatalf("got %d components, want 6", len(qs.Components))
	}
	var wsum float64
	for _, c := range qs.Components {
		wsum += c.Weight
	}
	if math.Abs(wsum-1) > 1e-9 {
		t.Fatalf("component weights sum to %v, want 1", wsum)
	}
}

func TestScoreHighIntensityTag(t *testing.T) {
	classify := cleanClassify()
	classify.HighIntensity = true
	qs, err := Score(classify, cleanFilter(), cleanDiagnostics(), DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if qs.Decision != DecisionAcceptHighIntensity {
		t.Fatalf("decision %s, want ACCEPT_HIGH_INTENSITY", qs.Decision)
	}
}

func TestScoreHardFailPrecedence(t *testing.T) {
	// Hard fails force REJECT even when the score and soft conditions
	// would otherwise accept or merely review.
	diags := cleanDiagnostics()
	diags.MinSNRdB = 5 // below the 8 dB floor, and below the marginal 15 dB
	diags.IdentityMismatch = true

	qs, err := Score(cleanClassify(), cleanFilter(), diags, DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if qs.Decision != DecisionReject {
		t.Fatalf("decision %s, want REJECT", qs.Decision)
	}
	if !strings.HasPrefix(qs.Reason, "hard-fail:") {
		t.Fatalf("reason %q lacks the hard-fail prefix", qs.Reason)
	}
	// Both conditions named, SNR before identity per the fixed order.
	snr := strings.Index(qs.Reason, "SNR")
	id := strings.Index(qs.Reason, "identity")
	if snr < 0 || id < 0 || snr > id {
		t.Fatalf("reason %q does not name both conditions in order", qs.Reason)
	}
}

func TestScoreArtifactRateCapRejects(t *testing.T) {
	classify := cleanClassify()
	classify.ArtifactRatePct = 1.5
	qs, err := Score(classify, cleanFilter(), cleanDiagnostics(), DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if qs.Decision != DecisionReject {
		t.Fatalf("decision %s, want REJECT above the artifact cap", qs.Decision)
	}
	if !strings.Contains(qs.Reason, "artifact rate") {
		t.Fatalf("reason %q does not name the artifact cap", qs.Reason)
	}
}

func TestScoreSoftWarningsForceReview(t *testing.T) {
	diags := cleanDiagnostics()
	diags.CalibrationRMSEmm = 2.5 // above marginal, below hard territory
	diags.RegionalOcclusion = true

	filt := cleanFilter()
	filt.Profiles[1].CutoffNotFound = true
	filt.Profiles[1].Reason = "no knee"

	qs, err := Score(cleanClassify(), filt, diags, DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if qs.Decision != DecisionReview {
		t.Fatalf("decision %s, want REVIEW", qs.Decision)
	}
	if !strings.HasPrefix(qs.Reason, "soft-warning:") {
		t.Fatalf("reason %q lacks the soft-warning prefix", qs.Reason)
	}
	for _, want := range []string{"marginal calibration", "regional occlusion", "cutoff not found for region distal-upper"} {
		if !strings.Contains(qs.Reason, want) {
			t.Fatalf("reason %q missing %q", qs.Reason, want)
		}
	}
}

func TestScoreLowAggregateReviews(t *testing.T) {
	diags := Diagnostics{
		CalibrationRMSEmm: 1.9, // inside marginal
		RigidBodyRangeMM:  9.5, // near worst, below ceiling
		MinSNRdB:          16,  // above marginal, above floor
		OcclusionRatioPct: 18,
	}
	classify := cleanClassify()
	classify.ArtifactRatePct = 0.9
	filt := cleanFilter()
	filt.Profiles[0].ResidualRMS = 45
	filt.Profiles[1].ResidualRMS = 48

	qs, err := Score(classify, filt, diags, DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if qs.Decision != DecisionReview {
		t.Fatalf("decision %s (aggregate %v), want REVIEW", qs.Decision, qs.Aggregate)
	}
	if !strings.Contains(qs.Reason, "below accept threshold") {
		t.Fatalf("reason %q does not cite the threshold", qs.Reason)
	}
}

func TestScoreDeterministic(t *testing.T) {
	diags := cleanDiagnostics()
	diags.RegionalOcclusion = true
	a, err := Score(cleanClassify(), cleanFilter(), diags, DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	b, err := Score(cleanClassify(), cleanFilter(), diags, DefaultClassifierParams(), DefaultScoringParams())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("identical inputs produced different outputs:\n%s", diff)
	}
}

func TestBandScoreBothDirections(t *testing.T) {
	lower := Band{Best: 0.5, Worst: 3.0}
	if got := lower.Score(0.5); got != 100 {
		t.Fatalf("best anchor scores %v, want 100", got)
	}
	if got := lower.Score(3.0); got != 0 {
		t.Fatalf("worst anchor scores %v, want 0", got)
	}
	if got := lower.Score(0.1); got != 100 {
		t.Fatalf("beyond best scores %v, want clamped 100", got)
	}
	if got := lower.Score(5); got != 0 {
		t.Fatalf("beyond worst scores %v, want clamped 0", got)
	}

	higher := Band{Best: 40, Worst: 10}
	if got := higher.Score(25); math.Abs(got-50) > 1e-9 {
		t.Fatalf("midpoint scores %v, want 50", got)
	}
}

func TestScoringParamsValidate(t *testing.T) {
	if err := DefaultScoringParams().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	bad := DefaultScoringParams()
	bad.Weights.Coverage = 0.5
	if err := bad.Validate(); err == nil {
		t.Fatal("weights not summing to 1 accepted")
	}
	bad = DefaultScoringParams()
	bad.SNRBand = Band{Best: 10, Worst: 10}
	if err := bad.Validate(); err == nil {
		t.Fatal("degenerate band accepted")
	}
}
