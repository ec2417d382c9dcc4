// residual-plot renders per-region residual-vs-cutoff curves as PNG plots,
// one per region, with the selected cutoff marked. Used when tuning the
// knee detector or reviewing a REVIEW-decided recording.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/config"
	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/kinematics"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config")
		outDir     = flag.String("out", "plots", "output directory for PNGs")
		frames     = flag.Int("frames", 2400, "frames of synthetic motion")
		rate       = flag.Float64("rate", 240, "sample rate in Hz")
		spike      = flag.Bool("spike", false, "plant a velocity spike before filtering")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	skel, err := kinematics.SynthSkeleton()
	if err != nil {
		log.Fatalf("skeleton: %v", err)
	}
	rec := kinematics.SynthRecording(skel, "residual-plot", *frames, *rate, 30, 2)
	if *spike {
		kinematics.InjectSpike(rec, skel.JointIndex("LeftHand"), *frames/2, 2, 3000)
	}

	res, err := kinematics.Run(context.Background(), kinematics.Input{
		Skeleton:  skel,
		Recording: rec,
		Diagnostics: kinematics.Diagnostics{
			CalibrationRMSEmm: 0.9,
			RigidBodyRangeMM:  2.5,
			MinSNRdB:          32,
			OcclusionRatioPct: 1.5,
		},
	}, cfg.Pipeline)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("output dir: %v", err)
	}
	for _, profile := range res.Filter.Profiles {
		if profile.Skipped || len(profile.ResidualCurve) == 0 {
			log.Printf("region %s: skipped (%s)", profile.Region, profile.Reason)
			continue
		}
		file := filepath.Join(*outDir, fmt.Sprintf("residual_%s.png", profile.Region))
		if err := plotProfile(profile, file); err != nil {
			log.Fatalf("region %s: %v", profile.Region, err)
		}
		log.Printf("region %s: cutoff %.1f Hz -> %s", profile.Region, profile.SelectedCutoffHz, file)
	}
}

// plotProfile draws one residual curve with a vertical marker at the
// selected cutoff.
func plotProfile(profile kinematics.FilterProfile, file string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Residual vs cutoff: %s", profile.Region)
	p.X.Label.Text = "Cutoff (Hz)"
	p.Y.Label.Text = "Residual RMS (deg/s)"

	pts := make(plotter.XYs, 0, len(profile.ResidualCurve))
	var maxRMS float64
	for _, rp := range profile.ResidualCurve {
		pts = append(pts, plotter.XY{X: rp.CutoffHz, Y: rp.RMS})
		if rp.RMS > maxRMS {
			maxRMS = rp.RMS
		}
	}

	curve, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	curve.Width = vg.Points(1.5)
	p.Add(curve)
	p.Legend.Add("residual", curve)

	marker, err := plotter.NewLine(plotter.XYs{
		{X: profile.SelectedCutoffHz, Y: 0},
		{X: profile.SelectedCutoffHz, Y: maxRMS},
	})
	if err != nil {
		return err
	}
	marker.Width = vg.Points(1)
	marker.Color = color.RGBA{R: 200, A: 255}
	marker.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(marker)
	label := "selected"
	if profile.CutoffNotFound {
		label = "fallback"
	}
	p.Legend.Add(label, marker)

	return p.Save(10*vg.Inch, 5*vg.Inch, file)
}
