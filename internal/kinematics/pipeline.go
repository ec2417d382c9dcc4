package kinematics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/monitoring"
	"github.com/google/uuid"
)

// PipelineParams bundles every stage's configuration. All empirical
// thresholds live here rather than in stage code.
type PipelineParams struct {
	Resolver   ResolverParams   `koanf:"resolver"`
	Deriv      DerivParams      `koanf:"derivatives"`
	Filter     FilterParams     `koanf:"filter"`
	Classifier ClassifierParams `koanf:"classifier"`
	Scoring    ScoringParams    `koanf:"scoring"`
}

// DefaultPipelineParams returns the documented defaults for every stage.
func DefaultPipelineParams() PipelineParams {
	return PipelineParams{
		Resolver:   DefaultResolverParams(),
		Deriv:      DefaultDerivParams(),
		Filter:     DefaultFilterParams(),
		Classifier: DefaultClassifierParams(),
		Scoring:    DefaultScoringParams(),
	}
}

// Validate checks every stage's parameters.
func (p PipelineParams) Validate() error {
	if err := p.Deriv.Validate(); err != nil {
		return fmt.Errorf("derivatives: %w", err)
	}
	if err := p.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if err := p.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := p.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}

// Input is everything one recording's pipeline needs: the immutable
// skeleton, the sample table, and the out-of-band diagnostics supplied by
// external collaborators.
type Input struct {
	Skeleton    *Skeleton
	Recording   *Recording
	Diagnostics Diagnostics
}

// Run processes one recording through the sequential stage chain:
// resolver -> derivatives -> filter -> classifier -> scoring. Cancellation
// is honoured between stages only; stages are not interruptible without
// corrupting partial numeric state. Re-running on unchanged input and
// parameters reproduces numerically identical output (only RunID and
// ProcessedAt differ, and those are provenance).
func Run(ctx context.Context, in Input, params PipelineParams) (*RecordingResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rec := in.Recording
	if err := rec.Validate(in.Skeleton); err != nil {
		return nil, err
	}

	pose, err := Resolve(in.Skeleton, rec, params.Resolver)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deriv, err := Derive(in.Skeleton, rec, pose, params.Deriv)
	if err != nil {
		return nil, fmt.Errorf("derivatives: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filt, err := ApplyRegionFilters(in.Skeleton, rec, deriv, params.Filter)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classify, err := Classify(in.Skeleton, rec, filt, params.Classifier)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quality, err := Score(classify, filt, in.Diagnostics, params.Classifier, params.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	return buildResult(uuid.NewString(), in.Skeleton, rec, pose, deriv, filt, classify, quality, time.Now().UTC()), nil
}

// BatchItem is the outcome for one recording in a batch: a result or a
// distinct failure record, never both.
type BatchItem struct {
	RecordingID string
	Result      *RecordingResult
	Err         error
}

// RunBatch processes independent recordings concurrently with a bounded
// worker pool. Recordings share no mutable state; a failed recording
// yields a failure record in its slot and never aborts the batch. Output
// order matches input order.
func RunBatch(ctx context.Context, inputs []Input, workers int, params PipelineParams) []BatchItem {
	if workers < 1 {
		workers = 1
	}
	out := make([]BatchItem, len(inputs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				in := inputs[i]
				item := BatchItem{RecordingID: in.Recording.ID}
				res, err := Run(ctx, in, params)
				if err != nil {
					item.Err = err
					monitoring.Logf("recording %s failed: %v", in.Recording.ID, err)
				} else {
					item.Result = res
				}
				out[i] = item
			}
		}()
	}

	for i := range inputs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			out[i] = BatchItem{RecordingID: inputs[i].Recording.ID, Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()
	return out
}
