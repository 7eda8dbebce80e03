// Package batch drives reconciliation across many catalog items with
// bounded parallelism. Items are processed in fixed-size waves: a wave must
// fully drain before the next starts, which caps in-flight recognition work
// at one wave's worth, and a short pause between waves gives a just-recycled
// engine time to finish reinitializing.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/artikelwerk/catalog-cli/internal/capture"
	"github.com/artikelwerk/catalog-cli/internal/config"
	"github.com/artikelwerk/catalog-cli/internal/model"
	"github.com/artikelwerk/catalog-cli/internal/reconcile"
)

const (
	// DefaultSize is how many items one wave carries.
	DefaultSize = 10
	// DefaultPause separates consecutive waves.
	DefaultPause = time.Second
)

// Recognizer turns one item's region images into a vision observation.
type Recognizer interface {
	RecognizeRegions(ctx context.Context, regions map[model.Field][]byte) (model.Observation, error)
}

// Runner reconciles items in bounded batches. It is the single failure
// isolation boundary: one bad item produces a FailedItem entry and never
// aborts the run.
type Runner struct {
	provider   capture.Provider
	recognizer Recognizer
	reconciler *reconcile.Reconciler
	size       int
	limiter    *rate.Limiter
}

// NewRunner creates a Runner. Zero config values select defaults.
func NewRunner(provider capture.Provider, recognizer Recognizer, reconciler *reconcile.Reconciler, cfg config.BatchConfig) *Runner {
	size := cfg.Size
	if size <= 0 {
		size = DefaultSize
	}
	pause := cfg.Pause
	if pause <= 0 {
		pause = DefaultPause
	}
	return &Runner{
		provider:   provider,
		recognizer: recognizer,
		reconciler: reconciler,
		size:       size,
		limiter:    rate.NewLimiter(rate.Every(pause), 1),
	}
}

// Run processes all items and returns the aggregate report. Only context
// cancellation stops a run early; per-item failures are recorded and the
// run continues.
func (r *Runner) Run(ctx context.Context, items []model.ItemRef) (*model.BatchReport, error) {
	report := &model.BatchReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", report.RunID))
	log.Info("batch run starting",
		zap.Int("items", len(items)),
		zap.Int("batch_size", r.size),
	)

	var mu sync.Mutex
	var succeeded int

	for start := 0; start < len(items); start += r.size {
		if err := r.limiter.Wait(ctx); err != nil {
			return report, eris.Wrap(err, "batch: inter-batch pause")
		}

		end := min(start+r.size, len(items))
		wave := items[start:end]

		g := new(errgroup.Group)
		g.SetLimit(len(wave))

		for _, ref := range wave {
			g.Go(func() error {
				rec, err := r.processItem(ctx, ref)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Warn("item failed",
						zap.String("item", ref.ID),
						zap.Error(err),
					)
					report.Failures = append(report.Failures, model.FailedItem{
						Ref:          ref,
						ErrorMessage: err.Error(),
					})
					return nil // one bad item never aborts the run
				}
				if rec.Success {
					succeeded++
				}
				rec.RunID = report.RunID
				report.Records = append(report.Records, rec)
				return nil
			})
		}
		// All item goroutines return nil; Wait only synchronizes the wave.
		_ = g.Wait()

		if ctx.Err() != nil {
			break
		}
	}

	report.ProcessedCount = len(report.Records)
	report.FailedCount = len(report.Failures)
	if total := report.ProcessedCount + report.FailedCount; total > 0 {
		report.SuccessRate = float64(succeeded) / float64(total)
	}
	report.FinishedAt = time.Now().UTC()

	log.Info("batch run finished",
		zap.Int("processed", report.ProcessedCount),
		zap.Int("failed", report.FailedCount),
		zap.Float64("success_rate", report.SuccessRate),
	)
	return report, eris.Wrap(ctx.Err(), "batch: run interrupted")
}

// processItem pulls both observations for one item and reconciles them.
func (r *Runner) processItem(ctx context.Context, ref model.ItemRef) (model.ReconciledRecord, error) {
	started := time.Now()

	dom, err := r.provider.DOMObservation(ctx, ref)
	if err != nil {
		return model.ReconciledRecord{}, err
	}
	regions, err := r.provider.RegionImages(ctx, ref)
	if err != nil {
		return model.ReconciledRecord{}, err
	}
	vision, err := r.recognizer.RecognizeRegions(ctx, regions)
	if err != nil {
		return model.ReconciledRecord{}, err
	}

	rec := r.reconciler.Reconcile(dom, vision)
	rec.Ref = ref
	rec.Elapsed = time.Since(started)
	return rec, nil
}
