package ocrpool

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/artikelwerk/catalog-cli/internal/model"
	"github.com/artikelwerk/catalog-cli/internal/resilience"
)

const (
	// DefaultPoolSize is the number of concurrently usable engine instances.
	DefaultPoolSize = 4
	// DefaultRecycleAfter is the number of region sets one engine serves
	// before it is torn down and replaced.
	DefaultRecycleAfter = 50
	// DefaultTimeout bounds one item's recognition work.
	DefaultTimeout = 30 * time.Second
)

// worker pairs an engine with its processed-item counter. forceRecycle is
// set when the engine produced a timeout and should not be trusted again.
type worker struct {
	engine       Engine
	processed    int
	forceRecycle bool
}

// Pool is a fixed-size set of recognition engines. Acquisition hands out
// one engine per item; the recycle check runs at acquisition time, so an
// engine is never replaced mid-item.
type Pool struct {
	factory      EngineFactory
	recycleAfter int
	timeout      time.Duration
	workers      chan *worker
	size         int
}

// NewPool constructs the pool and eagerly initializes all engines so the
// first batch does not pay startup cost per item.
func NewPool(size, recycleAfter int, timeout time.Duration, factory EngineFactory) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if recycleAfter <= 0 {
		recycleAfter = DefaultRecycleAfter
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	p := &Pool{
		factory:      factory,
		recycleAfter: recycleAfter,
		timeout:      timeout,
		workers:      make(chan *worker, size),
		size:         size,
	}
	for i := 0; i < size; i++ {
		engine, err := factory()
		if err != nil {
			p.Close()
			return nil, eris.Wrapf(err, "ocrpool: initialize engine %d", i)
		}
		p.workers <- &worker{engine: engine}
	}
	return p, nil
}

// RecognizeRegions turns one item's cropped region images into a vision
// observation. A nil or empty image means the region was blank; the field
// is simply absent from the observation. Region text is pre-cleaned here
// (dropped-decimal insertion, known recognizer artifacts) before the
// observation is formed, which is distinct from the generic auto-fix pass
// that runs during reconciliation.
func (p *Pool) RecognizeRegions(ctx context.Context, regions map[model.Field][]byte) (model.Observation, error) {
	w, err := p.acquire(ctx)
	if err != nil {
		return model.Observation{}, err
	}
	defer func() {
		w.processed++
		p.workers <- w
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	obs := model.Observation{Source: model.SourceVision}
	for _, f := range model.Fields {
		image, ok := regions[f]
		if !ok || len(image) == 0 {
			continue
		}
		if err := checkImage(image); err != nil {
			return model.Observation{}, err
		}

		var text string
		err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			var rerr error
			text, rerr = w.engine.Recognize(ctx, image)
			return rerr
		})
		if err != nil {
			if ctx.Err() != nil {
				// The engine may still be chewing on the abandoned call;
				// replace it before it serves anyone else.
				w.forceRecycle = true
			}
			return model.Observation{}, eris.Wrapf(err, "ocrpool: region %s", f)
		}

		applyRegion(&obs, f, text)
	}

	return obs, nil
}

// acquire takes a free worker and recycles its engine first if the counter
// crossed the threshold or a previous item flagged it.
func (p *Pool) acquire(ctx context.Context) (*worker, error) {
	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "ocrpool: acquire")
	case w := <-p.workers:
		if w.forceRecycle || w.processed >= p.recycleAfter {
			if err := p.recycle(w); err != nil {
				p.workers <- w
				return nil, err
			}
		}
		return w, nil
	}
}

// recycle tears the worker's engine down and installs a fresh one.
func (p *Pool) recycle(w *worker) error {
	zap.L().Debug("ocrpool: recycling engine",
		zap.Int("processed", w.processed),
		zap.Bool("forced", w.forceRecycle),
	)
	if err := w.engine.Close(); err != nil {
		zap.L().Warn("ocrpool: close worn engine", zap.Error(err))
	}

	engine, err := p.factory()
	if err != nil {
		return eris.Wrap(err, "ocrpool: replace engine")
	}
	w.engine = engine
	w.processed = 0
	w.forceRecycle = false
	return nil
}

// Close drains the pool and releases every engine. It must not run
// concurrently with RecognizeRegions.
func (p *Pool) Close() error {
	var firstErr error
	for i := 0; i < p.size; i++ {
		select {
		case w := <-p.workers:
			if err := w.engine.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			// Fewer workers than size only happens when NewPool failed
			// partway through initialization.
			return firstErr
		}
	}
	return firstErr
}

// applyRegion cleans one region's recognized text and sets the matching
// observation field.
func applyRegion(obs *model.Observation, f model.Field, text string) {
	text = cleanText(text)
	if text == "" {
		return
	}

	switch f {
	case model.FieldName:
		obs.Name = text
	case model.FieldDescription:
		obs.Description = text
	case model.FieldIdentifier:
		obs.Identifier = cleanIdentifier(text)
	case model.FieldUnitPrice:
		obs.UnitPrice = cleanPrice(text)
	case model.FieldTieredPrices:
		obs.TieredPrices = parseTiers(text)
		obs.TieredPriceText = text
	}
}
