package ocrpool

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// testImage returns a minimal decodable PNG region payload.
func testImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

// fakeEngine returns canned text keyed by region payload length order; the
// ID makes instance identity observable for recycling tests.
type fakeEngine struct {
	id     int
	text   string
	err    error
	block  bool
	closed bool
	mu     sync.Mutex
}

func (e *fakeEngine) Recognize(ctx context.Context, _ []byte) (string, error) {
	if e.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	engines []*fakeEngine
	text    string
}

func (f *fakeFactory) new() (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &fakeEngine{id: len(f.engines), text: f.text}
	f.engines = append(f.engines, e)
	return e, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func TestPool_RecognizeRegionsBuildsObservation(t *testing.T) {
	factory := &fakeFactory{text: "Kugelschreiber mit Gravur"}
	pool, err := NewPool(1, 50, time.Second, factory.new)
	require.NoError(t, err)
	defer pool.Close()

	img := testImage(t)
	obs, err := pool.RecognizeRegions(context.Background(), map[model.Field][]byte{
		model.FieldName: img,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SourceVision, obs.Source)
	assert.Equal(t, "Kugelschreiber mit Gravur", obs.Name)
	assert.Empty(t, obs.Identifier)
}

func TestPool_BlankRegionsAreSkipped(t *testing.T) {
	factory := &fakeFactory{text: "irrelevant"}
	pool, err := NewPool(1, 50, time.Second, factory.new)
	require.NoError(t, err)
	defer pool.Close()

	obs, err := pool.RecognizeRegions(context.Background(), map[model.Field][]byte{
		model.FieldName:       nil,
		model.FieldIdentifier: {},
	})
	require.NoError(t, err)
	assert.True(t, obs.IsEmpty())
}

func TestPool_UndecodableRegionFailsTheItem(t *testing.T) {
	factory := &fakeFactory{text: "irrelevant"}
	pool, err := NewPool(1, 50, time.Second, factory.new)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.RecognizeRegions(context.Background(), map[model.Field][]byte{
		model.FieldName: []byte("not an image"),
	})
	assert.Error(t, err)
}

func TestPool_RecyclesAfterThresholdByInstanceIdentity(t *testing.T) {
	factory := &fakeFactory{text: "Text"}
	pool, err := NewPool(1, 50, time.Second, factory.new)
	require.NoError(t, err)
	defer pool.Close()

	img := testImage(t)
	regions := map[model.Field][]byte{model.FieldName: img}

	for i := 0; i < 50; i++ {
		_, err := pool.RecognizeRegions(context.Background(), regions)
		require.NoError(t, err)
	}
	// 50 region sets served, still the original instance.
	require.Equal(t, 1, factory.count())

	_, err = pool.RecognizeRegions(context.Background(), regions)
	require.NoError(t, err)

	// The 51st set crossed the threshold: a fresh instance served it and
	// the worn one was closed.
	require.Equal(t, 2, factory.count())
	assert.True(t, factory.engines[0].closed)
	assert.False(t, factory.engines[1].closed)
}

func TestPool_TimeoutFlagsEngineForRecycle(t *testing.T) {
	factory := &fakeFactory{text: "Text"}
	pool, err := NewPool(1, 50, 20*time.Millisecond, factory.new)
	require.NoError(t, err)
	defer pool.Close()

	factory.engines[0].block = true

	img := testImage(t)
	regions := map[model.Field][]byte{model.FieldName: img}

	_, err = pool.RecognizeRegions(context.Background(), regions)
	require.Error(t, err)

	// The stuck engine is replaced at the next acquisition, not mid-item.
	_, err = pool.RecognizeRegions(context.Background(), regions)
	require.NoError(t, err)
	assert.Equal(t, 2, factory.count())
	assert.True(t, factory.engines[0].closed)
}

func TestPool_TransientEngineErrorIsRetried(t *testing.T) {
	factory := &fakeFactory{text: "Text"}
	pool, err := NewPool(1, 50, time.Second, factory.new)
	require.NoError(t, err)
	defer pool.Close()

	e := factory.engines[0]
	attempts := 0
	e.err = nil
	wrapped := &flakyEngine{inner: e, failures: 1, attempts: &attempts}

	// Swap the pooled engine for the flaky wrapper.
	w := <-pool.workers
	w.engine = wrapped
	pool.workers <- w

	obs, err := pool.RecognizeRegions(context.Background(), map[model.Field][]byte{
		model.FieldName: testImage(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "Text", obs.Name)
	assert.Equal(t, 2, attempts)
}

type flakyEngine struct {
	inner    Engine
	failures int
	attempts *int
}

func (e *flakyEngine) Recognize(ctx context.Context, img []byte) (string, error) {
	*e.attempts++
	if *e.attempts <= e.failures {
		return "", eris.New("resource temporarily unavailable")
	}
	return e.inner.Recognize(ctx, img)
}

func (e *flakyEngine) Close() error { return e.inner.Close() }

func TestPool_ConcurrentItemsUseDistinctEngines(t *testing.T) {
	factory := &fakeFactory{text: "Text"}
	pool, err := NewPool(4, 50, time.Second, factory.new)
	require.NoError(t, err)
	defer pool.Close()

	img := testImage(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.RecognizeRegions(context.Background(), map[model.Field][]byte{
				model.FieldName: img,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// No recycling needed for 16 items across 4 engines at threshold 50.
	assert.Equal(t, 4, factory.count())
}

func TestPool_CloseReleasesEngines(t *testing.T) {
	factory := &fakeFactory{text: "Text"}
	pool, err := NewPool(3, 50, time.Second, factory.new)
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	for _, e := range factory.engines {
		assert.True(t, e.closed)
	}
}
