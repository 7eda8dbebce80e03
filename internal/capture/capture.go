// Package capture defines the boundary to the rendering/capture
// collaborator: per item, an optional DOM observation and a set of cropped
// region images. Rendering, navigation and region detection happen outside
// this repository; the engine only consumes their output.
package capture

import (
	"context"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// Provider supplies both observations' raw material for one item.
type Provider interface {
	// DOMObservation returns the structural extraction, or nil when no
	// selector matched for this page variant at all.
	DOMObservation(ctx context.Context, ref model.ItemRef) (*model.Observation, error)

	// RegionImages returns the cropped screenshot region per field. The map
	// is always present; an individual field's image may be missing or
	// empty when the region was blank.
	RegionImages(ctx context.Context, ref model.ItemRef) (map[model.Field][]byte, error)
}
