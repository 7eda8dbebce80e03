package capture

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// imageExtensions lists the crop formats the capture pipeline writes, in
// lookup order.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".webp"}

// LocalProvider reads capture output from an item directory: an optional
// dom.json plus one image per field region (name.png, identifier.png, ...).
// This is the layout the capture collaborator drops for offline runs.
type LocalProvider struct{}

// NewLocalProvider creates a filesystem-backed Provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// DOMObservation loads dom.json from the item directory. A missing file
// means the page variant defeated every selector; that is a normal outcome,
// not an error.
func (p *LocalProvider) DOMObservation(_ context.Context, ref model.ItemRef) (*model.Observation, error) {
	data, err := os.ReadFile(filepath.Join(ref.Dir, "dom.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "capture: read dom.json for %s", ref.ID)
	}

	var obs model.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, eris.Wrapf(err, "capture: parse dom.json for %s", ref.ID)
	}
	obs.Source = model.SourceDOM
	return &obs, nil
}

// RegionImages loads the cropped region image per field. Missing files mean
// a blank region; the returned map always exists.
func (p *LocalProvider) RegionImages(_ context.Context, ref model.ItemRef) (map[model.Field][]byte, error) {
	regions := make(map[model.Field][]byte, len(model.Fields))
	for _, f := range model.Fields {
		for _, ext := range imageExtensions {
			data, err := os.ReadFile(filepath.Join(ref.Dir, string(f)+ext))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, eris.Wrapf(err, "capture: read region %s for %s", f, ref.ID)
			}
			regions[f] = data
			break
		}
	}
	return regions, nil
}
